package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/bodhirag/catalog-backend/internal/cfg"
	v1Http "github.com/bodhirag/catalog-backend/internal/delivery/v1/http"
	"github.com/bodhirag/catalog-backend/internal/infrastructure/email"
	embedderInfra "github.com/bodhirag/catalog-backend/internal/infrastructure/embedder"
	"github.com/bodhirag/catalog-backend/internal/infrastructure/kafka"
	minioInfra "github.com/bodhirag/catalog-backend/internal/infrastructure/minio"
	"github.com/bodhirag/catalog-backend/internal/infrastructure/vision"
	s3Repo "github.com/bodhirag/catalog-backend/internal/repository/minio"
	qdrantRepo "github.com/bodhirag/catalog-backend/internal/repository/qdrant"
	redisRepo "github.com/bodhirag/catalog-backend/internal/repository/redis"
	"github.com/bodhirag/catalog-backend/internal/usecase"
	"github.com/bodhirag/catalog-backend/pkg/clients"
	"github.com/bodhirag/catalog-backend/pkg/closer"
	"github.com/bodhirag/catalog-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const (
	bootstrapTimeout = 10 * time.Second
	shutdownTimeout  = 10 * time.Second
	visionMaxRetries = 3
)

// Run собирает зависимости, запускает HTTP-сервер и блокируется
// до сигнала завершения или фатальной ошибки сервера.
func Run() {
	logger := logger.NewSlogLogger()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	// shutdownCtx живёт до конца graceful shutdown: фоновые компенсации
	// MinIO ориентируются на него, а не на контексты запросов
	shutdownCtx, shutdownCancelAll := context.WithCancel(context.Background())
	defer shutdownCancelAll()

	appCloser := closer.NewCloser(2 * time.Second)

	// === MinIO ===
	minioClient, err := clients.NewMinIOClient(cfg)
	if err != nil {
		logger.Errorf(err, "failed to initialize minio client")
		os.Exit(1)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		minioCancel()
		logger.Errorf(err, "failed to initialize MinIO bucket")
		os.Exit(1)
	}
	minioCancel()

	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)
	imagesInfra := minioInfra.NewMinioInfrastructure(imageRepo, cfg.Minio, logger, shutdownCtx)
	appCloser.Add(func(ctx context.Context) error {
		return imagesInfra.WaitForCleanup(ctx)
	})

	// === Qdrant ===
	qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		logger.Errorf(err, "failed to initialize qdrant")
		os.Exit(1)
	}
	qdrantCtx, qdrantCancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	if err := qdrantClient.HealthCheck(qdrantCtx); err != nil {
		qdrantCancel()
		logger.Errorf(err, "qdrant is not reachable")
		os.Exit(1)
	}
	if err := clients.EnsureCollection(qdrantCtx, qdrantClient); err != nil {
		qdrantCancel()
		logger.Errorf(err, "failed to initialize qdrant collection")
		os.Exit(1)
	}
	qdrantCancel()

	docRepo := qdrantRepo.NewDocumentRepo(qdrantClient.Client, cfg.Qdrant)
	appCloser.Add(func(ctx context.Context) error {
		return qdrantClient.Client.Close()
	})

	// === Redis ===
	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(redisCtx); err != nil {
		redisCancel()
		logger.Errorf(err, "failed to connect to redis")
		os.Exit(1)
	}
	redisCancel()

	userRepo := redisRepo.NewUserRepo(redisClient)
	tokenCache := redisRepo.NewTokenCacheRepo(redisClient, cfg.Redis)
	appCloser.Add(func(ctx context.Context) error {
		return redisClient.Close()
	})

	// === Kafka ===
	producer, err := kafka.NewProducer(logger, cfg.Kafka)
	if err != nil {
		logger.Errorf(err, "failed to initialize kafka producer")
		os.Exit(1)
	}
	if err := producer.EnsureTopic(bootstrapTimeout); err != nil {
		logger.Errorf(err, "failed to ensure kafka topic")
		os.Exit(1)
	}
	appCloser.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	// === Embedder и vision ===
	// Инициализация эмбеддера не блокирует старт: до её завершения
	// поиск отвечает 503, а создание продуктов идёт без индексации
	embedder := embedderInfra.NewEmbedder(cfg.Embedder, logger)
	go func() {
		initCtx, initCancel := context.WithTimeout(shutdownCtx, 2*time.Minute)
		defer initCancel()
		if err := embedder.Init(initCtx); err != nil {
			logger.Errorf(err, "embedder initialization failed, search is degraded")
		}
	}()

	visionSvc := vision.NewVisionService(cfg.Vision, visionMaxRetries, logger)
	emailSvc := email.NewEmailService(cfg.Smtp, logger)

	// === Usecases ===
	productUC := usecase.NewProductUC(docRepo, embedder, visionSvc, imagesInfra, producer, logger)
	authUC := usecase.NewAuthUC(userRepo, tokenCache, emailSvc, cfg.Auth, logger)

	// === HTTP ===
	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger)
	router.Init(productUC, authUC, imagesInfra)

	httpSrv := v1Http.NewServer(r, cfg.Http)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server started on port %s", cfg.Http.Port)
		if err := httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(err, "HTTP server failed: %v", err)
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	if err := httpSrv.Stop(stopCtx); err != nil {
		logger.Errorf(err, "HTTP server shutdown error")
	} else {
		logger.Infof("HTTP server stopped")
	}

	// Ресурсы закрываются в порядке, обратном регистрации
	if err := appCloser.Close(stopCtx); err != nil {
		logger.Warnf("shutdown finished with errors: %v", err)
	}
	shutdownCancelAll()

	logger.Infof("Application shutdown complete")
	if appErr != nil {
		os.Exit(1)
	}
}

package embedder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bodhirag/catalog-backend/internal/cfg"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/bodhirag/catalog-backend/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Интервал между ленивыми попытками инициализации, чтобы запросы
// в не-готовом состоянии не бомбили embeddings API пробами.
const initRetryInterval = 15 * time.Second

// Embedder векторизует текст через OpenAI-совместимый embeddings API.
// Инициализация выполняется асинхронно: до успешного пробного запроса
// Embed возвращает e.ErrEmbedderNotReady, и вызывающие деградируют
// (создание без индексации, поиск с ошибкой) вместо блокировки старта.
// Каждый последующий вызов Embed лениво повторяет инициализацию,
// так что временный сбой на старте не требует перезапуска процесса.
type Embedder struct {
	client openai.Client
	cfg    *cfg.EmbedderCfg
	logger logger.Logger
	ready  atomic.Bool

	initMu   sync.Mutex
	nextInit time.Time
	probe    func(ctx context.Context) error
}

func NewEmbedder(cfg *cfg.EmbedderCfg, logger logger.Logger) *Embedder {
	opts := []option.RequestOption{option.WithAPIKey(cfg.ApiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	em := &Embedder{
		client: openai.NewClient(opts...),
		cfg:    cfg,
		logger: logger,
	}
	em.probe = em.probeDimensions

	return em
}

// Init выполняет пробную векторизацию и сверяет размерность модели
// с ожидаемой размерностью коллекции. Запускается в фоне при старте;
// идемпотентен и безопасен для повторных вызовов.
func (em *Embedder) Init(ctx context.Context) error {
	const op = "Embedder.Init"

	if em.ready.Load() {
		return nil
	}

	if err := em.probe(ctx); err != nil {
		return e.Wrap(op, err)
	}

	em.ready.Store(true)
	em.logger.Infof("%s: embedder ready, model=%s dims=%d", op, em.cfg.Model, em.cfg.Dimensions)

	return nil
}

func (em *Embedder) probeDimensions(ctx context.Context) error {
	probe, err := em.embed(ctx, "init probe")
	if err != nil {
		return err
	}
	if len(probe) != em.cfg.Dimensions {
		em.logger.Errorf(e.ErrDimensionMismatch, "model returned %d dims, expected %d", len(probe), em.cfg.Dimensions)
		return e.ErrDimensionMismatch
	}

	return nil
}

// Ready сообщает, прошла ли инициализация.
func (em *Embedder) Ready() bool {
	return em.ready.Load()
}

// ensureReady лениво повторяет инициализацию в не-готовом состоянии,
// не чаще одной пробы за initRetryInterval.
func (em *Embedder) ensureReady(ctx context.Context) error {
	if em.ready.Load() {
		return nil
	}

	em.initMu.Lock()
	defer em.initMu.Unlock()

	if em.ready.Load() {
		return nil
	}
	if time.Now().Before(em.nextInit) {
		return e.ErrEmbedderNotReady
	}
	em.nextInit = time.Now().Add(initRetryInterval)

	if err := em.Init(ctx); err != nil {
		em.logger.Warnf("lazy embedder init failed: %v", err)
		return e.ErrEmbedderNotReady
	}

	return nil
}

// Embed векторизует один текст. Возвращает e.ErrEmbedderNotReady
// до завершения инициализации.
func (em *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	const op = "Embedder.Embed"

	if err := em.ensureReady(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	vector, err := em.embed(ctx, text)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(vector) != em.cfg.Dimensions {
		return nil, e.Wrap(op, e.ErrDimensionMismatch)
	}

	return vector, nil
}

func (em *Embedder) Dimension() int {
	return em.cfg.Dimensions
}

// embed выполняет запрос с экспоненциальным retry на rate limit (HTTP 429).
// Остальные ошибки считаются постоянными и не повторяются.
func (em *Embedder) embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32

	operation := func() error {
		resp, err := em.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfString: openai.String(text),
			},
			Model:      openai.EmbeddingModel(em.cfg.Model),
			Dimensions: openai.Int(int64(em.cfg.Dimensions)),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return backoff.Permanent(e.ErrEmptyEmbedding)
		}

		vector = toFloat32(resp.Data[0].Embedding)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	policy := backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(em.cfg.MaxRetries))
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return vector, nil
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 сжимает float64 из API в float32 хранилища.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}

package http

import (
	_ "github.com/bodhirag/catalog-backend/docs" // Импорт сгенерированных файлов
	"github.com/bodhirag/catalog-backend/internal/usecase"
	"github.com/bodhirag/catalog-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Init регистрирует маршруты API. Маршруты аутентификации публичные,
// каталог и загрузка изображений требуют bearer-токен.
func (r *Router) Init(prUC usecase.ProductUC, authUC usecase.AuthUC, imagesInfra usecase.ImagesInfra) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		authHandler := NewAuthHandler(authUC, r.logger)
		registerAuthRoutes(v1, authHandler)

		v1.Group(func(protected chi.Router) {
			protected.Use(AuthMiddleware(authUC))

			prHandler := NewProductHandler(prUC, r.logger)
			registerProductRoutes(protected, prHandler)

			uploadHandler := NewUploadHandler(imagesInfra, r.logger)
			registerUploadRoutes(protected, uploadHandler)
		})
	})
}

func registerAuthRoutes(router chi.Router, authHandler *AuthHandler) {
	router.Route("/auth", func(auth chi.Router) {
		auth.Post("/register", authHandler.register)
		auth.Post("/login", authHandler.login)
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Post("/", prHandler.createProduct)
		pr.Get("/", prHandler.listProducts)
		pr.Get("/search", prHandler.searchProductsGET)
		pr.Post("/search", prHandler.searchProducts)
		pr.Get("/{id}", prHandler.getProduct)
		pr.Put("/{id}", prHandler.updateProduct)
		pr.Delete("/{id}", prHandler.deleteProduct)
	})
}

func registerUploadRoutes(router chi.Router, uploadHandler *UploadHandler) {
	router.Route("/upload", func(up chi.Router) {
		up.Post("/image", uploadHandler.uploadImage)
	})
}

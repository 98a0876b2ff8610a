package usecase

import "context"

// Embedder превращает текст в вектор фиксированной размерности.
// Размерность фиксируется при инициализации и обязана совпадать
// с размерностью коллекции векторного индекса.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// VisionInfra генерирует текстовое описание продукта по изображению.
type VisionInfra interface {
	GenerateDescription(ctx context.Context, req *GenerateDescriptionReq) (string, error)
}

type ImagesInfra interface {
	UploadImages(ctx context.Context, req *UploadImagesReq) (*UploadImagesRes, error)
	CleanupImages(keys []string)
}

// EventProducer публикует события изменения каталога.
type EventProducer interface {
	ProductChanged(ctx context.Context, event *ProductChangeEvent) error
}

type EmailInfra interface {
	SendWelcome(ctx context.Context, email string, name string, passID string) error
}

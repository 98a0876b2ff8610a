package usecase

import (
	"time"

	"github.com/bodhirag/catalog-backend/internal/domain"
)

// PRODUCT USECASE

// CreateProductReq — запрос на создание продукта.
type CreateProductReq struct {
	Name             string
	Description      string
	Price            float64
	Category         string
	Materials        []string
	CareInstructions string
	ImageURLs        []string
	// AIDescription задаётся клиентом; при пустом значении и наличии
	// изображения описание генерируется vision-моделью.
	AIDescription string
	Image         *ProductImage
}

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// SearchProductsReq — запрос семантического поиска по каталогу.
type SearchProductsReq struct {
	Query   string
	Limit   int
	Filters domain.SearchFilter
}

// ProductSearchResult — продукт с оценкой схожести из поиска.
type ProductSearchResult struct {
	Product domain.Product
	// SimilarityScore в [0,1], выше — ближе к запросу.
	SimilarityScore float64
}

// UpdateProductReq — частичное обновление; nil-поля не трогаются.
type UpdateProductReq struct {
	Name             *string
	Description      *string
	Price            *float64
	Category         *string
	Materials        *[]string
	CareInstructions *string
	ImageURLs        *[]string
}

// Empty сообщает, что запрос не содержит ни одного поля для обновления.
func (r *UpdateProductReq) Empty() bool {
	return r == nil ||
		(r.Name == nil && r.Description == nil && r.Price == nil &&
			r.Category == nil && r.Materials == nil &&
			r.CareInstructions == nil && r.ImageURLs == nil)
}

// INFRASTRUCTURE

// UploadImagesReq — запрос на загрузку изображений продукта.
type UploadImagesReq struct {
	Name   string
	Images []ProductImage
}

// UploadImagesRes — результат загрузки изображений (публичные URL и ключи в MinIO).
type UploadImagesRes struct {
	ImageKeys []string
	ImageURLs []string
}

// GenerateDescriptionReq — запрос описания продукта по изображению.
// Задаётся либо URL, либо base64-представление.
type GenerateDescriptionReq struct {
	ImageURL    string
	ImageBase64 string
}

// ProductChangeEvent — событие изменения каталога для шины.
type ProductChangeEvent struct {
	EventID   string    `json:"event_id"`
	Operation string    `json:"operation"` // created | updated | deleted
	ProductID string    `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}

// AUTH USECASE

type RegisterReq struct {
	Email    string
	Name     string
	Password string
}

type RegisterRes struct {
	PassID string
}

// LoginReq — вход по email либо по passid.
type LoginReq struct {
	Email    string
	PassID   string
	Password string
}

type TokenRes struct {
	AccessToken string
	TokenType   string
}

// MAPPERS

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewUploadImagesReq(name string, images []ProductImage) *UploadImagesReq {
	return &UploadImagesReq{
		Name:   name,
		Images: images,
	}
}

func NewUploadImagesRes(keys []string, urls []string) *UploadImagesRes {
	return &UploadImagesRes{
		ImageKeys: keys,
		ImageURLs: urls,
	}
}

func NewSearchProductsReq(query string, limit int, filters domain.SearchFilter) *SearchProductsReq {
	return &SearchProductsReq{
		Query:   query,
		Limit:   limit,
		Filters: filters,
	}
}

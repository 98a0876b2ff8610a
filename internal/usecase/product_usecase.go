package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/bodhirag/catalog-backend/internal/domain"
	"github.com/bodhirag/catalog-backend/internal/normalizer"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/bodhirag/catalog-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
	defaultListLimit   = 1000
)

// ProductUseCase реализует бизнес-логику каталога продуктов поверх
// векторного индекса. Продукт целиком живёт в метаданных индекса.
type ProductUseCase struct {
	docRepo     DocumentRepository
	embedder    Embedder
	vision      VisionInfra
	imagesInfra ImagesInfra
	producer    EventProducer
	logger      logger.Logger
}

func NewProductUC(
	docRepo DocumentRepository,
	embedder Embedder,
	vision VisionInfra,
	imagesInfra ImagesInfra,
	producer EventProducer,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		docRepo:     docRepo,
		embedder:    embedder,
		vision:      vision,
		imagesInfra: imagesInfra,
		producer:    producer,
		logger:      logger,
	}
}

// CreateProduct создаёт продукт и индексирует его для семантического поиска.
// Сбои необязательных шагов (vision-описание, эмбеддинг) деградируют до
// пустых значений: создание продукта из-за них не прерывается никогда.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.CreateProduct"

	if req == nil {
		return nil, e.Wrap(op, e.ErrMissingFields)
	}

	if !domain.KnownCategory(req.Category) {
		return nil, e.Wrap(op, e.ErrUnknownCategory)
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(req.Name),
		Description:      strings.TrimSpace(req.Description),
		Price:            req.Price,
		Category:         domain.ParseCategory(req.Category),
		Materials:        trimAll(req.Materials),
		CareInstructions: strings.TrimSpace(req.CareInstructions),
		CreatedAt:        &now,
		UpdatedAt:        &now,
	}

	// Валидация до побочных эффектов: загрузки изображений и vision-запросов
	if err := product.ValidateNew(); err != nil {
		return nil, e.Wrap(op, err)
	}

	imageURLs := append([]string{}, req.ImageURLs...)
	aiDescription := strings.TrimSpace(req.AIDescription)

	var uploadedKeys []string

	// Загрузка изображения и vision-описание: best-effort
	if req.Image != nil {
		uploadedURL, uploadedKey, err := p.uploadImage(ctx, req.Name, req.Image)
		if err != nil {
			p.logger.Warnf("%s: image processing failed, continuing without image: %v", op, err)
		} else {
			imageURLs = append([]string{uploadedURL}, imageURLs...)
			uploadedKeys = append(uploadedKeys, uploadedKey)
		}

		if aiDescription == "" {
			aiDescription = p.describeImage(ctx, &GenerateDescriptionReq{
				ImageBase64: base64.StdEncoding.EncodeToString(req.Image.Data),
			})
		}
	}

	// Описание по первому URL, если изображение не передавалось
	if req.Image == nil && aiDescription == "" && len(imageURLs) > 0 {
		aiDescription = p.describeImage(ctx, &GenerateDescriptionReq{ImageURL: imageURLs[0]})
	}

	product.ImageURLs = imageURLs
	if aiDescription != "" {
		product.AIDescription = &aiDescription
	}

	// Эмбеддинг: сбой оставляет вектор пустым и не прерывает создание
	searchText := product.SearchText()
	product.EmbedText = &searchText

	embedding, err := p.embedder.Embed(ctx, searchText)
	if err != nil {
		p.logger.Warnf("%s: embedding failed, product will not be searchable: %v", op, err)
		embedding = nil
	}
	product.Embeddings = embedding

	// Продукт без вектора не индексируется, но возвращается вызывающему
	if len(embedding) > 0 {
		doc := domain.NewIndexedDocument(product.ID, searchText, embedding, productMetadata(product))
		if err := p.docRepo.Insert(ctx, []domain.IndexedDocument{*doc}); err != nil {
			// Компенсация: не оставляем осиротевшие объекты в хранилище
			if len(uploadedKeys) > 0 {
				p.imagesInfra.CleanupImages(uploadedKeys)
			}
			return nil, e.Wrap(op, err)
		}
	}

	p.publishEvent(ctx, "created", product.ID)

	return product, nil
}

// GetProductByID возвращает продукт по идентификатору.
// Невосстановимые метаданные трактуются как отсутствие продукта.
func (p *ProductUseCase) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	const op = "ProductUseCase.GetProductByID"

	if strings.TrimSpace(id) == "" {
		return nil, e.Wrap(op, e.ErrProductIDRequired)
	}
	// Некорректный UUID не должен доходить до индекса
	if _, err := uuid.Parse(id); err != nil {
		return nil, e.Wrap(op, e.ErrInvalidProductID)
	}

	doc, err := p.docRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrDocumentNotFound) {
			return nil, e.Wrap(op, e.ErrProductNotFound)
		}
		return nil, e.Wrap(op, err)
	}

	meta := normalizer.Normalize(doc.Metadata)
	product := normalizer.ProductFromMetadata(meta, id)
	if err := product.ValidateStored(); err != nil {
		p.logger.Warnf("%s: unusable metadata for id=%s: %v", op, id, err)
		return nil, e.Wrap(op, e.ErrProductNotFound)
	}

	return product, nil
}

// SearchProducts выполняет семантический поиск с опциональными фильтрами.
// Порядок результатов — порядок возрастания дистанции от бэкенда; он же
// является порядком убывания схожести и повторно не сортируется.
func (p *ProductUseCase) SearchProducts(ctx context.Context, req *SearchProductsReq) ([]ProductSearchResult, error) {
	const op = "ProductUseCase.SearchProducts"

	// Валидация до каких-либо обращений к эмбеддеру и индексу
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return nil, e.Wrap(op, e.ErrEmptyQuery)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	// Индекс мультиплексирует разные виды документов: фильтр по типу обязателен
	filter := domain.SearchFilter{}
	if req.Filters != nil {
		filter = req.Filters.Clone()
	}
	filter["type"] = "product"

	embedding, err := p.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	rawResults, err := p.docRepo.Search(ctx, embedding, limit, filter)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	results := make([]ProductSearchResult, 0, len(rawResults))
	for _, raw := range rawResults {
		meta := normalizer.Normalize(raw.Metadata)
		product := normalizer.ProductFromMetadata(meta, "")
		if err := product.ValidateStored(); err != nil {
			p.logger.Warnf("%s: dropping incomplete search hit: %v", op, err)
			continue
		}

		results = append(results, ProductSearchResult{
			Product:         *product,
			SimilarityScore: SimilarityFromDistance(raw.Distance),
		})
	}

	return results, nil
}

// ListProducts возвращает продукты без ранжирования (административный обход).
// Непригодные записи пропускаются поштучно, не прерывая выборку.
func (p *ProductUseCase) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	const op = "ProductUseCase.ListProducts"

	if limit <= 0 {
		limit = defaultListLimit
	}

	docs, err := p.docRepo.GetAll(ctx, limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		meta := normalizer.Normalize(doc.Metadata)
		product := normalizer.ProductFromMetadata(meta, doc.ID)
		if err := product.ValidateStored(); err != nil {
			p.logger.Warnf("%s: skipping unusable record id=%s: %v", op, doc.ID, err)
			continue
		}
		products = append(products, *product)
	}

	return products, nil
}

// UpdateProduct применяет частичное обновление и переиндексирует продукт,
// когда изменились поля, участвующие в поиске.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, id string, req *UpdateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateProduct"

	if strings.TrimSpace(id) == "" {
		return nil, e.Wrap(op, e.ErrProductIDRequired)
	}
	if req.Empty() {
		return nil, e.Wrap(op, e.ErrEmptyUpdate)
	}

	product, err := p.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	searchableChanged := false
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != product.Name {
			product.Name = name
			searchableChanged = true
		}
	}
	if req.Description != nil {
		if description := strings.TrimSpace(*req.Description); description != product.Description {
			product.Description = description
			searchableChanged = true
		}
	}
	if req.Materials != nil {
		product.Materials = trimAll(*req.Materials)
		searchableChanged = true
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Category != nil {
		if !domain.KnownCategory(*req.Category) {
			return nil, e.Wrap(op, e.ErrUnknownCategory)
		}
		product.Category = domain.ParseCategory(*req.Category)
	}
	if req.CareInstructions != nil {
		product.CareInstructions = strings.TrimSpace(*req.CareInstructions)
	}
	if req.ImageURLs != nil {
		product.ImageURLs = append([]string{}, (*req.ImageURLs)...)
	}

	if err := product.ValidateNew(); err != nil {
		return nil, e.Wrap(op, err)
	}

	now := time.Now().UTC()
	product.UpdatedAt = &now

	// Переиндексация при изменении поисковых полей или отсутствии вектора
	if searchableChanged || len(product.Embeddings) == 0 {
		searchText := product.SearchText()
		product.EmbedText = &searchText

		embedding, err := p.embedder.Embed(ctx, searchText)
		if err != nil {
			p.logger.Warnf("%s: re-embedding failed, keeping previous vector: %v", op, err)
		} else {
			product.Embeddings = embedding
		}
	}

	if len(product.Embeddings) > 0 {
		searchText := ""
		if product.EmbedText != nil {
			searchText = *product.EmbedText
		}
		doc := domain.NewIndexedDocument(product.ID, searchText, product.Embeddings, productMetadata(product))
		if err := p.docRepo.Insert(ctx, []domain.IndexedDocument{*doc}); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	p.publishEvent(ctx, "updated", product.ID)

	return product, nil
}

// DeleteProduct удаляет продукт из индекса.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id string) error {
	const op = "ProductUseCase.DeleteProduct"

	if strings.TrimSpace(id) == "" {
		return e.Wrap(op, e.ErrProductIDRequired)
	}

	if _, err := p.GetProductByID(ctx, id); err != nil {
		return err
	}

	if err := p.docRepo.Delete(ctx, []string{id}); err != nil {
		return e.Wrap(op, err)
	}

	p.publishEvent(ctx, "deleted", id)

	return nil
}

// SimilarityFromDistance переводит дистанцию бэкенда в оценку схожести [0,1].
// Предполагается нормированная дистанция (косинусная, ~[0,1]); clamp
// поглощает численный дрейф на границах.
func SimilarityFromDistance(distance float64) float64 {
	similarity := 1.0 - distance
	if similarity < 0 {
		return 0.0
	}
	if similarity > 1 {
		return 1.0
	}

	return similarity
}

// uploadImage загружает одно изображение продукта и возвращает публичный URL
// и ключ объекта в хранилище для возможной компенсации.
func (p *ProductUseCase) uploadImage(ctx context.Context, productName string, image *ProductImage) (string, string, error) {
	res, err := p.imagesInfra.UploadImages(ctx, NewUploadImagesReq(productName, []ProductImage{*image}))
	if err != nil {
		return "", "", err
	}
	if len(res.ImageURLs) == 0 || len(res.ImageKeys) == 0 {
		return "", "", e.ErrInternalServerError
	}

	return res.ImageURLs[0], res.ImageKeys[0], nil
}

// describeImage запрашивает описание у vision-модели; любой сбой — пустая строка.
func (p *ProductUseCase) describeImage(ctx context.Context, req *GenerateDescriptionReq) string {
	description, err := p.vision.GenerateDescription(ctx, req)
	if err != nil {
		p.logger.Warnf("AI description generation failed: %v", err)
		return ""
	}

	return strings.TrimSpace(description)
}

// publishEvent отправляет событие изменения каталога; сбой только логируется.
func (p *ProductUseCase) publishEvent(ctx context.Context, operation string, productID string) {
	event := &ProductChangeEvent{
		EventID:   uuid.NewString(),
		Operation: operation,
		ProductID: productID,
		Timestamp: time.Now().UTC(),
	}

	if err := p.producer.ProductChanged(ctx, event); err != nil {
		p.logger.Warnf("failed to publish %s event for product %s: %v", operation, productID, err)
	}
}

// productMetadata сериализует полное состояние продукта в JSON-примитивы
// для метаданных индекса. Дискриминатор "type" позволяет мультиплексировать
// разные виды документов в одной коллекции.
func productMetadata(p *domain.Product) map[string]any {
	embeddings := make([]any, 0, len(p.Embeddings))
	for _, f := range p.Embeddings {
		embeddings = append(embeddings, float64(f))
	}

	meta := map[string]any{
		"id":                p.ID,
		"name":              p.Name,
		"description":       p.Description,
		"price":             p.Price,
		"category":          string(p.Category),
		"materials":         toAnySlice(p.Materials),
		"care_instructions": p.CareInstructions,
		"image_urls":        toAnySlice(p.ImageURLs),
		"embeddings":        embeddings,
		"type":              "product",
	}

	if p.AIDescription != nil {
		meta["ai_description"] = *p.AIDescription
	}
	if p.EmbedText != nil {
		meta["embed_text"] = *p.EmbedText
	}
	if p.CreatedAt != nil {
		meta["created_at"] = p.CreatedAt.Format(time.RFC3339Nano)
	}
	if p.UpdatedAt != nil {
		meta["updated_at"] = p.UpdatedAt.Format(time.RFC3339Nano)
	}

	return meta
}

func toAnySlice(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}

	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}

	return out
}

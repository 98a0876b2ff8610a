package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bodhirag/catalog-backend/internal/domain"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/bodhirag/catalog-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder возвращает детерминированный вектор либо настроенную ошибку.
type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) Dimension() int { return len(f.vector) }

// fakeDocRepo держит документы в памяти и запоминает последний фильтр поиска.
type fakeDocRepo struct {
	docs       map[string]domain.IndexedDocument
	results    []domain.RawSearchResult
	lastFilter domain.SearchFilter
	insertErr  error
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: map[string]domain.IndexedDocument{}}
}

func (f *fakeDocRepo) Insert(_ context.Context, docs []domain.IndexedDocument) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return nil
}

func (f *fakeDocRepo) Search(_ context.Context, _ []float32, _ int, filter domain.SearchFilter) ([]domain.RawSearchResult, error) {
	f.lastFilter = filter
	return f.results, nil
}

func (f *fakeDocRepo) GetByID(_ context.Context, id string) (*domain.RawDocument, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, e.ErrDocumentNotFound
	}
	return &domain.RawDocument{ID: doc.ID, Document: doc.Text, Metadata: doc.Metadata}, nil
}

func (f *fakeDocRepo) GetAll(_ context.Context, _ int) ([]domain.RawDocument, error) {
	out := make([]domain.RawDocument, 0, len(f.docs))
	for _, doc := range f.docs {
		out = append(out, domain.RawDocument{ID: doc.ID, Document: doc.Text, Metadata: doc.Metadata})
	}
	return out, nil
}

func (f *fakeDocRepo) Delete(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(f.docs, id)
	}
	return nil
}

type fakeVision struct{ description string }

func (f *fakeVision) GenerateDescription(_ context.Context, _ *GenerateDescriptionReq) (string, error) {
	if f.description == "" {
		return "", errors.New("vision unavailable")
	}
	return f.description, nil
}

// fakeImages запоминает загруженные и зачищенные ключи объектов.
type fakeImages struct {
	uploaded []string
	cleaned  []string
}

func (f *fakeImages) UploadImages(_ context.Context, req *UploadImagesReq) (*UploadImagesRes, error) {
	urls := make([]string, 0, len(req.Images))
	keys := make([]string, 0, len(req.Images))
	for range req.Images {
		key := fmt.Sprintf("img-%d", len(f.uploaded))
		f.uploaded = append(f.uploaded, key)
		keys = append(keys, key)
		urls = append(urls, "https://cdn.example.com/"+key)
	}
	return NewUploadImagesRes(keys, urls), nil
}

func (f *fakeImages) CleanupImages(keys []string) {
	f.cleaned = append(f.cleaned, keys...)
}

type fakeProducer struct{ events []*ProductChangeEvent }

func (f *fakeProducer) ProductChanged(_ context.Context, event *ProductChangeEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestUC(repo *fakeDocRepo, emb *fakeEmbedder) (*ProductUseCase, *fakeProducer) {
	producer := &fakeProducer{}
	uc := NewProductUC(repo, emb, &fakeVision{}, &fakeImages{}, producer, logger.NewSlogLogger())
	return uc, producer
}

func validCreateReq() *CreateProductReq {
	return &CreateProductReq{
		Name:        "Silk Patola Saree",
		Description: "Handwoven double ikat patola saree with traditional motifs",
		Price:       45000,
		Category:    "patola",
		Materials:   []string{"silk"},
	}
}

func TestCreateProductIndexesDocument(t *testing.T) {
	repo := newFakeDocRepo()
	emb := &fakeEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	uc, producer := newTestUC(repo, emb)

	product, err := uc.CreateProduct(context.Background(), validCreateReq())
	require.NoError(t, err)
	require.NotEmpty(t, product.ID)

	doc, ok := repo.docs[product.ID]
	require.True(t, ok, "product must be indexed")
	assert.Equal(t, "product", doc.Metadata["type"])
	assert.Equal(t, product.Name, doc.Metadata["name"])
	assert.NotNil(t, product.CreatedAt)

	require.Len(t, producer.events, 1)
	assert.Equal(t, "created", producer.events[0].Operation)
	assert.Equal(t, product.ID, producer.events[0].ProductID)
}

func TestCreateProductSurvivesEmbeddingFailure(t *testing.T) {
	repo := newFakeDocRepo()
	emb := &fakeEmbedder{err: errors.New("embedder down")}
	uc, _ := newTestUC(repo, emb)

	product, err := uc.CreateProduct(context.Background(), validCreateReq())
	require.NoError(t, err, "embedding failure must not fail creation")

	assert.Empty(t, product.Embeddings)
	assert.Empty(t, repo.docs, "product without vector must not be indexed")
}

func TestCreateProductValidation(t *testing.T) {
	uc, _ := newTestUC(newFakeDocRepo(), &fakeEmbedder{vector: []float32{1}})

	tests := []struct {
		name   string
		mutate func(*CreateProductReq)
	}{
		{"short name", func(r *CreateProductReq) { r.Name = "x" }},
		{"zero price", func(r *CreateProductReq) { r.Price = 0 }},
		{"price above ceiling", func(r *CreateProductReq) { r.Price = 2_000_000 }},
		{"short description", func(r *CreateProductReq) { r.Description = "short" }},
		{"no materials", func(r *CreateProductReq) { r.Materials = nil }},
		{"unknown category", func(r *CreateProductReq) { r.Category = "spaceships" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateReq()
			tc.mutate(req)

			_, err := uc.CreateProduct(context.Background(), req)
			assert.Error(t, err)
		})
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	repo := newFakeDocRepo()
	uc, _ := newTestUC(repo, &fakeEmbedder{vector: []float32{0.5}})

	created, err := uc.CreateProduct(context.Background(), validCreateReq())
	require.NoError(t, err)

	got, err := uc.GetProductByID(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Price, got.Price)
	assert.Equal(t, created.Category, got.Category)
	assert.Equal(t, created.Materials, got.Materials)
}

func TestGetProductByID(t *testing.T) {
	uc, _ := newTestUC(newFakeDocRepo(), &fakeEmbedder{vector: []float32{1}})

	_, err := uc.GetProductByID(context.Background(), "")
	assert.ErrorIs(t, err, e.ErrProductIDRequired)

	// не-UUID не доходит до индекса и отклоняется как ошибка клиента
	_, err = uc.GetProductByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, e.ErrInvalidProductID)

	_, err = uc.GetProductByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestSearchRejectsEmptyQueryBeforeEmbedding(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{1}}
	uc, _ := newTestUC(newFakeDocRepo(), emb)

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := uc.SearchProducts(context.Background(), &SearchProductsReq{Query: query})
		assert.ErrorIs(t, err, e.ErrEmptyQuery)
	}

	assert.Zero(t, emb.calls, "empty query must be rejected before the embedder is called")
}

func TestSearchMergesMandatoryTypeFilter(t *testing.T) {
	repo := newFakeDocRepo()
	uc, _ := newTestUC(repo, &fakeEmbedder{vector: []float32{1}})

	userFilter := domain.SearchFilter{"category": "patola", "type": "review"}
	_, err := uc.SearchProducts(context.Background(), NewSearchProductsReq("saree", 5, userFilter))
	require.NoError(t, err)

	assert.Equal(t, "product", repo.lastFilter["type"], "type filter must always win")
	assert.Equal(t, "patola", repo.lastFilter["category"])
	assert.Equal(t, "review", userFilter["type"], "caller's filter must not be mutated")
}

func TestSearchDropsMalformedHitsPreservingOrder(t *testing.T) {
	repo := newFakeDocRepo()
	repo.results = []domain.RawSearchResult{
		{Distance: 0.1, Metadata: storedMeta("a", "First Saree")},
		{Distance: 0.2, Metadata: "not json at all"},
		{Distance: 0.3, Metadata: storedMeta("c", "Third Saree")},
	}
	uc, _ := newTestUC(repo, &fakeEmbedder{vector: []float32{1}})

	results, err := uc.SearchProducts(context.Background(), &SearchProductsReq{Query: "saree"})
	require.NoError(t, err)

	require.Len(t, results, 2, "malformed hit must be dropped, not fail the search")
	assert.Equal(t, "First Saree", results[0].Product.Name)
	assert.Equal(t, "Third Saree", results[1].Product.Name)
	assert.Greater(t, results[0].SimilarityScore, results[1].SimilarityScore)
}

func TestSimilarityFromDistance(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 1},
		{0.25, 0.75},
		{1, 0},
		{1.5, 0},   // дистанция за пределами нормы зажимается
		{-0.01, 1}, // численный дрейф ниже нуля
	}

	for _, tc := range tests {
		assert.InDelta(t, tc.want, SimilarityFromDistance(tc.distance), 1e-9)
	}
}

func TestUpdateProductReindexesOnSearchableChange(t *testing.T) {
	repo := newFakeDocRepo()
	emb := &fakeEmbedder{vector: []float32{0.5}}
	uc, producer := newTestUC(repo, emb)

	created, err := uc.CreateProduct(context.Background(), validCreateReq())
	require.NoError(t, err)

	callsBefore := emb.calls
	newName := "Renamed Patola Saree"
	updated, err := uc.UpdateProduct(context.Background(), created.ID, &UpdateProductReq{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, newName, updated.Name)
	assert.Greater(t, emb.calls, callsBefore, "name change must trigger re-embedding")
	assert.Equal(t, newName, repo.docs[created.ID].Metadata["name"])
	assert.Equal(t, "updated", producer.events[len(producer.events)-1].Operation)
}

func TestUpdateProductPriceOnlySkipsReembedding(t *testing.T) {
	repo := newFakeDocRepo()
	emb := &fakeEmbedder{vector: []float32{0.5}}
	uc, _ := newTestUC(repo, emb)

	created, err := uc.CreateProduct(context.Background(), validCreateReq())
	require.NoError(t, err)

	callsBefore := emb.calls
	newPrice := 39000.0
	updated, err := uc.UpdateProduct(context.Background(), created.ID, &UpdateProductReq{Price: &newPrice})
	require.NoError(t, err)

	assert.Equal(t, newPrice, updated.Price)
	assert.Equal(t, callsBefore, emb.calls, "price change alone must not re-embed")
}

func TestUpdateProductErrors(t *testing.T) {
	uc, _ := newTestUC(newFakeDocRepo(), &fakeEmbedder{vector: []float32{1}})

	name := "New Name"
	_, err := uc.UpdateProduct(context.Background(), "", &UpdateProductReq{Name: &name})
	assert.ErrorIs(t, err, e.ErrProductIDRequired)

	_, err = uc.UpdateProduct(context.Background(), "some-id", &UpdateProductReq{})
	assert.ErrorIs(t, err, e.ErrEmptyUpdate)

	_, err = uc.UpdateProduct(context.Background(), "not-a-uuid", &UpdateProductReq{Name: &name})
	assert.ErrorIs(t, err, e.ErrInvalidProductID)

	_, err = uc.UpdateProduct(context.Background(), uuid.NewString(), &UpdateProductReq{Name: &name})
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestDeleteProductRemovesFromIndex(t *testing.T) {
	repo := newFakeDocRepo()
	uc, producer := newTestUC(repo, &fakeEmbedder{vector: []float32{1}})

	created, err := uc.CreateProduct(context.Background(), validCreateReq())
	require.NoError(t, err)

	require.NoError(t, uc.DeleteProduct(context.Background(), created.ID))
	assert.Empty(t, repo.docs)
	assert.Equal(t, "deleted", producer.events[len(producer.events)-1].Operation)

	err = uc.DeleteProduct(context.Background(), created.ID)
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestListProductsSkipsUnusableRecords(t *testing.T) {
	repo := newFakeDocRepo()
	repo.docs["good"] = domain.IndexedDocument{ID: "good", Metadata: storedMeta("good", "Good Saree")}
	repo.docs["bad"] = domain.IndexedDocument{ID: "bad", Metadata: map[string]any{"price": 10}}
	uc, _ := newTestUC(repo, &fakeEmbedder{vector: []float32{1}})

	products, err := uc.ListProducts(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, products, 1)
	assert.Equal(t, "Good Saree", products[0].Name)
}

func TestCreateProductCleansUpImageWhenIndexingFails(t *testing.T) {
	repo := newFakeDocRepo()
	repo.insertErr = errors.New("index write failed")
	images := &fakeImages{}
	uc := NewProductUC(repo, &fakeEmbedder{vector: []float32{1}}, &fakeVision{}, images, &fakeProducer{}, logger.NewSlogLogger())

	req := validCreateReq()
	req.Image = &ProductImage{Data: []byte("jpeg bytes"), MimeType: "image/jpeg", Size: 10, Name: "saree.jpg"}

	_, err := uc.CreateProduct(context.Background(), req)
	require.Error(t, err)

	require.NotEmpty(t, images.uploaded)
	assert.Equal(t, images.uploaded, images.cleaned, "uploaded image must be compensated when indexing fails")
}

func TestUpdateProductTrimmedNameSkipsReembedding(t *testing.T) {
	repo := newFakeDocRepo()
	emb := &fakeEmbedder{vector: []float32{0.5}}
	uc, _ := newTestUC(repo, emb)

	created, err := uc.CreateProduct(context.Background(), validCreateReq())
	require.NoError(t, err)

	callsBefore := emb.calls
	padded := "  " + created.Name + "  "
	updated, err := uc.UpdateProduct(context.Background(), created.ID, &UpdateProductReq{Name: &padded, CareInstructions: ptr("Dry clean only")})
	require.NoError(t, err)

	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, callsBefore, emb.calls, "name unchanged after trimming must not re-embed")
}

// rangeAwareDocRepo применяет ценовой Range-фильтр к результатам,
// воспроизводя поведение индекса с диапазонным условием.
type rangeAwareDocRepo struct {
	*fakeDocRepo
}

func (f *rangeAwareDocRepo) Search(ctx context.Context, emb []float32, k int, filter domain.SearchFilter) ([]domain.RawSearchResult, error) {
	f.lastFilter = filter

	priceRange, ok := filter["price"].(domain.Range)
	if !ok {
		return f.results, nil
	}

	out := make([]domain.RawSearchResult, 0, len(f.results))
	for _, res := range f.results {
		meta, _ := res.Metadata.(map[string]any)
		price, _ := meta["price"].(float64)
		if priceRange.GTE != nil && price < *priceRange.GTE {
			continue
		}
		if priceRange.LTE != nil && price > *priceRange.LTE {
			continue
		}
		out = append(out, res)
	}

	return out, nil
}

func TestSearchPriceRangeBoundsEveryHit(t *testing.T) {
	repo := &rangeAwareDocRepo{fakeDocRepo: newFakeDocRepo()}
	prices := []float64{999.99, 1000, 1500, 2000, 2000.01}
	for i, price := range prices {
		meta := storedMeta(fmt.Sprintf("p%d", i), fmt.Sprintf("Saree %d", i))
		meta["price"] = price
		repo.fakeDocRepo.results = append(repo.fakeDocRepo.results, domain.RawSearchResult{Distance: 0.1, Metadata: meta})
	}
	producer := &fakeProducer{}
	uc := NewProductUC(repo, &fakeEmbedder{vector: []float32{1}}, &fakeVision{}, &fakeImages{}, producer, logger.NewSlogLogger())

	minPrice, maxPrice := 1000.0, 2000.0
	filter := domain.SearchFilter{"price": domain.Range{GTE: &minPrice, LTE: &maxPrice}}
	results, err := uc.SearchProducts(context.Background(), NewSearchProductsReq("saree", 10, filter))
	require.NoError(t, err)

	// границы включаются, значения за пределами диапазона отсекаются
	require.Len(t, results, 3)
	for _, res := range results {
		assert.GreaterOrEqual(t, res.Product.Price, minPrice)
		assert.LessOrEqual(t, res.Product.Price, maxPrice)
	}
}

func ptr[T any](v T) *T { return &v }

// storedMeta собирает метаданные минимально пригодного сохранённого продукта.
func storedMeta(id string, name string) map[string]any {
	return map[string]any{
		"id":          id,
		"name":        name,
		"description": "A stored product description",
		"price":       100.0,
		"category":    "patola",
		"type":        "product",
	}
}

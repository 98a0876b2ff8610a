package normalizer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodhirag/catalog-backend/internal/domain"
)

func productMeta() map[string]any {
	return map[string]any{
		"id":                "550e8400-e29b-41d4-a716-446655440000",
		"name":              "Classic Cotton T-Shirt",
		"description":       "A comfortable and stylish t-shirt made from organic cotton.",
		"price":             29.99,
		"category":          "traditional",
		"materials":         []any{"cotton", "polyester"},
		"care_instructions": "Machine wash cold. Tumble dry low.",
		"image_urls":        []any{"https://example.com/images/tshirt.jpg"},
		"type":              "product",
	}
}

type attrRecord struct {
	meta any
}

func (r attrRecord) Metadata() any { return r.meta }

func TestNormalizeShapes(t *testing.T) {
	meta := productMeta()
	encoded, err := json.Marshal(meta)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  any
	}{
		{"mapping with metadata key", map[string]any{"id": "x", "document": "t", "metadata": meta}},
		{"mapping with meta key", map[string]any{"meta": meta, "document": "t", "id": "x"}},
		{"bare mapping", meta},
		{"json string", string(encoded)},
		{"json bytes", encoded},
		{"raw message", json.RawMessage(encoded)},
		{"sequence with mapping first", []any{meta, "document", "x"}},
		{"sequence with json string first", []any{string(encoded), "document", "x"}},
		{"double encoded", map[string]any{"metadata": string(encoded)}},
		{"object with metadata accessor", attrRecord{meta: meta}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			require.NotNil(t, got)
			assert.Equal(t, "Classic Cotton T-Shirt", got["name"])
			assert.Equal(t, "traditional", got["category"])
		})
	}
}

// Нормализация никогда не падает и на любом входе возвращает словарь.
func TestNormalizeTotal(t *testing.T) {
	inputs := []any{
		nil,
		"",
		"not json at all",
		"42",
		"null",
		[]any{},
		[]any{42},
		[]any{nil},
		map[string]any{},
		map[string]any{"metadata": nil},
		struct{ X chan int }{}, // несериализуемый объект
		3.14,
	}

	for _, raw := range inputs {
		got := Normalize(raw)
		require.NotNil(t, got, "input %#v", raw)
	}
}

func TestNormalizeStringFallback(t *testing.T) {
	got := Normalize("plain text payload")
	assert.Equal(t, map[string]any{"meta": "plain text payload"}, got)

	// откат внутри последовательности
	got = Normalize([]any{"{broken json"})
	assert.Equal(t, map[string]any{"meta": "{broken json"}, got)
}

func TestNormalizeUnwrapsNestedMeta(t *testing.T) {
	wrapped := map[string]any{"meta": productMeta()}

	got := Normalize(wrapped)
	assert.Equal(t, "Classic Cotton T-Shirt", got["name"])
	_, hasMeta := got["meta"]
	assert.False(t, hasMeta)
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := map[string]any{"metadata": productMeta()}

	once := Normalize(raw)
	twice := Normalize(once)
	assert.Equal(t, once, twice)

	// нечитаемая строка стабилизируется за один проход
	fallback := Normalize("{broken")
	assert.Equal(t, fallback, Normalize(fallback))
}

func TestProductFromMetadataDefaults(t *testing.T) {
	p := ProductFromMetadata(map[string]any{}, "fallback-id")

	assert.Equal(t, "fallback-id", p.ID)
	assert.Equal(t, "", p.Name)
	assert.Equal(t, "", p.Description)
	assert.Equal(t, 0.0, p.Price)
	assert.Equal(t, domain.CategoryOther, p.Category)
	assert.Empty(t, p.Materials)
	assert.Equal(t, "", p.CareInstructions)
	assert.Empty(t, p.ImageURLs)
	assert.Nil(t, p.AIDescription)
	assert.Nil(t, p.CreatedAt)
	assert.Nil(t, p.UpdatedAt)
	assert.Empty(t, p.Embeddings)
	assert.Nil(t, p.EmbedText)
}

func TestProductFromMetadataFields(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	meta := productMeta()
	meta["ai_description"] = "Short take.\n\nLonger detailed paragraph."
	meta["created_at"] = now.Format(time.RFC3339)
	meta["updated_at"] = now.Format(time.RFC3339)
	meta["embeddings"] = []any{0.1, 0.2, 0.3}
	meta["embed_text"] = "Classic Cotton T-Shirt A comfortable shirt"

	p := ProductFromMetadata(meta, "")

	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", p.ID)
	assert.Equal(t, 29.99, p.Price)
	assert.Equal(t, domain.CategoryTraditional, p.Category)
	assert.Equal(t, []string{"cotton", "polyester"}, p.Materials)
	require.NotNil(t, p.AIDescription)
	assert.Contains(t, *p.AIDescription, "\n\n")
	require.NotNil(t, p.CreatedAt)
	assert.True(t, now.Equal(*p.CreatedAt))
	assert.Len(t, p.Embeddings, 3)
	require.NotNil(t, p.EmbedText)
}

// Цена терпима к вариациям типов, с которыми её отдают разные слои.
func TestProductFromMetadataPriceCoercion(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want float64
	}{
		{"float64", 29.99, 29.99},
		{"int", 30, 30.0},
		{"json number", json.Number("29.99"), 29.99},
		{"string", "29.99", 29.99},
		{"garbage string", "free", 0.0},
		{"nil", nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ProductFromMetadata(map[string]any{"price": tt.raw}, "id")
			assert.Equal(t, tt.want, p.Price)
		})
	}
}

func TestProductFromMetadataBadURLPassthrough(t *testing.T) {
	meta := map[string]any{
		"image_urls": []any{"https://example.com/a.jpg", "::not a url::", 42},
	}

	p := ProductFromMetadata(meta, "id")
	assert.Equal(t, []string{"https://example.com/a.jpg", "::not a url::"}, p.ImageURLs)
}

func TestProductFromMetadataUnknownCategory(t *testing.T) {
	p := ProductFromMetadata(map[string]any{"category": "spaceships"}, "id")
	assert.Equal(t, domain.CategoryOther, p.Category)
}

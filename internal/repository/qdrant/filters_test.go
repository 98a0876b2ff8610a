package qdrant

import (
	"testing"

	"github.com/bodhirag/catalog-backend/internal/domain"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilterEmpty(t *testing.T) {
	filter, err := buildFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, filter)

	filter, err = buildFilter(domain.SearchFilter{})
	require.NoError(t, err)
	assert.Nil(t, filter)
}

func TestBuildFilterCombinesConditionsWithMust(t *testing.T) {
	gte, lte := 100.0, 500.0
	filter, err := buildFilter(domain.SearchFilter{
		"type":     "product",
		"category": "patola",
		"price":    domain.Range{GTE: &gte, LTE: &lte},
	})
	require.NoError(t, err)

	require.NotNil(t, filter)
	assert.Len(t, filter.Must, 3)
	assert.Empty(t, filter.Should)
}

func TestBuildFilterRejectsUnsupportedValue(t *testing.T) {
	_, err := buildFilter(domain.SearchFilter{"weird": struct{}{}})
	assert.Error(t, err)

	_, err = buildFilter(domain.SearchFilter{"price": (*domain.Range)(nil)})
	assert.Error(t, err)
}

func TestBuildFilterHalfOpenRange(t *testing.T) {
	gte := 250.0
	filter, err := buildFilter(domain.SearchFilter{
		"price": domain.Range{GTE: &gte},
	})
	require.NoError(t, err)
	require.Len(t, filter.Must, 1)

	rng := filter.Must[0].GetField().GetRange()
	require.NotNil(t, rng)
	assert.Equal(t, 250.0, rng.GetGte())
	assert.Nil(t, rng.Lte)
}

func TestPayloadRoundTrip(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		"name":      "Patola Saree",
		"price":     45000.0,
		"in_stock":  true,
		"materials": []any{"silk", "zari"},
		"nested":    map[string]any{"weave": "double ikat"},
	})

	got := payloadToMap(payload)

	assert.Equal(t, "Patola Saree", got["name"])
	assert.Equal(t, 45000.0, got["price"])
	assert.Equal(t, true, got["in_stock"])
	assert.Equal(t, []any{"silk", "zari"}, got["materials"])
	assert.Equal(t, map[string]any{"weave": "double ikat"}, got["nested"])
}

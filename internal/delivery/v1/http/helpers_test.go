package http

import (
	"net/http"
	"testing"

	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr error
	}{
		{"integer", "45000", 45000, nil},
		{"two decimals", "599.99", 599.99, nil},
		{"empty", "", 0, e.ErrMissingFields},
		{"whitespace", "   ", 0, e.ErrMissingFields},
		{"garbage", "abc", 0, e.ErrInvalidPrice},
		{"zero", "0", 0, e.ErrPriceMustBePositive},
		{"negative", "-10", 0, e.ErrPriceMustBePositive},
		{"above ceiling", "1000001", 0, e.ErrInvalidPrice},
		{"three decimals", "10.999", 0, e.ErrPricePrecision},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parsePrice(tc.input)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToHTTPResponseMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{e.ErrEmptyQuery, http.StatusBadRequest},
		{e.ErrEmptyUpdate, http.StatusBadRequest},
		{e.ErrUnknownCategory, http.StatusBadRequest},
		{e.ErrInvalidProductID, http.StatusBadRequest},
		{e.ErrProductNotFound, http.StatusNotFound},
		{e.ErrInvalidCredentials, http.StatusUnauthorized},
		{e.ErrUnauthorized, http.StatusUnauthorized},
		{e.ErrEmbedderNotReady, http.StatusServiceUnavailable},
		{e.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		code, _ := ToHTTPResponse(tc.err)
		assert.Equal(t, tc.code, code, "error %v", tc.err)
	}
}

func TestToHTTPResponseWrappedErrors(t *testing.T) {
	// обёртка через e.Wrap не должна терять сопоставление статуса
	code, msg := ToHTTPResponse(e.Wrap("SomeUseCase.SomeOp", e.ErrProductNotFound))

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, e.ErrProductNotFound.Error(), msg)
}

func TestToHTTPResponseHidesInternalDetails(t *testing.T) {
	_, msg := ToHTTPResponse(e.Wrap("secret connection string", assert.AnError))

	assert.Equal(t, e.ErrInternalServerError.Error(), msg)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"silk", "zari"}, splitCSV("silk, zari"))
	assert.Equal(t, []string{"silk"}, splitCSV(" silk ,, "))
	assert.Nil(t, splitCSV("  "))
}

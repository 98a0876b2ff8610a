package normalizer

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/bodhirag/catalog-backend/internal/domain"
)

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}

	return ""
}

func optionalStringField(m map[string]any, key string) *string {
	if s, ok := m[key].(string); ok && s != "" {
		return &s
	}

	return nil
}

// floatField читает числовое поле, терпимо к формам, в которых JSON-слои
// и клиенты хранилища отдают числа.
func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0.0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}

func categoryField(m map[string]any) domain.ProductCategory {
	s, ok := m["category"].(string)
	if !ok {
		return domain.CategoryOther
	}

	return domain.ParseCategory(s)
}

func stringSliceField(m map[string]any, key string) []string {
	out := []string{}

	switch v := m[key].(type) {
	case []string:
		return append(out, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}

	return out
}

// urlSliceField извлекает список URL изображений. Каждая запись разбирается
// независимо; строка, не являющаяся абсолютным URL, проходит как есть —
// одна битая ссылка не бракует запись целиком.
func urlSliceField(m map[string]any, key string) []string {
	raw := stringSliceField(m, key)

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if u, err := url.Parse(s); err == nil && u.IsAbs() {
			out = append(out, u.String())
			continue
		}
		out = append(out, s)
	}

	return out
}

func timeField(m map[string]any, key string) *time.Time {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}

	return nil
}

// vectorField читает эмбеддинг продукта. Числа приходят как []any из JSON
// либо как типизированные срезы от прямых путей записи.
func vectorField(m map[string]any, key string) []float32 {
	out := []float32{}

	switch v := m[key].(type) {
	case []float32:
		return append(out, v...)
	case []float64:
		for _, f := range v {
			out = append(out, float32(f))
		}
	case []any:
		for _, item := range v {
			switch f := item.(type) {
			case float64:
				out = append(out, float32(f))
			case float32:
				out = append(out, f)
			case json.Number:
				if parsed, err := f.Float64(); err == nil {
					out = append(out, float32(parsed))
				}
			}
		}
	}

	return out
}

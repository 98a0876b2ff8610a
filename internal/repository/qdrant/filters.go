package qdrant

import (
	"fmt"

	"github.com/bodhirag/catalog-backend/internal/domain"
	"github.com/qdrant/go-client/qdrant"
)

// buildFilter переводит фильтр предметной области в Qdrant-фильтр.
// Точные значения становятся match-условиями, Range — диапазонными;
// условия по разным полям объединяются через Must (логическое И).
func buildFilter(filter domain.SearchFilter) (*qdrant.Filter, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	conditions := make([]*qdrant.Condition, 0, len(filter))
	for field, value := range filter {
		condition, err := buildCondition(field, value)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, condition)
	}

	return &qdrant.Filter{Must: conditions}, nil
}

func buildCondition(field string, value any) (*qdrant.Condition, error) {
	switch v := value.(type) {
	case string:
		return qdrant.NewMatch(field, v), nil
	case bool:
		return qdrant.NewMatchBool(field, v), nil
	case int:
		return qdrant.NewMatchInt(field, int64(v)), nil
	case int64:
		return qdrant.NewMatchInt(field, v), nil
	case float64:
		// числовое равенство выражается вырожденным диапазоном
		return qdrant.NewRange(field, &qdrant.Range{
			Gte: qdrant.PtrOf(v),
			Lte: qdrant.PtrOf(v),
		}), nil
	case domain.Range:
		return rangeCondition(field, v), nil
	case *domain.Range:
		if v == nil {
			return nil, fmt.Errorf("nil range for field %q", field)
		}
		return rangeCondition(field, *v), nil
	default:
		return nil, fmt.Errorf("unsupported filter value for field %q: %T", field, value)
	}
}

func rangeCondition(field string, r domain.Range) *qdrant.Condition {
	qr := &qdrant.Range{}
	if r.GTE != nil {
		qr.Gte = qdrant.PtrOf(*r.GTE)
	}
	if r.LTE != nil {
		qr.Lte = qdrant.PtrOf(*r.LTE)
	}

	return qdrant.NewRange(field, qr)
}

// payloadToMap разворачивает payload Qdrant в обычные Go-значения.
func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = valueToAny(value)
	}

	return out
}

func valueToAny(value *qdrant.Value) any {
	if value == nil {
		return nil
	}

	switch kind := value.Kind.(type) {
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		list := make([]any, 0, len(items))
		for _, item := range items {
			list = append(list, valueToAny(item))
		}
		return list
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	default:
		return nil
	}
}

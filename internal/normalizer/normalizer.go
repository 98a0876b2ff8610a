// Package normalizer приводит разношёрстные сырые записи векторного индекса
// к каноническому словарю метаданных продукта.
//
// Хранилище не гарантирует стабильную форму записи между версиями клиента:
// метаданные приходят как вложенный словарь, JSON-строка, позиционная строка
// результата или объект с атрибутом метаданных. Этот пакет — единственная
// точка, поглощающая эту нестабильность: дальше системы видят только
// канонический вид. Нормализация тотальна — на любом входе возвращается
// словарь, ошибки деградируют к значениям по умолчанию.
package normalizer

import (
	"encoding/json"

	"github.com/bodhirag/catalog-backend/internal/domain"
)

// MetadataCarrier реализуют объектоподобные записи,
// предоставляющие метаданные через метод.
type MetadataCarrier interface {
	Metadata() any
}

// MetaCarrier — альтернативный аксессор для записей со свёрнутым полем meta.
type MetaCarrier interface {
	Meta() any
}

// Normalize разбирает сырую запись индекса в словарь метаданных.
// Порядок разбора фиксирован, применяется первая подошедшая ветка:
//
//  1. словарь: вложенное поле "metadata", иначе "meta", иначе словарь целиком;
//  2. последовательность: первый элемент (словарь/последовательность — как есть,
//     строка — попытка JSON-декодирования с откатом к {"meta": s});
//  3. строка или байты: попытка JSON-декодирования с тем же откатом;
//  4. объект: аксессор Metadata(), иначе Meta(), иначе приведение объекта
//     к словарю через JSON; при неудаче — nil.
//
// Затем: повторное декодирование, если результат остался строкой (двойная
// сериализация), разворачивание вложенного словарного поля "meta" (двойная
// обёртка некоторых путей вставки), nil приводится к пустому словарю.
func Normalize(raw any) map[string]any {
	meta := extract(raw)

	// двойная сериализация: метаданные пришли строкой внутри строки
	if s, ok := meta.(string); ok {
		meta = decodeString(s)
	}

	m, ok := meta.(map[string]any)
	if !ok || m == nil {
		return map[string]any{}
	}

	// двойная обёртка: {"meta": {...}} от некоторых путей вставки
	if nested, ok := m["meta"].(map[string]any); ok {
		return nested
	}

	return m
}

func extract(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil

	case map[string]any:
		if meta, ok := v["metadata"]; ok && meta != nil {
			return meta
		}
		if meta, ok := v["meta"]; ok && meta != nil {
			return meta
		}
		return v

	case []any:
		if len(v) == 0 {
			return nil
		}
		switch first := v[0].(type) {
		case map[string]any, []any:
			return first
		case string:
			return decodeString(first)
		case []byte:
			return decodeString(string(first))
		default:
			return nil
		}

	case string:
		return decodeString(v)

	case json.RawMessage:
		return decodeString(string(v))

	case []byte:
		return decodeString(string(v))

	default:
		if carrier, ok := raw.(MetadataCarrier); ok {
			return carrier.Metadata()
		}
		if carrier, ok := raw.(MetaCarrier); ok {
			return carrier.Meta()
		}
		return coerceToMap(raw)
	}
}

// decodeString пытается разобрать строку как JSON-объект.
// Нечитаемый JSON деградирует к {"meta": s}, а не к ошибке.
func decodeString(s string) any {
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return map[string]any{"meta": s}
	}

	switch decoded.(type) {
	case map[string]any, []any, string:
		return decoded
	default:
		// JSON-скаляр (число, bool, null) метаданными быть не может
		return map[string]any{"meta": s}
	}
}

// coerceToMap приводит произвольный объект к словарю через JSON-цикл.
func coerceToMap(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}

	return m
}

// ProductFromMetadata извлекает поля продукта из канонического словаря.
// Каждое поле подставляется независимо: отсутствующее или нечитаемое
// значение заменяется документированным значением по умолчанию, запись
// целиком при этом не бракуется. fallbackID подставляется в id, когда
// метаданные собственного идентификатора не содержат.
func ProductFromMetadata(m map[string]any, fallbackID string) *domain.Product {
	if m == nil {
		m = map[string]any{}
	}

	id := stringField(m, "id")
	if id == "" {
		id = fallbackID
	}

	return &domain.Product{
		ID:               id,
		Name:             stringField(m, "name"),
		Description:      stringField(m, "description"),
		Price:            floatField(m, "price"),
		Category:         categoryField(m),
		Materials:        stringSliceField(m, "materials"),
		CareInstructions: stringField(m, "care_instructions"),
		ImageURLs:        urlSliceField(m, "image_urls"),
		AIDescription:    optionalStringField(m, "ai_description"),
		CreatedAt:        timeField(m, "created_at"),
		UpdatedAt:        timeField(m, "updated_at"),
		Embeddings:       vectorField(m, "embeddings"),
		EmbedText:        optionalStringField(m, "embed_text"),
	}
}

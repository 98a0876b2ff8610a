package domain

// IndexedDocument описывает запись векторного индекса.
// Индекс ничего не знает о схеме продукта: метаданные — произвольный
// JSON-сериализуемый словарь с дискриминатором "type".
type IndexedDocument struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]any
}

// RawDocument — запись, как её вернул бэкенд индекса.
// Metadata нетипизирована: в зависимости от версии клиента это может быть
// словарь, JSON-строка, позиционная строка результата или объект с атрибутом
// метаданных. Нормализация — задача пакета normalizer, индекс её не выполняет.
type RawDocument struct {
	ID       string
	Document string
	Metadata any
}

// RawSearchResult — один результат поиска ближайших соседей.
// Distance — неотрицательная метрика несхожести, меньше = ближе.
type RawSearchResult struct {
	Text     string
	Distance float64
	Metadata any
}

// Range — диапазонный предикат фильтра по числовому полю метаданных.
type Range struct {
	GTE *float64
	LTE *float64
}

// SearchFilter сопоставляет полю метаданных либо точное значение,
// либо Range. Условия по разным полям объединяются по И.
type SearchFilter map[string]any

// Clone возвращает неглубокую копию фильтра.
func (f SearchFilter) Clone() SearchFilter {
	out := make(SearchFilter, len(f))
	for k, v := range f {
		out[k] = v
	}

	return out
}

func NewIndexedDocument(id string, text string, embedding []float32, metadata map[string]any) *IndexedDocument {
	return &IndexedDocument{
		ID:        id,
		Text:      text,
		Embedding: embedding,
		Metadata:  metadata,
	}
}

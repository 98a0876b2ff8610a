package domain

import (
	"strings"
	"time"

	"github.com/bodhirag/catalog-backend/pkg/e"
)

// ProductCategory — категория продукта из фиксированного перечисления.
type ProductCategory string

const (
	CategoryAll         ProductCategory = "all"
	CategoryPatola      ProductCategory = "patola"
	CategoryTraditional ProductCategory = "traditional"
	CategoryModern      ProductCategory = "modern"
	CategoryAccessories ProductCategory = "accessories"
	// CategoryOther присваивается записям с отсутствующей или неизвестной категорией.
	CategoryOther ProductCategory = "other"
)

// ParseCategory возвращает категорию по строковому значению.
// Неизвестные значения сводятся к CategoryOther.
func ParseCategory(s string) ProductCategory {
	switch ProductCategory(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryAll:
		return CategoryAll
	case CategoryPatola:
		return CategoryPatola
	case CategoryTraditional:
		return CategoryTraditional
	case CategoryModern:
		return CategoryModern
	case CategoryAccessories:
		return CategoryAccessories
	default:
		return CategoryOther
	}
}

// KnownCategory сообщает, входит ли значение в фиксированное перечисление категорий.
func KnownCategory(s string) bool {
	switch ProductCategory(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryAll, CategoryPatola, CategoryTraditional, CategoryModern, CategoryAccessories, CategoryOther:
		return true
	}

	return false
}

// Product описывает продукт каталога.
// Продукт целиком хранится в метаданных векторного индекса; реляционного
// хранилища у каталога нет.
type Product struct {
	ID               string
	Name             string
	Description      string
	Price            float64
	Category         ProductCategory
	Materials        []string
	CareInstructions string
	ImageURLs        []string
	// AIDescription — склейка короткого и развёрнутого описаний от vision-модели,
	// разделённых пустой строкой. nil, если описание не генерировалось.
	AIDescription *string
	CreatedAt     *time.Time
	UpdatedAt     *time.Time
	// Embeddings непуст тогда и только тогда, когда генерация эмбеддинга удалась.
	// Продукт с пустым вектором легален, но не виден семантическому поиску.
	Embeddings []float32
	// EmbedText — точный текст, который был отправлен в модель эмбеддингов.
	EmbedText *string
}

// ValidateNew проверяет инварианты продукта при создании.
func (p *Product) ValidateNew() error {
	name := strings.TrimSpace(p.Name)
	if len(name) < 2 {
		return e.ErrProductNameRequired
	}
	if p.Price <= 0 || p.Price > 1_000_000 {
		return e.ErrPriceMustBePositive
	}
	if len(strings.TrimSpace(p.Description)) < 10 {
		return e.ErrDescriptionTooShort
	}
	if len(p.Materials) == 0 {
		return e.ErrMissingFields
	}
	for _, m := range p.Materials {
		if strings.TrimSpace(m) == "" {
			return e.ErrMissingFields
		}
	}

	return nil
}

// ValidateStored проверяет продукт, восстановленный из метаданных индекса.
// Записи без id, name или description считаются непригодными.
func (p *Product) ValidateStored() error {
	if p.ID == "" || p.Name == "" || p.Description == "" {
		return e.ErrIncompleteMetadata
	}

	return nil
}

// SearchText возвращает текст, из которого строится эмбеддинг продукта.
func (p *Product) SearchText() string {
	ai := ""
	if p.AIDescription != nil {
		ai = *p.AIDescription
	}

	return p.Name + " " + p.Description + " " + ai
}

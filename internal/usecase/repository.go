package usecase

import (
	"context"

	"github.com/bodhirag/catalog-backend/internal/domain"
)

// DocumentRepository — абстракция векторного индекса.
// Записи возвращаются сырыми: метаданные нетипизированы, их приведение
// к канонической форме выполняет пакет normalizer, а не репозиторий.
type DocumentRepository interface {
	// Insert сохраняет документы. Атомарность не гарантируется: частичный
	// сбой возвращается ошибкой, компенсация — забота вызывающего.
	Insert(ctx context.Context, docs []domain.IndexedDocument) error
	// Search возвращает ближайшие документы по возрастанию дистанции.
	Search(ctx context.Context, embedding []float32, k int, filter domain.SearchFilter) ([]domain.RawSearchResult, error)
	GetByID(ctx context.Context, id string) (*domain.RawDocument, error)
	GetAll(ctx context.Context, limit int) ([]domain.RawDocument, error)
	Delete(ctx context.Context, ids []string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPassID(ctx context.Context, passID string) (*domain.User, error)
}

// TokenCacheRepository кэширует выданные access-токены с TTL.
type TokenCacheRepository interface {
	Get(ctx context.Context, userID int64) (string, error)
	Set(ctx context.Context, userID int64, token string) error
	RefreshTTL(ctx context.Context, userID int64) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}

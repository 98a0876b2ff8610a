package qdrant

import (
	"context"

	"github.com/bodhirag/catalog-backend/internal/cfg"
	"github.com/bodhirag/catalog-backend/internal/domain"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// DocumentRepo репозиторий векторного индекса каталога поверх Qdrant.
// Дистанция результата выводится из score косинусной близости как 1 - score,
// чтобы наружу уходила метрика "меньше = ближе".
type DocumentRepo struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewDocumentRepo(client *qdrant.Client, cfg *cfg.QdrantCfg) *DocumentRepo {
	return &DocumentRepo{
		client: client,
		cfg:    cfg,
	}
}

// opCtx ограничивает каждое обращение к индексу настроенным таймаутом.
func (q *DocumentRepo) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, q.cfg.Timeout)
}

// Insert сохраняет или обновляет документы в коллекции.
// Повторная вставка с тем же ID перезаписывает вектор и метаданные.
func (q *DocumentRepo) Insert(ctx context.Context, docs []domain.IndexedDocument) error {
	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Embedding) != int(q.cfg.VectorSize) {
			return e.Wrap(whereami.WhereAmI(), e.ErrDimensionMismatch)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(doc.Metadata),
		})
	}

	opCtx, cancel := q.opCtx(ctx)
	defer cancel()

	_, err := q.client.Upsert(opCtx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.CollectionName,
		Points:         points,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Search возвращает k ближайших документов по возрастанию дистанции.
func (q *DocumentRepo) Search(ctx context.Context, embedding []float32, k int, filter domain.SearchFilter) ([]domain.RawSearchResult, error) {
	if len(embedding) != int(q.cfg.VectorSize) {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrDimensionMismatch)
	}

	qdrantFilter, err := buildFilter(filter)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	opCtx, cancel := q.opCtx(ctx)
	defer cancel()

	points, err := q.client.Query(opCtx, &qdrant.QueryPoints{
		CollectionName: q.cfg.CollectionName,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(k)),
		Filter:         qdrantFilter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	results := make([]domain.RawSearchResult, 0, len(points))
	for _, point := range points {
		metadata := payloadToMap(point.Payload)

		results = append(results, domain.RawSearchResult{
			Text: documentText(metadata),
			// score косинусной близости в [0,1], дистанция — его дополнение
			Distance: 1.0 - float64(point.Score),
			Metadata: metadata,
		})
	}

	return results, nil
}

// GetByID возвращает документ по идентификатору точки.
func (q *DocumentRepo) GetByID(ctx context.Context, id string) (*domain.RawDocument, error) {
	opCtx, cancel := q.opCtx(ctx)
	defer cancel()

	points, err := q.client.Get(opCtx, &qdrant.GetPoints{
		CollectionName: q.cfg.CollectionName,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if len(points) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrDocumentNotFound)
	}

	metadata := payloadToMap(points[0].Payload)

	return &domain.RawDocument{
		ID:       id,
		Document: documentText(metadata),
		Metadata: metadata,
	}, nil
}

// GetAll обходит коллекцию без ранжирования, до limit документов.
func (q *DocumentRepo) GetAll(ctx context.Context, limit int) ([]domain.RawDocument, error) {
	opCtx, cancel := q.opCtx(ctx)
	defer cancel()

	points, err := q.client.Scroll(opCtx, &qdrant.ScrollPoints{
		CollectionName: q.cfg.CollectionName,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	docs := make([]domain.RawDocument, 0, len(points))
	for _, point := range points {
		metadata := payloadToMap(point.Payload)

		docs = append(docs, domain.RawDocument{
			ID:       point.Id.GetUuid(),
			Document: documentText(metadata),
			Metadata: metadata,
		})
	}

	return docs, nil
}

// Delete удаляет документы по идентификаторам. Отсутствующие ID не ошибка.
func (q *DocumentRepo) Delete(ctx context.Context, ids []string) error {
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewIDUUID(id))
	}

	opCtx, cancel := q.opCtx(ctx)
	defer cancel()

	_, err := q.client.Delete(opCtx, &qdrant.DeletePoints{
		CollectionName: q.cfg.CollectionName,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// documentText достаёт индексированный текст из метаданных, если он там есть.
func documentText(metadata map[string]any) string {
	if text, ok := metadata["embed_text"].(string); ok {
		return text
	}

	return ""
}

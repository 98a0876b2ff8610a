package redis

import (
	"context"
	"fmt"

	"github.com/bodhirag/catalog-backend/internal/cfg"
	"github.com/bodhirag/catalog-backend/pkg/clients"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// TokenCacheRepo кэширует выданные access-токены с TTL из конфигурации.
// Промах кэша не ошибка: возвращается пустая строка.
type TokenCacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
}

func NewTokenCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg) *TokenCacheRepo {
	return &TokenCacheRepo{
		client: client,
		cfg:    cfg,
	}
}

func (t *TokenCacheRepo) Get(ctx context.Context, userID int64) (string, error) {
	token, err := t.client.Client.Get(ctx, tokenKey(userID)).Result()
	if err != nil {
		if err == r.Nil {
			return "", nil
		}
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return token, nil
}

func (t *TokenCacheRepo) Set(ctx context.Context, userID int64, token string) error {
	if err := t.client.Client.Set(ctx, tokenKey(userID), token, t.cfg.TokenTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// RefreshTTL продлевает срок жизни уже закэшированного токена.
func (t *TokenCacheRepo) RefreshTTL(ctx context.Context, userID int64) error {
	if err := t.client.Client.Expire(ctx, tokenKey(userID), t.cfg.TokenTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func tokenKey(userID int64) string {
	return fmt.Sprintf("token:%d", userID)
}

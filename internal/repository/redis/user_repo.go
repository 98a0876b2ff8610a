package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bodhirag/catalog-backend/internal/domain"
	"github.com/bodhirag/catalog-backend/pkg/clients"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// UserRepo хранит пользователей в Redis-хэшах.
// Основная запись живёт под user:id:{id}, вторичные индексы
// user:email:{email} и user:passid:{passid} указывают на ID.
// Счётчик user:seq выдаёт монотонные идентификаторы.
type UserRepo struct {
	client *clients.RedisClient
}

func NewUserRepo(client *clients.RedisClient) *UserRepo {
	return &UserRepo{client: client}
}

// Create сохраняет пользователя и оба индекса атомарно через пайплайн.
func (u *UserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	id, err := u.client.Client.Incr(ctx, "user:seq").Result()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	user.ID = id

	pipeline := u.client.Client.TxPipeline()
	pipeline.HSet(ctx, userKey(id), map[string]any{
		"id":              user.ID,
		"email":           user.Email,
		"name":            user.Name,
		"hashed_password": user.HashedPassword,
		"passid":          user.PassID,
	})
	pipeline.Set(ctx, emailKey(user.Email), id, 0)
	pipeline.Set(ctx, passIDKey(user.PassID), id, 0)

	if _, err := pipeline.Exec(ctx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return user, nil
}

// GetByEmail возвращает пользователя по email через вторичный индекс.
func (u *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return u.getByIndex(ctx, emailKey(email))
}

// GetByPassID возвращает пользователя по passid через вторичный индекс.
func (u *UserRepo) GetByPassID(ctx context.Context, passID string) (*domain.User, error) {
	return u.getByIndex(ctx, passIDKey(passID))
}

func (u *UserRepo) getByIndex(ctx context.Context, indexKey string) (*domain.User, error) {
	raw, err := u.client.Client.Get(ctx, indexKey).Result()
	if err != nil {
		if err == r.Nil {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrUserNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return u.getByID(ctx, id)
}

func (u *UserRepo) getByID(ctx context.Context, id int64) (*domain.User, error) {
	fields, err := u.client.Client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if len(fields) == 0 {
		// висячий индекс без основной записи
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrUserNotFound)
	}

	return &domain.User{
		ID:             id,
		Email:          fields["email"],
		Name:           fields["name"],
		HashedPassword: fields["hashed_password"],
		PassID:         fields["passid"],
	}, nil
}

func userKey(id int64) string {
	return fmt.Sprintf("user:id:%d", id)
}

func emailKey(email string) string {
	return "user:email:" + email
}

func passIDKey(passID string) string {
	return "user:passid:" + passID
}

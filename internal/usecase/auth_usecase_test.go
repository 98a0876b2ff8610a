package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/bodhirag/catalog-backend/internal/cfg"
	"github.com/bodhirag/catalog-backend/internal/domain"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/bodhirag/catalog-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	byEmail  map[string]*domain.User
	byPassID map[string]*domain.User
	nextID   int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail:  map[string]*domain.User{},
		byPassID: map[string]*domain.User{},
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	f.nextID++
	user.ID = f.nextID
	f.byEmail[user.Email] = user
	f.byPassID[user.PassID] = user
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, e.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByPassID(_ context.Context, passID string) (*domain.User, error) {
	user, ok := f.byPassID[passID]
	if !ok {
		return nil, e.ErrUserNotFound
	}
	return user, nil
}

type fakeTokenCache struct {
	tokens    map[int64]string
	refreshes int
}

func newFakeTokenCache() *fakeTokenCache {
	return &fakeTokenCache{tokens: map[int64]string{}}
}

func (f *fakeTokenCache) Get(_ context.Context, userID int64) (string, error) {
	return f.tokens[userID], nil
}

func (f *fakeTokenCache) Set(_ context.Context, userID int64, token string) error {
	f.tokens[userID] = token
	return nil
}

func (f *fakeTokenCache) RefreshTTL(_ context.Context, _ int64) error {
	f.refreshes++
	return nil
}

type fakeEmail struct{ sent int }

func (f *fakeEmail) SendWelcome(_ context.Context, _ string, _ string, _ string) error {
	f.sent++
	return nil
}

func newTestAuthUC() (*AuthUseCase, *fakeUserRepo, *fakeTokenCache, *fakeEmail) {
	users := newFakeUserRepo()
	cache := newFakeTokenCache()
	email := &fakeEmail{}
	uc := NewAuthUC(users, cache, email, &cfg.AuthCfg{
		SecretKey:       "test-secret",
		TokenExpireTime: time.Hour,
	}, logger.NewSlogLogger())
	return uc, users, cache, email
}

func TestRegisterIssuesPassID(t *testing.T) {
	uc, users, _, email := newTestAuthUC()

	res, err := uc.Register(context.Background(), &RegisterReq{
		Email:    "Weaver@Example.com",
		Name:     "Weaver",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.Len(t, res.PassID, passIDLength)
	assert.Equal(t, 1, email.sent)

	// email нормализуется к нижнему регистру
	user, err := users.GetByEmail(context.Background(), "weaver@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", user.HashedPassword, "password must be stored hashed")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	uc, _, _, _ := newTestAuthUC()

	req := &RegisterReq{Email: "weaver@example.com", Password: "secret123"}
	_, err := uc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = uc.Register(context.Background(), req)
	assert.ErrorIs(t, err, e.ErrUserExists)
}

func TestLoginByEmailAndPassID(t *testing.T) {
	uc, _, _, _ := newTestAuthUC()

	res, err := uc.Register(context.Background(), &RegisterReq{
		Email:    "weaver@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	byEmail, err := uc.Login(context.Background(), &LoginReq{Email: "weaver@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", byEmail.TokenType)

	byPassID, err := uc.Login(context.Background(), &LoginReq{PassID: res.PassID, Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, byPassID.AccessToken)
}

func TestLoginInvalidCredentials(t *testing.T) {
	uc, _, _, _ := newTestAuthUC()

	_, err := uc.Register(context.Background(), &RegisterReq{
		Email:    "weaver@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = uc.Login(context.Background(), &LoginReq{Email: "weaver@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, e.ErrInvalidCredentials)

	_, err = uc.Login(context.Background(), &LoginReq{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, e.ErrInvalidCredentials, "unknown user and wrong password must be indistinguishable")
}

func TestLoginReusesCachedToken(t *testing.T) {
	uc, _, cache, _ := newTestAuthUC()

	_, err := uc.Register(context.Background(), &RegisterReq{
		Email:    "weaver@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	creds := &LoginReq{Email: "weaver@example.com", Password: "secret123"}
	first, err := uc.Login(context.Background(), creds)
	require.NoError(t, err)

	second, err := uc.Login(context.Background(), creds)
	require.NoError(t, err)

	assert.Equal(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, 1, cache.refreshes, "repeat login must refresh the cached token TTL")
}

func TestVerifyToken(t *testing.T) {
	uc, _, _, _ := newTestAuthUC()

	_, err := uc.Register(context.Background(), &RegisterReq{
		Email:    "weaver@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	res, err := uc.Login(context.Background(), &LoginReq{Email: "weaver@example.com", Password: "secret123"})
	require.NoError(t, err)

	claims, err := uc.VerifyToken(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "weaver@example.com", claims["sub"])

	_, err = uc.VerifyToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, e.ErrUnauthorized)
}

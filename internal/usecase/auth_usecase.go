package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/bodhirag/catalog-backend/internal/cfg"
	"github.com/bodhirag/catalog-backend/internal/domain"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/bodhirag/catalog-backend/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const passIDLength = 10

// AuthUseCase отвечает за регистрацию, вход и проверку access-токенов.
// Токены подписываются HS256 и кэшируются с TTL: повторный вход в пределах
// TTL возвращает уже выданный токен, продлевая срок его жизни в кэше.
type AuthUseCase struct {
	userRepo   UserRepository
	tokenCache TokenCacheRepository
	email      EmailInfra
	cfg        *cfg.AuthCfg
	logger     logger.Logger
}

func NewAuthUC(
	userRepo UserRepository,
	tokenCache TokenCacheRepository,
	email EmailInfra,
	cfg *cfg.AuthCfg,
	logger logger.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:   userRepo,
		tokenCache: tokenCache,
		email:      email,
		cfg:        cfg,
		logger:     logger,
	}
}

// Register создаёт пользователя и возвращает его passid — короткий
// идентификатор для входа без email. Приветственное письмо отправляется
// best-effort и на результат регистрации не влияет.
func (a *AuthUseCase) Register(ctx context.Context, req *RegisterReq) (*RegisterRes, error) {
	const op = "AuthUseCase.Register"

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, e.Wrap(op, e.ErrMissingFields)
	}

	if _, err := a.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, e.Wrap(op, e.ErrUserExists)
	} else if !errors.Is(err, e.ErrUserNotFound) {
		return nil, e.Wrap(op, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	passID, err := generatePassID()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	user := domain.NewUser(email, strings.TrimSpace(req.Name), string(hashed), passID)

	created, err := a.userRepo.Create(ctx, user)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := a.email.SendWelcome(ctx, created.Email, created.Name, created.PassID); err != nil {
		a.logger.Warnf("%s: welcome email to %s failed: %v", op, created.Email, err)
	}

	return &RegisterRes{PassID: created.PassID}, nil
}

// Login аутентифицирует по email либо passid и возвращает bearer-токен.
// Неверный логин и неверный пароль неразличимы для вызывающего.
func (a *AuthUseCase) Login(ctx context.Context, req *LoginReq) (*TokenRes, error) {
	const op = "AuthUseCase.Login"

	user, err := a.lookupUser(ctx, req)
	if err != nil {
		if errors.Is(err, e.ErrUserNotFound) {
			return nil, e.Wrap(op, e.ErrInvalidCredentials)
		}
		return nil, e.Wrap(op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, e.Wrap(op, e.ErrInvalidCredentials)
	}

	// Действующий токен из кэша переиспользуется с продлением TTL
	if cached, err := a.tokenCache.Get(ctx, user.ID); err == nil && cached != "" {
		if _, err := a.parseToken(cached); err == nil {
			if err := a.tokenCache.RefreshTTL(ctx, user.ID); err != nil {
				a.logger.Warnf("%s: token TTL refresh failed for user %d: %v", op, user.ID, err)
			}
			return &TokenRes{AccessToken: cached, TokenType: "bearer"}, nil
		}
	}

	token, err := a.issueToken(user)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := a.tokenCache.Set(ctx, user.ID, token); err != nil {
		a.logger.Warnf("%s: token caching failed for user %d: %v", op, user.ID, err)
	}

	return &TokenRes{AccessToken: token, TokenType: "bearer"}, nil
}

// VerifyToken проверяет подпись и срок действия токена и возвращает claims.
func (a *AuthUseCase) VerifyToken(ctx context.Context, token string) (jwt.MapClaims, error) {
	const op = "AuthUseCase.VerifyToken"

	claims, err := a.parseToken(token)
	if err != nil {
		return nil, e.Wrap(op, e.ErrUnauthorized)
	}

	return claims, nil
}

func (a *AuthUseCase) lookupUser(ctx context.Context, req *LoginReq) (*domain.User, error) {
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		return a.userRepo.GetByEmail(ctx, email)
	}
	if passID := strings.ToUpper(strings.TrimSpace(req.PassID)); passID != "" {
		return a.userRepo.GetByPassID(ctx, passID)
	}

	return nil, e.ErrUserNotFound
}

func (a *AuthUseCase) issueToken(user *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":    user.Email,
		"passid": user.PassID,
		"iat":    now.Unix(),
		"exp":    now.Add(a.cfg.TokenExpireTime).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.SecretKey))
}

func (a *AuthUseCase) parseToken(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, e.ErrUnauthorized
		}
		return []byte(a.cfg.SecretKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, e.ErrUnauthorized
	}

	return claims, nil
}

// generatePassID генерирует passid: 10 символов из A-Z и 0-9.
func generatePassID() (string, error) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	buf := make([]byte, passIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}

	return string(buf), nil
}

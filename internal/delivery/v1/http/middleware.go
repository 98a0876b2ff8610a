package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/bodhirag/catalog-backend/internal/usecase"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// ClaimsContextKey — ключ, под которым claims токена лежат в контексте запроса.
const ClaimsContextKey contextKey = "auth_claims"

// AuthMiddleware проверяет bearer-токен и кладёт его claims в контекст.
// Запросы без валидного токена завершаются 401 до обработчика.
func AuthMiddleware(authUsecase usecase.AuthUC) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				WriteError(w, e.ErrUnauthorized)
				return
			}

			claims, err := authUsecase.VerifyToken(r.Context(), token)
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext достаёт claims, положенные AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(jwt.MapClaims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}

	return token, true
}

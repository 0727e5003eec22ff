package middleware

import (
	"context"
	"net/http"

	"github.com/cantetik/hepsiemlak-todo-case/internal/api/response"
	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
)

type contextKey string

const (
	UsernameKey    contextKey = "username"
	AccessTokenKey contextKey = "accessToken"
)

// Authenticator fully validates the bearer credential of a request.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*domain.User, string, error)
}

// Auth rejects requests without a currently valid access token and stores
// the token's subject and raw value in the request context.
func Auth(authenticator Authenticator, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, token, err := authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if domain.IsUnauthorized(err) {
					log.Debug(r.Context(), "request rejected", "path", r.URL.Path, "reason", err.Error())
				}
				response.Error(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), UsernameKey, user.Username)
			ctx = context.WithValue(ctx, AccessTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

func GetAccessToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(AccessTokenKey).(string)
	return token, ok
}

package auth

import (
	"context"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"

	"tradesync/src/apperr"
	"tradesync/src/model"
)

type sessionLookup interface {
	FindBySessionToken(ctx context.Context, token string) (*model.User, error)
}

// SessionMiddleware resolves the bearer session token into the request user.
// Requests without a valid session get 401 before reaching the handler.
func SessionMiddleware(users sessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "missing session token"))
				return
			}

			user, err := users.FindBySessionToken(r.Context(), token)
			if err != nil {
				logger.WithError(err).Error("session lookup failed")
				apperr.WriteJSON(w, apperr.Wrap(apperr.KindUnexpected, "session lookup failed", err))
				return
			}
			if user == nil {
				apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "invalid session token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	// Websocket clients cannot set headers from the browser; allow the token
	// as a query parameter on upgrade requests only.
	return r.URL.Query().Get("session")
}

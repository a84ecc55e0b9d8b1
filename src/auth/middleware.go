package auth

import (
	"context"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const ReporterKey contextKey = "reporter"

// Authenticated reports whether the request passed token verification.
func Authenticated(ctx context.Context) bool {
	ok, _ := ctx.Value(ReporterKey).(bool)
	return ok
}

// RequireToken verifies the Authorization bearer token against the
// configured bcrypt hash. An empty hash disables the check.
func RequireToken(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ReporterKey, true)))
				return
			}

			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header {
				logger.Warn("missing bearer token on authenticated route")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
				logger.Warn("rejected invalid API token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ReporterKey, true)))
		})
	}
}

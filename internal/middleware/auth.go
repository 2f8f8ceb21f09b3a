package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"event-management-api/internal/auth"
)

type ctxKey string

const UserIDKey ctxKey = "uid"

// UserID returns the id bound by Auth; empty when the request was not
// authenticated.
func UserID(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, UserIDKey, uid)
}

// Auth rejects requests without a bearer token (401) or with one that fails
// signature or expiry checks (403).
func Auth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				deny(w, http.StatusUnauthorized, "Token required")
				return
			}

			claims, err := tokens.Parse(raw)
			if errors.Is(err, auth.ErrMissingToken) {
				deny(w, http.StatusUnauthorized, "Token required")
				return
			}
			if err != nil {
				LoggerFromContext(r.Context()).Debug().Err(err).Msg("token rejected")
				deny(w, http.StatusForbidden, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

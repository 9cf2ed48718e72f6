package httpapi

import (
	"context"
	"net/http"
	"strings"

	"sfcars-engine/internal/auth"
)

func UserIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func withUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// requireAuth wraps a handler with bearer-token verification. The caller's
// user id lands in the request context.
func requireAuth(secret []byte, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		const prefix = "Bearer "
		if !strings.HasPrefix(raw, prefix) {
			WriteError(w, r, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		userID, err := auth.ParseToken(secret, strings.TrimSpace(raw[len(prefix):]))
		if err != nil {
			WriteError(w, r, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		next(w, r.WithContext(withUserID(r.Context(), userID)))
	}
}

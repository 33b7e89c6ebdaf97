package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/payland/gateway/internal/auth"
	"github.com/payland/gateway/internal/model"
	"github.com/payland/gateway/internal/session"
)

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	sessionKey   contextKey = "session"
)

// AuthMiddleware verifies the signed session cookie, loads the session record
// (durable area first), and attaches both to the request context. Requests
// without a valid session get 401 and must redirect to login.
func AuthMiddleware(cookies *auth.CookieService, sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				respondWithError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			sessionID, err := cookies.Verify(cookie.Value)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			rec, err := sessions.Load(r.Context(), sessionID)
			if err != nil {
				if errors.Is(err, session.ErrNoSession) {
					respondWithError(w, http.StatusUnauthorized, "not authenticated")
					return
				}
				respondWithError(w, http.StatusInternalServerError, "session lookup failed")
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
			ctx = context.WithValue(ctx, sessionKey, rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the session record attached by AuthMiddleware.
func GetSession(ctx context.Context) (model.SessionRecord, bool) {
	rec, ok := ctx.Value(sessionKey).(model.SessionRecord)
	return rec, ok
}

// GetSessionID returns the session ID attached by AuthMiddleware.
func GetSessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]string{"error": message}
	_ = json.NewEncoder(w).Encode(response)
}

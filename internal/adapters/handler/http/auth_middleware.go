package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
)

type contextKey string

// UserIDKey holds the verified signer identity in the request context.
const UserIDKey contextKey = "user_id"

const accessTokenCookie = "access_token"

// AuthMiddleware rejects requests that do not carry a valid access token,
// either as a Bearer header or the access_token cookie.
func AuthMiddleware(auth ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "MissingIdentity", "missing access token")
				return
			}

			userID, err := auth.Verify(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "MissingIdentity", "invalid access token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func callerID(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}

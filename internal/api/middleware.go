package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/lixiang810/HV-Com/internal/auth"
	"github.com/lixiang810/HV-Com/internal/database"
)

type contextKey string

const userContextKey = contextKey("user")

// AuthMiddleware verifies the bearer token and then re-checks it against the
// durable revocation clock. The extra read per request is deliberate: a
// revoked token must fail on the very next attempt, so there is no cached
// state between the token and the users table.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		tokenString := headerParts[1]

		claims, err := auth.VerifyJWT(tokenString, s.config.JWT.Secret)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		user, err := s.store.GetCredentials(r.Context(), database.UserSelector{ID: claims.UserID})
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if user == nil || claims.IssuedAt == nil || auth.Revoked(claims.IssuedAt.Unix(), user.LastRevokeTime) {
			http.Error(w, "Token has been revoked", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserFromContext(ctx context.Context) *auth.AppClaims {
	if claims, ok := ctx.Value(userContextKey).(*auth.AppClaims); ok {
		return claims
	}
	return nil
}

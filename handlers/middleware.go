package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lumenphotos/photosharebackend/models"
	"github.com/lumenphotos/photosharebackend/repository"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// UserContextKey is the key used to store the owner user in the request context.
	UserContextKey ContextKey = "user"
)

// OwnerFromContext returns the authenticated owner placed by AuthMiddleware.
func OwnerFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

// AuthMiddleware verifies the owner's bearer token and, if valid, fetches the
// user and adds them to the request context.
func AuthMiddleware(userRepo repository.UserRepositoryInterface, signingSecret string, next http.Handler) http.Handler {
	secret := []byte(signingSecret)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authorization header format must be Bearer {token}")
			return
		}
		tokenString := parts[1]

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
			return
		}

		var userID uint
		if _, err := fmt.Sscan(claims.Subject, &userID); err != nil {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid user ID in token")
			return
		}

		user, err := userRepo.GetByID(userID)
		if err != nil {
			// the user may have been deleted after the token was issued
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "User not found")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

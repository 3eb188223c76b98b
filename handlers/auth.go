package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lumenphotos/photosharebackend/models"
	"github.com/lumenphotos/photosharebackend/repository"
)

const ownerTokenLifetime = 24 * time.Hour

// AuthHandler issues owner JWTs for the management API.
type AuthHandler struct {
	UserRepo      repository.UserRepositoryInterface
	SigningSecret []byte
}

func NewAuthHandler(userRepo repository.UserRepositoryInterface, signingSecret string) *AuthHandler {
	return &AuthHandler{UserRepo: userRepo, SigningSecret: []byte(signingSecret)}
}

type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Login verifies owner credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid request payload")
		return
	}

	user, err := h.UserRepo.GetByUsername(payload.Username)
	if err != nil {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid username or password")
		return
	}

	if !user.CheckPassword(payload.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid username or password")
		return
	}

	expirationTime := time.Now().Add(ownerTokenLifetime)
	claims := &jwt.RegisteredClaims{
		Subject:   fmt.Sprint(user.ID),
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "photosharebackend",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.SigningSecret)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to generate token")
		return
	}

	userForResponse := *user
	userForResponse.PasswordHash = ""

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tokenString,
		User:      userForResponse,
		ExpiresAt: expirationTime,
	})
}

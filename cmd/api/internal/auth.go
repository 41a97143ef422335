package internal

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "tokensentry-api"

type JWTManager struct {
	secretKey string
}

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// NewJWTManager refuses an empty secret; the server generates one at startup
// when none is configured.
func NewJWTManager(secretKey string) (*JWTManager, error) {
	if secretKey == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &JWTManager{secretKey: secretKey}, nil
}

func (jm *JWTManager) GenerateToken(userID string, expirationHours int) (string, error) {
	expirationTime := time.Now().Add(time.Duration(expirationHours) * time.Hour)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(jm.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (jm *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jm.secretKey), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

type tokenRequest struct {
	AdminKey string `json:"admin_key"`
	UserID   string `json:"user_id"`
}

// HandleGenerateToken trades the configured admin key for a bearer token.
func (api *API) HandleGenerateToken(w http.ResponseWriter, r *http.Request) {
	if api.AdminKey == "" {
		WriteError(w, http.StatusServiceUnavailable, "Token issuing disabled: ADMIN_API_KEY not set")
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.AdminKey), []byte(api.AdminKey)) != 1 {
		WriteError(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}
	if req.UserID == "" {
		req.UserID = "admin"
	}

	hours := api.TokenHours
	if hours <= 0 {
		hours = 24
	}
	token, err := api.JWTManager.GenerateToken(req.UserID, hours)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_in": hours * 3600,
	})
}

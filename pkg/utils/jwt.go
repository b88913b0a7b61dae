package utils

import (
	"os"
	"time"

	"github.com/fleetline/fleetline-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claim names the auth middleware reads back out of a validated token.
const (
	ClaimUserID   = "id"
	ClaimEmail    = "email"
	ClaimUserType = "userType"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 7 * 24 * time.Hour

func GenerateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		ClaimUserID:   user.ID,
		ClaimEmail:    user.Email,
		ClaimUserType: user.UserType,
		"exp":         time.Now().Add(TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
}

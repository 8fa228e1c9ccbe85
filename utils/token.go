package authUtils

import (
	"errors"
	"fmt"
	"time"

	"citysnap-be/models"

	"github.com/dgrijalva/jwt-go"
)

// TokenTTL is how long a minted token stays valid.
const TokenTTL = 72 * time.Hour

var ErrInvalidClaims = errors.New("invalid token claims")

// Claims is the identity a token carries.
type Claims struct {
	UserID int64
	Role   models.Role
}

// GenerateToken signs an HS256 token for a user and role.
func GenerateToken(userID int64, role models.Role, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT secret is not set")
	}
	if !role.Valid() {
		return "", fmt.Errorf("cannot sign token: %q is not a valid role", role)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(TokenTTL).Unix(),
	})

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString and extracts its claims.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	// numeric claims decode as float64
	rawID, ok := claims["user_id"].(float64)
	if !ok || rawID <= 0 || rawID != float64(int64(rawID)) {
		return nil, ErrInvalidClaims
	}
	rawRole, _ := claims["role"].(string)
	role, err := models.ParseRole(rawRole)
	if err != nil {
		return nil, ErrInvalidClaims
	}
	return &Claims{UserID: int64(rawID), Role: role}, nil
}

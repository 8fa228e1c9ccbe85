package authUtils

import (
	"testing"
	"time"

	"citysnap-be/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateAndParse(t *testing.T) {
	tok, err := GenerateToken(42, models.Officer, secret)
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, models.Officer, claims.Role)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := GenerateToken(1, models.Citizen, secret)
	require.NoError(t, err)

	_, err = ParseToken(tok, "other")
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"role":    "citizen",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = ParseToken(s, secret)
	assert.Error(t, err)
}

func TestParseRejectsBadClaims(t *testing.T) {
	cases := map[string]jwt.MapClaims{
		"missing role":  {"user_id": 1},
		"unknown role":  {"user_id": 1, "role": "mayor"},
		"string id":     {"user_id": "1", "role": "citizen"},
		"fractional id": {"user_id": 1.5, "role": "citizen"},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
			require.NoError(t, err)

			_, err = ParseToken(s, secret)
			assert.ErrorIs(t, err, ErrInvalidClaims)
		})
	}
}

func TestGenerateRequiresSecretAndRole(t *testing.T) {
	_, err := GenerateToken(1, models.Citizen, "")
	assert.Error(t, err)

	_, err = GenerateToken(1, models.Role("mayor"), secret)
	assert.Error(t, err)
}

package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tastebase/tastebase/internal/models"
)

// UserClaims carries the authenticated identity inside API tokens.
type UserClaims struct {
	UserID  uint64 `json:"uid"` // Authenticated user ID.
	IsAdmin bool   `json:"adm"` // Whether the user holds admin rights.
	jwt.RegisteredClaims
}

// GenerateUserToken issues a signed HS256 token for the given user.
func GenerateUserToken(secret string, user *models.User, expiry time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("security: empty jwt secret")
	}
	if user == nil {
		return "", fmt.Errorf("security: nil user")
	}
	if expiry <= 0 {
		return "", fmt.Errorf("security: non-positive expiry")
	}

	now := time.Now().UTC()
	claims := UserClaims{
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// ParseUserToken validates a signed token and returns its claims.
func ParseUserToken(secret, tokenString string) (*UserClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("security: empty jwt secret")
	}

	claims := &UserClaims{}
	token, errParse := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("security: unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if errParse != nil {
		return nil, fmt.Errorf("security: parse token: %w", errParse)
	}
	if !token.Valid {
		return nil, fmt.Errorf("security: invalid token")
	}
	return claims, nil
}

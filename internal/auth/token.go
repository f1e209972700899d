package auth

import (
	"errors"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rookgm/cardpay/internal/models"
	"time"
)

// TokenTTL is lifetime of admin session token
const TokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
	AdminID  string `json:"admin_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AuthToken signs and verifies admin session tokens
type AuthToken struct {
	key []byte
	now func() time.Time
}

// NewAuthToken creates new AuthToken instance
func NewAuthToken(key []byte) *AuthToken {
	return &AuthToken{key: key, now: time.Now}
}

// CreateToken creates signed token for admin
func (at *AuthToken) CreateToken(admin *models.Admin) (string, error) {
	now := at.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		AdminID:  admin.ID,
		Username: admin.Username,
		Role:     admin.Role,
	})

	return token.SignedString(at.key)
}

// VerifyToken checks token and returns its payload
func (at *AuthToken) VerifyToken(tokenString string) (*models.TokenPayload, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return at.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &models.TokenPayload{
		AdminID:  c.AdminID,
		Username: c.Username,
		Role:     c.Role,
	}, nil
}

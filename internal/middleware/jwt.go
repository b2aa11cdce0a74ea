package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"agentdesk/internal/models"
)

var errInvalidToken = errors.New("invalid or expired token")

// TokenIssuer signs and checks the bearer tokens handed out at login for
// clients that cannot keep a session cookie.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) GenerateToken(u *models.User) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"role":    string(u.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken returns the user id a token was issued to.
func (t *TokenIssuer) ValidateToken(tokenStr string) (uint, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errInvalidToken
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, errInvalidToken
	}
	return uint(id), nil
}

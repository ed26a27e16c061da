package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT payload. ID (jti) carries the session id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates admin bearer tokens.
type TokenService struct {
	issuer string
	key    []byte
}

// NewTokenService creates a HS256 token service.
func NewTokenService(issuer, key string) *TokenService {
	return &TokenService{issuer: issuer, key: []byte(key)}
}

// Issue signs a token for s that expires with the session.
func (t *TokenService) Issue(s Session) (string, error) {
	claims := Claims{
		Role: s.User.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Issuer:    t.issuer,
			Subject:   s.User.ID,
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
}

// Parse validates a token and returns claims.
func (t *TokenService) Parse(tokenStr string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return t.key, nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if t.issuer != "" && claims.Issuer != t.issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	if claims.ID == "" {
		return Claims{}, errors.New("token has no session")
	}
	return *claims, nil
}

package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidUpstreamToken = errors.New("invalid upstream token")

// UpstreamClaims - то, что BFF читает из access токена StayMate API.
type UpstreamClaims struct {
	Subject   string
	UserID    int64
	Roles     []string
	ExpiresAt time.Time
}

// TokenReader читает клеймы upstream токенов.
// Если секрет задан, подпись проверяется; иначе токен только декодируется,
// а доверие обеспечивается тем, что он получен напрямую от upstream.
type TokenReader struct {
	secret []byte
}

func NewTokenReader(secret string) *TokenReader {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &TokenReader{secret: key}
}

// Read извлекает sub, userId, роли и exp из access токена.
func (r *TokenReader) Read(token string) (*UpstreamClaims, error) {
	claims := jwt.MapClaims{}
	if r.secret != nil {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidUpstreamToken
			}
			return r.secret, nil
		})
		if err != nil || !parsed.Valid {
			return nil, fmt.Errorf("%w: %v", ErrInvalidUpstreamToken, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidUpstreamToken, err)
		}
	}

	out := &UpstreamClaims{}
	out.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	switch v := claims["userId"].(type) {
	case float64:
		out.UserID = int64(v)
	}
	switch v := claims["roles"].(type) {
	case []interface{}:
		for _, role := range v {
			if s, ok := role.(string); ok {
				out.Roles = append(out.Roles, s)
			}
		}
	case string:
		out.Roles = []string{v}
	}
	if role, ok := claims["role"].(string); ok && len(out.Roles) == 0 {
		out.Roles = []string{role}
	}
	return out, nil
}

// ExpiresAt возвращает exp токена или нулевое время, если его не удалось прочитать.
func (r *TokenReader) ExpiresAt(token string) time.Time {
	claims, err := r.Read(token)
	if err != nil {
		return time.Time{}
	}
	return claims.ExpiresAt
}

package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

// Context ключи для gin.Context.
const (
	ContextSessionKey = "session"
)

// Откуда читается идентификатор сессии.
const (
	SessionCookie = "staymate_session"
	SessionHeader = "X-Session-ID"
)

// SessionAuthenticator находит сессию по идентификатору.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, id uuid.UUID) (*entity.Session, error)
}

// SessionAuth проверяет сессию BFF из cookie или заголовка X-Session-ID.
func SessionAuth(sessions SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := SessionIDFromRequest(c)
		if raw == "" {
			abortWithError(c, apperror.ErrUnauthorized)
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			abortWithError(c, apperror.ErrSessionNotFound)
			return
		}

		sess, err := sessions.Authenticate(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(ContextSessionKey, sess)
		c.Next()
	}
}

// SessionIDFromRequest достаёт идентификатор сессии: заголовок, затем cookie.
func SessionIDFromRequest(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(SessionHeader)); v != "" {
		return v
	}
	if v, err := c.Cookie(SessionCookie); err == nil {
		return v
	}
	return ""
}

// CurrentSession возвращает сессию, установленную SessionAuth.
func CurrentSession(c *gin.Context) (*entity.Session, error) {
	raw, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, apperror.ErrUnauthorized
	}
	sess, ok := raw.(*entity.Session)
	if !ok || sess == nil {
		return nil, apperror.ErrUnauthorized
	}
	return sess, nil
}

package entity

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

// Session - вход пользователя в BFF. Хранит upstream токены
// и передаётся в клиент upstream явно, без глобального хранилища.
type Session struct {
	ID        uuid.UUID
	UserID    int64
	Email     string
	Roles     []string
	CreatedAt time.Time
	ExpiresAt time.Time

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	accessExp    time.Time
}

func NewSession(userID int64, email string, roles []string, tokens AuthTokens, accessExp time.Time, ttl time.Duration) (*Session, error) {
	if tokens.AccessToken == "" {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "upstream не вернул access token")
	}
	now := time.Now()
	return &Session{
		ID:           uuid.New(),
		UserID:       userID,
		Email:        email,
		Roles:        roles,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		accessToken:  tokens.AccessToken,
		refreshToken: tokens.RefreshToken,
		accessExp:    accessExp,
	}, nil
}

// RestoreSession собирает сессию из хранилища.
func RestoreSession(id uuid.UUID, userID int64, email string, roles []string, access, refresh string, accessExp, createdAt, expiresAt time.Time) *Session {
	return &Session{
		ID:           id,
		UserID:       userID,
		Email:        email,
		Roles:        roles,
		CreatedAt:    createdAt,
		ExpiresAt:    expiresAt,
		accessToken:  access,
		refreshToken: refresh,
		accessExp:    accessExp,
	}
}

func (s *Session) Tokens() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

func (s *Session) AccessExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessExp
}

// Rotate сохраняет новую пару токенов после refresh.
func (s *Session) Rotate(access, refresh string, accessExp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	if refresh != "" {
		s.refreshToken = refresh
	}
	s.accessExp = accessExp
}

func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *Session) HasRole(role string) bool {
	return slices.Contains(s.Roles, role)
}

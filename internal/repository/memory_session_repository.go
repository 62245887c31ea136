package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

// MemorySessionRepository - хранилище сессий без базы (локальная разработка, тесты).
// Сессии теряются при перезапуске.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entity.Session
	clock    clockwork.Clock
}

func NewMemorySessionRepository(clock clockwork.Clock) *MemorySessionRepository {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemorySessionRepository{
		sessions: make(map[uuid.UUID]*entity.Session),
		clock:    clock,
	}
}

func (r *MemorySessionRepository) Create(_ context.Context, s *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *MemorySessionRepository) UpdateTokens(_ context.Context, s *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return apperror.ErrSessionNotFound
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *MemorySessionRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}
	return s, nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepository) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := r.now()
	for id, s := range r.sessions {
		if s.IsExpired(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *MemorySessionRepository) now() time.Time {
	return r.clock.Now()
}

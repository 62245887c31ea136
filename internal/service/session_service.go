package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/domain/repository"
	"github.com/staymate/staymate-bff/internal/logger"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
	"github.com/staymate/staymate-bff/internal/upstream"
	"github.com/staymate/staymate-bff/internal/validation"
)

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult - созданная сессия и профиль пользователя.
type LoginResult struct {
	Session *entity.Session
	User    entity.User
}

// SessionService управляет сессиями BFF: вход через StayMate API,
// хранение upstream токенов и их обновление.
type SessionService struct {
	api    *upstream.API
	repo   repository.SessionRepository
	tokens *TokenReader
	clock  clockwork.Clock
	ttl    time.Duration

	// Живые сессии. Страницы держат указатель на сессию,
	// поэтому обновлённые токены должны попадать в тот же объект.
	mu    sync.RWMutex
	cache map[uuid.UUID]*entity.Session
}

// NewSessionService создаёт сервис сессий.
func NewSessionService(api *upstream.API, repo repository.SessionRepository, tokens *TokenReader, clock clockwork.Clock, ttl time.Duration) *SessionService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionService{
		api:    api,
		repo:   repo,
		tokens: tokens,
		clock:  clock,
		ttl:    ttl,
		cache:  make(map[uuid.UUID]*entity.Session),
	}
}

// Login выполняет вход через upstream и создаёт сессию BFF.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateNonEmpty("пароль", in.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	tokens, err := s.api.Login(ctx, email, in.Password)
	if err != nil {
		if apperror.IsUnauthorized(err) || apperror.IsValidation(err) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	claims, err := s.tokens.Read(tokens.AccessToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "upstream вернул некорректный токен")
	}

	user := entity.User{Email: email}
	if tokens.User != nil {
		user = *tokens.User
	}
	userID := claims.UserID
	if userID == 0 {
		userID = user.ID
	}
	roles := claims.Roles
	if len(roles) == 0 {
		roles = user.Roles
	}
	user.ID = userID
	user.Roles = roles

	sess, err := entity.NewSession(userID, email, roles, tokens, claims.ExpiresAt, s.ttl)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("session service: %w", err)
	}
	s.remember(sess)

	logger.Log.WithFields(logrus.Fields{
		"session": sess.ID,
		"user_id": userID,
	}).Info("session service: вход выполнен")

	return &LoginResult{Session: sess, User: user}, nil
}

// Authenticate находит живую сессию по идентификатору.
func (s *SessionService) Authenticate(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	s.mu.RLock()
	sess, ok := s.cache[id]
	s.mu.RUnlock()

	if !ok {
		var err error
		sess, err = s.repo.FindByID(ctx, id)
		if err != nil {
			if apperror.IsUnauthorized(err) {
				return nil, err
			}
			return nil, fmt.Errorf("session service: %w", err)
		}
		sess = s.remember(sess)
	}

	if sess.IsExpired(s.clock.Now()) {
		s.forget(id)
		if err := s.repo.Delete(ctx, id); err != nil {
			logger.Log.WithError(err).Warn("session service: не удалось удалить истёкшую сессию")
		}
		return nil, apperror.ErrSessionNotFound
	}
	return sess, nil
}

// Me возвращает профиль пользователя сессии из upstream.
func (s *SessionService) Me(ctx context.Context, sess *entity.Session) (entity.User, error) {
	return s.api.Me(ctx, sess)
}

// Logout завершает сессию в upstream и удаляет её у себя.
// Ошибка upstream не мешает выходу.
func (s *SessionService) Logout(ctx context.Context, sess *entity.Session) error {
	if err := s.api.Logout(ctx, sess); err != nil {
		logger.Log.WithError(err).WithField("session", sess.ID).Warn("session service: upstream logout не удался")
	}
	s.forget(sess.ID)
	s.api.Client().Forget(sess.ID)
	return s.repo.Delete(ctx, sess.ID)
}

// Expire удаляет сессию, от которой отказался upstream.
func (s *SessionService) Expire(ctx context.Context, id uuid.UUID) error {
	s.forget(id)
	s.api.Client().Forget(id)
	return s.repo.Delete(ctx, id)
}

// PersistTokens сохраняет токены после refresh. Используется как upstream.RefreshHook.
func (s *SessionService) PersistTokens(ctx context.Context, sess *entity.Session) error {
	return s.repo.UpdateTokens(ctx, sess)
}

// PurgeExpired удаляет истёкшие сессии из памяти и хранилища.
func (s *SessionService) PurgeExpired(ctx context.Context) ([]uuid.UUID, error) {
	now := s.clock.Now()
	var expired []uuid.UUID

	s.mu.Lock()
	for id, sess := range s.cache {
		if sess.IsExpired(now) {
			expired = append(expired, id)
			delete(s.cache, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.api.Client().Forget(id)
	}

	n, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return expired, err
	}
	if n > 0 {
		logger.Log.WithField("deleted", n).Info("session service: истёкшие сессии удалены")
	}
	return expired, nil
}

// remember кладёт сессию в кэш. Если сессия уже есть, возвращает существующий объект.
func (s *SessionService) remember(sess *entity.Session) *entity.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache[sess.ID]; ok {
		return existing
	}
	s.cache[sess.ID] = sess
	return sess
}

func (s *SessionService) forget(id uuid.UUID) {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
}

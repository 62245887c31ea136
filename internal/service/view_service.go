package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/logger"
	"github.com/staymate/staymate-bff/internal/metrics"
	"github.com/staymate/staymate-bff/internal/pages"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
	"github.com/staymate/staymate-bff/internal/upstream"
	"github.com/staymate/staymate-bff/internal/viewstate"
	"github.com/staymate/staymate-bff/internal/ws"
)

// ViewConfig - параметры открытых страниц.
type ViewConfig struct {
	// TTL - сколько держать страницу без обращений.
	TTL          time.Duration
	Debounce     time.Duration
	RefetchDelay time.Duration
}

// ViewEvent - полезная нагрузка события view.updated.
type ViewEvent struct {
	Page string `json:"page"`
	View any    `json:"view"`
}

type viewKey struct {
	session uuid.UUID
	page    string
}

type viewEntry struct {
	page        pages.Page
	unsubscribe func()
	lastUsed    time.Time
	navID       string
}

// ViewService держит открытые страницы каждой сессии в памяти.
// Каждое изменение страницы уходит во вкладки сессии через WebSocket.
type ViewService struct {
	registry  *pages.Registry
	api       *upstream.API
	publisher ws.Publisher
	locker    viewstate.Locker
	clock     clockwork.Clock
	cfg       ViewConfig

	mu    sync.Mutex
	views map[viewKey]*viewEntry
}

// NewViewService создаёт сервис. locker может быть nil (одна реплика без Redis).
func NewViewService(registry *pages.Registry, api *upstream.API, publisher ws.Publisher, locker viewstate.Locker, clock clockwork.Clock, cfg ViewConfig) *ViewService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	return &ViewService{
		registry:  registry,
		api:       api,
		publisher: publisher,
		locker:    locker,
		clock:     clock,
		cfg:       cfg,
		views:     make(map[viewKey]*viewEntry),
	}
}

// Pages возвращает описания страниц, доступных сессии.
func (s *ViewService) Pages(sess *entity.Session) []pages.Definition {
	return s.registry.Available(sess)
}

// Open монтирует страницу: одна загрузка на навигацию.
// navID - идентификатор навигации в браузере; повторный Open с тем же navID
// (двойной mount) не приводит ко второму запросу. Пустой navID - всегда новая навигация.
// params - фильтры из адреса (например, id карточки); применяются при новой навигации.
// Ошибка загрузки не возвращается: она отражена в состоянии страницы.
func (s *ViewService) Open(ctx context.Context, sess *entity.Session, name, navID string, params map[string]string) (any, error) {
	entry, err := s.entry(sess, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	renavigate := navID == "" || navID != entry.navID
	entry.navID = navID
	s.mu.Unlock()

	if renavigate {
		entry.page.Navigate()
		if len(params) > 0 {
			if err := entry.page.SetFilters(ctx, params); err != nil && !isLoadFailure(err) {
				return nil, err
			}
		}
	}
	if err := entry.page.EnsureLoaded(ctx); err != nil && errors.Is(err, viewstate.ErrClosed) {
		return nil, err
	}
	return entry.page.Snapshot(), nil
}

// Snapshot возвращает текущее состояние без сетевых запросов.
func (s *ViewService) Snapshot(ctx context.Context, sess *entity.Session, name string) (any, error) {
	p, err := s.loaded(ctx, sess, name)
	if err != nil {
		return nil, err
	}
	return p.Snapshot(), nil
}

// Refresh перезагружает страницу.
func (s *ViewService) Refresh(ctx context.Context, sess *entity.Session, name string) (any, error) {
	p, err := s.loaded(ctx, sess, name)
	if err != nil {
		return nil, err
	}
	if err := p.Refresh(ctx); errors.Is(err, viewstate.ErrClosed) {
		return nil, err
	}
	return p.Snapshot(), nil
}

// SetFilters применяет фильтры. Текстовые фильтры с паузой применяются позже,
// новое состояние придёт через WebSocket.
func (s *ViewService) SetFilters(ctx context.Context, sess *entity.Session, name string, values map[string]string) (any, error) {
	p, err := s.loaded(ctx, sess, name)
	if err != nil {
		return nil, err
	}
	if err := p.SetFilters(ctx, values); err != nil && apperror.IsValidation(err) {
		return nil, err
	}
	return p.Snapshot(), nil
}

func (s *ViewService) SetPage(ctx context.Context, sess *entity.Session, name string, page int) (any, error) {
	p, err := s.loaded(ctx, sess, name)
	if err != nil {
		return nil, err
	}
	if page < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "номер страницы не может быть отрицательным")
	}
	if err := p.SetPage(ctx, page); err != nil && apperror.IsValidation(err) {
		return nil, err
	}
	return p.Snapshot(), nil
}

func (s *ViewService) Toggle(ctx context.Context, sess *entity.Session, name string, id int64) (any, error) {
	p, err := s.loaded(ctx, sess, name)
	if err != nil {
		return nil, err
	}
	if err := p.Toggle(ctx, id); err != nil {
		return nil, err
	}
	return p.Snapshot(), nil
}

// Act выполняет действие над элементом. Без подтверждения возвращает
// ошибку CONFIRMATION_REQUIRED с текстом вопроса.
func (s *ViewService) Act(ctx context.Context, sess *entity.Session, name string, id int64, action string, in pages.ActionInput) (any, error) {
	p, err := s.loaded(ctx, sess, name)
	if err != nil {
		return nil, err
	}
	if err := p.Act(ctx, id, action, in); err != nil {
		return nil, err
	}
	return p.Snapshot(), nil
}

// Command выполняет команду уровня страницы (сканирование, создание диалога).
func (s *ViewService) Command(ctx context.Context, sess *entity.Session, name, command string, args map[string]string) (any, error) {
	p, err := s.loaded(ctx, sess, name)
	if err != nil {
		return nil, err
	}
	if err := p.Command(ctx, command, args); err != nil {
		return nil, err
	}
	return p.Snapshot(), nil
}

// Close закрывает страницу сессии (уход со страницы).
func (s *ViewService) Close(sess *entity.Session, name string) {
	s.mu.Lock()
	entry, ok := s.views[viewKey{session: sess.ID, page: name}]
	if ok {
		delete(s.views, viewKey{session: sess.ID, page: name})
	}
	s.mu.Unlock()
	if ok {
		s.release(entry)
	}
}

// CloseSession закрывает все страницы сессии (выход).
func (s *ViewService) CloseSession(sessionID uuid.UUID) {
	var closing []*viewEntry
	s.mu.Lock()
	for key, entry := range s.views {
		if key.session == sessionID {
			closing = append(closing, entry)
			delete(s.views, key)
		}
	}
	s.mu.Unlock()
	for _, entry := range closing {
		s.release(entry)
	}
}

// Count - число открытых страниц.
func (s *ViewService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Evict закрывает страницы, к которым не обращались дольше TTL.
func (s *ViewService) Evict() int {
	deadline := s.clock.Now().Add(-s.cfg.TTL)
	var stale []*viewEntry
	s.mu.Lock()
	for key, entry := range s.views {
		if entry.lastUsed.Before(deadline) {
			stale = append(stale, entry)
			delete(s.views, key)
		}
	}
	s.mu.Unlock()
	for _, entry := range stale {
		s.release(entry)
	}
	return len(stale)
}

// RunJanitor периодически вызывает Evict до отмены ctx.
func (s *ViewService) RunJanitor(ctx context.Context) {
	ticker := s.clock.NewTicker(s.cfg.TTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := s.Evict(); n > 0 {
				logger.Log.WithField("evicted", n).Debug("view service: неактивные страницы закрыты")
			}
		}
	}
}

// Shutdown закрывает все страницы.
func (s *ViewService) Shutdown() {
	s.mu.Lock()
	all := make([]*viewEntry, 0, len(s.views))
	for key, entry := range s.views {
		all = append(all, entry)
		delete(s.views, key)
	}
	s.mu.Unlock()
	for _, entry := range all {
		s.release(entry)
	}
}

func (s *ViewService) loaded(ctx context.Context, sess *entity.Session, name string) (pages.Page, error) {
	entry, err := s.entry(sess, name)
	if err != nil {
		return nil, err
	}
	if err := entry.page.EnsureLoaded(ctx); errors.Is(err, viewstate.ErrClosed) {
		return nil, err
	}
	return entry.page, nil
}

// entry возвращает открытую страницу или создаёт новую.
func (s *ViewService) entry(sess *entity.Session, name string) (*viewEntry, error) {
	if sess == nil {
		return nil, apperror.ErrUnauthorized
	}
	def, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}
	if !def.Allowed(sess) {
		return nil, apperror.ErrForbidden
	}

	key := viewKey{session: sess.ID, page: name}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.views[key]; ok {
		entry.lastUsed = now
		return entry, nil
	}

	page := def.Open(pages.Env{
		API:          s.api,
		Session:      sess,
		Notifier:     ws.NewToastAdapter(s.publisher, sess.ID),
		Locker:       s.locker,
		Clock:        s.clock,
		Debounce:     s.cfg.Debounce,
		RefetchDelay: s.cfg.RefetchDelay,
	})
	entry := &viewEntry{page: page, lastUsed: now}
	entry.unsubscribe = page.Subscribe(func(snapshot any) {
		if err := s.publisher.Publish(sess.ID, ws.EventViewUpdated, ViewEvent{Page: name, View: snapshot}); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"session": sess.ID,
				"page":    name,
				"error":   err,
			}).Debug("view service: снимок не отправлен")
		}
	})
	s.views[key] = entry
	metrics.ActiveViews.Inc()
	return entry, nil
}

func (s *ViewService) release(entry *viewEntry) {
	entry.unsubscribe()
	entry.page.Close()
	metrics.ActiveViews.Dec()
}

// isLoadFailure - ошибка загрузки (уже в состоянии страницы), а не отказ в параметрах.
func isLoadFailure(err error) bool {
	return !apperror.IsValidation(err) && !errors.Is(err, viewstate.ErrClosed)
}

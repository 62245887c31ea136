package viewstate

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/staymate/staymate-bff/internal/logger"
	"github.com/staymate/staymate-bff/internal/metrics"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

const defaultLoadError = "Не удалось загрузить данные"

// Options - настройки списка.
type Options struct {
	Name     string
	PageSize int
	Filters  map[string]string
	Notifier Notifier
	Locker   Locker
}

// List - состояние страницы со списком элементов.
//
// Загрузки нумеруются поколениями: ответ, поколение которого уже не текущее,
// отбрасывается. Мутации идут через MutateWithRollback (оптимистичные)
// или Transition (с подтверждением и перезагрузкой).
type List[T Item] struct {
	name     string
	fetch    Fetcher[T]
	notifier Notifier
	locker   Locker
	log      *logrus.Entry

	mu          sync.Mutex
	state       LoadState
	items       []T
	phases      map[int64]Phase
	processing  map[int64]struct{}
	errMsg      string
	query       Query
	totalPages  int
	totalElems  int64
	generation  uint64
	version     uint64
	everLoaded  bool
	refreshing  bool
	armed       bool
	cancel      context.CancelFunc
	closed      bool
	extras      map[string]any
	subscribers map[int]func(View[T])
	nextSub     int
}

// NewList создаёт список в состоянии loading. Сеть не трогается до Load/EnsureLoaded.
func NewList[T Item](fetch Fetcher[T], opts Options) *List[T] {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = discardNotifier{}
	}
	filters := make(map[string]string, len(opts.Filters))
	for k, v := range opts.Filters {
		filters[k] = v
	}
	return &List[T]{
		name:        opts.Name,
		fetch:       fetch,
		notifier:    notifier,
		locker:      opts.Locker,
		log:         logger.Log.WithField("view", opts.Name),
		state:       StateLoading,
		phases:      make(map[int64]Phase),
		processing:  make(map[int64]struct{}),
		query:       Query{PageSize: opts.PageSize, Filters: filters},
		extras:      make(map[string]any),
		subscribers: make(map[int]func(View[T])),
	}
}

func (l *List[T]) Name() string { return l.name }

// Subscribe регистрирует получателя снимков. Возвращает функцию отписки.
func (l *List[T]) Subscribe(fn func(View[T])) func() {
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subscribers[id] = fn
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.subscribers, id)
		l.mu.Unlock()
	}
}

// Snapshot возвращает текущий снимок.
func (l *List[T]) Snapshot() View[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *List[T]) snapshotLocked() View[T] {
	processing := make([]int64, 0, len(l.processing))
	for id := range l.processing {
		processing = append(processing, id)
	}
	slices.Sort(processing)

	items := slices.Clone(l.items)
	if items == nil {
		items = []T{}
	}
	return View[T]{
		Name:          l.name,
		State:         l.state,
		Items:         items,
		Phases:        maps.Clone(l.phases),
		Processing:    processing,
		Error:         l.errMsg,
		Query:         l.query.clone(),
		TotalPages:    l.totalPages,
		TotalElements: l.totalElems,
		Generation:    l.generation,
		Version:       l.version,
		Refreshing:    l.refreshing,
		Extras:        maps.Clone(l.extras),
	}
}

// changedLocked увеличивает версию и готовит рассылку. Вызывать под l.mu.
func (l *List[T]) changedLocked() (View[T], []func(View[T])) {
	l.version++
	subs := make([]func(View[T]), 0, len(l.subscribers))
	for _, fn := range l.subscribers {
		subs = append(subs, fn)
	}
	return l.snapshotLocked(), subs
}

func deliver[T any](view View[T], subs []func(View[T])) {
	for _, fn := range subs {
		fn(view)
	}
}

// EnsureLoaded выполняет загрузку не более одного раза за навигацию.
// Повторные вызовы до Navigate() ничего не запрашивают.
func (l *List[T]) EnsureLoaded(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if l.armed {
		l.mu.Unlock()
		return nil
	}
	l.armed = true
	l.mu.Unlock()
	return l.Load(ctx)
}

// Navigate взводит EnsureLoaded заново (новая навигация на страницу).
func (l *List[T]) Navigate() {
	l.mu.Lock()
	l.armed = false
	l.mu.Unlock()
}

// Load выполняет полную (пере)загрузку. Предыдущая незавершённая загрузка
// отменяется, а её ответ, если он всё же придёт, отбрасывается.
// Загрузку отменяют только новая загрузка и Close, но не ctx вызывающего.
func (l *List[T]) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.armed = true
	l.generation++
	gen := l.generation
	if l.cancel != nil {
		l.cancel()
	}
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l.cancel = cancel
	if l.everLoaded {
		l.refreshing = true
	} else {
		l.state = StateLoading
	}
	query := l.query.clone()
	view, subs := l.changedLocked()
	l.mu.Unlock()
	deliver(view, subs)

	res, err := l.safeFetch(fetchCtx, query)
	cancel()

	l.mu.Lock()
	if gen != l.generation || l.closed {
		l.mu.Unlock()
		metrics.StaleResponsesTotal.WithLabelValues(l.name).Inc()
		l.log.WithField("generation", gen).Debug("viewstate: устаревший ответ отброшен")
		return nil
	}
	l.cancel = nil
	l.refreshing = false
	if err != nil {
		l.state = StateError
		if apperror.IsNotFound(err) {
			l.state = StateNotFound
		}
		l.errMsg = apperror.UserMessage(err, defaultLoadError)
		l.items = nil
		l.phases = make(map[int64]Phase)
		view, subs = l.changedLocked()
		l.mu.Unlock()
		deliver(view, subs)
		l.log.WithError(err).Warn("viewstate: загрузка не удалась")
		return err
	}

	l.everLoaded = true
	l.errMsg = ""
	l.items = res.Items
	l.totalPages = res.TotalPages
	l.totalElems = res.TotalElements
	l.phases = make(map[int64]Phase)
	if len(res.Items) == 0 {
		l.state = StateEmpty
	} else {
		l.state = StateReady
	}
	view, subs = l.changedLocked()
	l.mu.Unlock()
	deliver(view, subs)
	return nil
}

func (l *List[T]) safeFetch(ctx context.Context, q Query) (res Result[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("viewstate: panic в загрузчике %s: %v", l.name, r)
		}
	}()
	return l.fetch(ctx, q)
}

// SetFilters заменяет фильтры, сбрасывает страницу на первую и перезагружает.
func (l *List[T]) SetFilters(ctx context.Context, filters map[string]string) error {
	l.mu.Lock()
	next := make(map[string]string, len(filters))
	for k, v := range filters {
		next[k] = v
	}
	l.query.Filters = next
	l.query.Page = 0
	l.mu.Unlock()
	return l.Load(ctx)
}

// Query возвращает копию текущих параметров выборки.
func (l *List[T]) Query() Query {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query.clone()
}

// SetExtra публикует вспомогательные данные страницы (например, статистику).
func (l *List[T]) SetExtra(key string, value any) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.extras[key] = value
	view, subs := l.changedLocked()
	l.mu.Unlock()
	deliver(view, subs)
}

// Item возвращает элемент по ключу.
func (l *List[T]) Item(id int64) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexLocked(id)
	if idx < 0 {
		var zero T
		return zero, false
	}
	return l.items[idx], true
}

func (l *List[T]) indexLocked(id int64) int {
	return slices.IndexFunc(l.items, func(it T) bool { return it.Key() == id })
}

// Close отменяет загрузку в полёте и отписывает всех получателей.
func (l *List[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.subscribers = make(map[int]func(View[T]))
}

func (l *List[T]) notify(ctx context.Context, level ToastLevel, msg string) {
	if msg == "" {
		return
	}
	l.notifier.Notify(ctx, Toast{Level: level, Message: msg})
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

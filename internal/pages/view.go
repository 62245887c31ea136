package pages

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/staymate/staymate-bff/internal/domain/valueobject"
	"github.com/staymate/staymate-bff/internal/goroutine"
	"github.com/staymate/staymate-bff/internal/logger"
	"github.com/staymate/staymate-bff/internal/metrics"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
	"github.com/staymate/staymate-bff/internal/validation"
	"github.com/staymate/staymate-bff/internal/viewstate"
)

const (
	statsKey      = "stats"
	statsErrorKey = "statsError"
	rawFiltersKey = "rawFilters"
)

type fetchFunc[T any] func(ctx context.Context, env Env, q viewstate.Query) (viewstate.Result[T], error)

type toggleSpec[T any] struct {
	flip    func(T) T
	request func(ctx context.Context, env Env, item T) error
}

type actionSpec[T any] struct {
	prompt      string
	needsReason bool
	guard       func(T) error
	request     func(ctx context.Context, env Env, item T, in ActionInput) error
	success     string
	failure     string
}

type commandSpec struct {
	run     func(ctx context.Context, env Env, args map[string]string) error
	success string
	failure string
	// delay > 0 - перезагрузка по таймеру, иначе сразу.
	delay bool
}

type statsFunc func(ctx context.Context, env Env) (any, error)

// spec - типизированное описание страницы.
type spec[T viewstate.Item] struct {
	fetch    fetchFunc[T]
	sort     func(a, b T) int
	toggle   *toggleSpec[T]
	actions  map[string]actionSpec[T]
	commands map[string]commandSpec
	stats    statsFunc
}

// define собирает Definition из типизированного описания.
func define[T viewstate.Item](def Definition, s spec[T]) Definition {
	def.Toggle = s.toggle != nil
	def.Actions = slices.Sorted(maps.Keys(s.actions))
	def.Commands = slices.Sorted(maps.Keys(s.commands))
	def.build = func(d Definition, env Env) Page {
		return newPage(d, env, s)
	}
	return def
}

type page[T viewstate.Item] struct {
	def      Definition
	env      Env
	spec     spec[T]
	list     *viewstate.List[T]
	paged    *viewstate.Paged[T]
	notifier viewstate.Notifier
	log      *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	debouncers map[string]*viewstate.Debouncer[string]
	busy       map[string]bool
	timers     []clockwork.Timer
}

func newPage[T viewstate.Item](def Definition, env Env, s spec[T]) *page[T] {
	ctx, cancel := context.WithCancel(context.Background())
	p := &page[T]{
		def:        def,
		env:        env,
		spec:       s,
		notifier:   env.Notifier,
		log:        logger.Log.WithField("page", def.Name),
		ctx:        ctx,
		cancel:     cancel,
		debouncers: make(map[string]*viewstate.Debouncer[string]),
		busy:       make(map[string]bool),
	}
	if p.notifier == nil {
		p.notifier = viewstate.NotifierFunc(func(context.Context, viewstate.Toast) {})
	}

	opts := viewstate.Options{
		Name:     def.Name,
		Filters:  def.Defaults,
		Notifier: env.Notifier,
		Locker:   env.Locker,
	}
	if def.Paged {
		p.paged = viewstate.NewPaged(p.fetch, opts)
		p.list = p.paged.List
	} else {
		p.list = viewstate.NewList(p.fetch, opts)
	}

	for _, rule := range def.Filters {
		if !rule.Debounced {
			continue
		}
		key := rule.Key
		p.debouncers[key] = viewstate.NewDebouncer(env.Clock, env.Debounce, def.Defaults[key], func(value string) {
			p.applyDebounced(key, value)
		})
	}
	return p
}

func (p *page[T]) Name() string { return p.def.Name }

func (p *page[T]) fetch(ctx context.Context, q viewstate.Query) (viewstate.Result[T], error) {
	var wg sync.WaitGroup
	if p.spec.stats != nil {
		wg.Add(1)
		goroutine.SafeGo(func() {
			defer wg.Done()
			p.loadStats(ctx)
		})
	}

	res, err := p.spec.fetch(ctx, p.env, q)
	wg.Wait()
	if err != nil {
		return res, err
	}
	if p.spec.sort != nil {
		res.Items = slices.Clone(res.Items)
		slices.SortStableFunc(res.Items, p.spec.sort)
	}
	p.inspectStatuses(res.Items)
	return res, nil
}

// loadStats грузит агрегаты параллельно с таблицей. Ошибка не ломает список.
func (p *page[T]) loadStats(ctx context.Context) {
	stats, err := p.spec.stats(ctx, p.env)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.log.WithError(err).Warn("pages: статистика не загружена")
		p.list.SetExtra(statsErrorKey, apperror.UserMessage(err, "Не удалось загрузить статистику"))
		return
	}
	p.list.SetExtra(statsErrorKey, "")
	p.list.SetExtra(statsKey, stats)
}

// inspectStatuses логирует и считает элементы с неизвестным статусом.
func (p *page[T]) inspectStatuses(items []T) {
	for _, item := range items {
		s, ok := any(item).(interface{ StatusValue() valueobject.Status })
		if !ok {
			return
		}
		if status := s.StatusValue(); !status.IsValid() {
			metrics.UnknownStatusTotal.WithLabelValues(p.def.Name).Inc()
			p.log.WithFields(logrus.Fields{"item": item.Key(), "status": status.String()}).
				Warn("pages: неизвестный статус")
		}
	}
}

func (p *page[T]) EnsureLoaded(ctx context.Context) error { return p.list.EnsureLoaded(ctx) }

func (p *page[T]) Navigate() { p.list.Navigate() }

func (p *page[T]) Refresh(ctx context.Context) error { return p.list.Load(ctx) }

// SetFilters обновляет переданные фильтры. Текстовые фильтры с паузой
// применяются после неё, остальные сразу с перезагрузкой.
func (p *page[T]) SetFilters(ctx context.Context, values map[string]string) error {
	normalized, err := validation.ValidateFilters(p.def.Filters, p.def.Ranges, p.mergedFilters(values))
	if err != nil {
		return err
	}

	current := p.list.Query().Filters
	next := maps.Clone(current)
	changed := false
	for key := range values {
		value := normalized[key]
		if d, ok := p.debouncers[key]; ok {
			d.Set(value)
			continue
		}
		if current[key] != value {
			next[key] = value
			changed = true
		}
	}
	if len(p.debouncers) > 0 {
		p.list.SetExtra(rawFiltersKey, p.rawFilters())
	}
	if !changed {
		return nil
	}
	return p.list.SetFilters(ctx, next)
}

// mergedFilters накладывает новые значения на текущие, чтобы проверить диапазоны целиком.
func (p *page[T]) mergedFilters(values map[string]string) map[string]string {
	merged := p.list.Query().Filters
	for key, d := range p.debouncers {
		merged[key] = d.Raw()
	}
	for k, v := range values {
		merged[k] = v
	}
	return merged
}

func (p *page[T]) rawFilters() map[string]string {
	raw := make(map[string]string, len(p.debouncers))
	for key, d := range p.debouncers {
		raw[key] = d.Raw()
	}
	return raw
}

func (p *page[T]) applyDebounced(key, value string) {
	next := p.list.Query().Filters
	if next[key] == value {
		return
	}
	next[key] = value
	if err := p.list.SetFilters(p.ctx, next); err != nil {
		p.log.WithError(err).WithField("filter", key).Debug("pages: загрузка по фильтру не удалась")
	}
}

func (p *page[T]) SetPage(ctx context.Context, page int) error {
	if p.paged == nil {
		return apperror.New(apperror.ErrCodeValidation, "страница без пагинации")
	}
	return p.paged.SetPage(ctx, page)
}

func (p *page[T]) Toggle(ctx context.Context, id int64) error {
	t := p.spec.toggle
	if t == nil {
		return apperror.ErrActionNotFound
	}
	return p.list.Toggle(ctx, id, t.flip, func(ctx context.Context, item T) error {
		return t.request(ctx, p.env, item)
	})
}

func (p *page[T]) Act(ctx context.Context, id int64, name string, in ActionInput) error {
	a, ok := p.spec.actions[name]
	if !ok {
		return apperror.ErrActionNotFound
	}
	if a.needsReason && in.Confirmed {
		if err := validation.ValidateReason(in.Reason); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	action := viewstate.Action[T]{
		Name:   name,
		Prompt: a.prompt,
		Guard:  a.guard,
		Request: func(ctx context.Context, item T) error {
			return a.request(ctx, p.env, item, in)
		},
		Success: a.success,
		Failure: a.failure,
	}
	return p.list.Transition(ctx, id, action, viewstate.Answer(in.Confirmed))
}

// Command выполняет действие уровня страницы (создание диалога, сканирование).
func (p *page[T]) Command(ctx context.Context, name string, args map[string]string) error {
	cmd, ok := p.spec.commands[name]
	if !ok {
		return apperror.ErrActionNotFound
	}

	p.mu.Lock()
	if p.busy[name] {
		p.mu.Unlock()
		return apperror.ErrActionInFlight
	}
	p.busy[name] = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.busy, name)
		p.mu.Unlock()
	}()

	if err := cmd.run(ctx, p.env, args); err != nil {
		metrics.MutationsTotal.WithLabelValues(p.def.Name, "command", "failed").Inc()
		if !apperror.IsValidation(err) {
			p.notifier.Notify(ctx, viewstate.Toast{
				Level:   viewstate.ToastError,
				Message: apperror.UserMessage(err, cmd.failure),
			})
		}
		return err
	}
	metrics.MutationsTotal.WithLabelValues(p.def.Name, "command", "settled").Inc()
	if cmd.success != "" {
		p.notifier.Notify(ctx, viewstate.Toast{Level: viewstate.ToastSuccess, Message: cmd.success})
	}

	if cmd.delay && p.env.RefetchDelay > 0 {
		p.scheduleRefetch(p.env.RefetchDelay)
		return nil
	}
	// ошибка перезагрузки уже отражена в состоянии списка
	_ = p.list.Load(ctx)
	return nil
}

func (p *page[T]) scheduleRefetch(delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx.Err() != nil {
		return
	}
	timer := p.env.Clock.AfterFunc(delay, func() {
		goroutine.Run(func() {
			if p.ctx.Err() != nil {
				return
			}
			_ = p.list.Load(p.ctx)
		})
	})
	p.timers = append(p.timers, timer)
}

func (p *page[T]) Snapshot() any {
	return p.wrap(p.list.Snapshot())
}

func (p *page[T]) Subscribe(fn func(any)) func() {
	return p.list.Subscribe(func(v viewstate.View[T]) {
		fn(p.wrap(v))
	})
}

func (p *page[T]) wrap(v viewstate.View[T]) Snapshot[T] {
	snap := Snapshot[T]{View: v}
	if p.paged != nil {
		snap.NextEnabled = v.Query.Page < v.TotalPages-1
		snap.PrevEnabled = v.Query.Page > 0
	}
	for _, item := range v.Items {
		s, ok := any(item).(interface{ StatusValue() valueobject.Status })
		if !ok {
			break
		}
		if snap.Badges == nil {
			snap.Badges = make(map[int64]valueobject.Badge, len(v.Items))
		}
		snap.Badges[item.Key()] = s.StatusValue().Badge()
	}
	return snap
}

// Close отменяет загрузку, таймеры и паузы фильтров.
func (p *page[T]) Close() {
	p.mu.Lock()
	p.cancel()
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = nil
	p.mu.Unlock()

	for _, d := range p.debouncers {
		d.Stop()
	}
	p.list.Close()
}

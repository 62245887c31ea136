package viewstate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/staymate/staymate-bff/internal/metrics"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

const (
	defaultToggleError = "Не удалось сохранить изменение"
	defaultActionError = "Не удалось выполнить действие"
)

// MutateWithRollback применяет изменение сразу, отправляет запрос и при ошибке
// откатывает изменение. revert обязателен. Panic в request превращается в ошибку.
func MutateWithRollback(ctx context.Context, apply func(), request func(context.Context) error, revert func()) error {
	if revert == nil {
		return apperror.New(apperror.ErrCodeInternal, "viewstate: revert обязателен")
	}
	apply()
	if err := safeRequest(ctx, request); err != nil {
		revert()
		return err
	}
	return nil
}

func safeRequest(ctx context.Context, request func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("viewstate: panic в запросе: %v", r)
		}
	}()
	return request(ctx)
}

// Toggle - оптимистичное переключение (избранное и т.п.). Без подтверждения.
// flip возвращает изменённую копию элемента, request отправляет её на сервер.
func (l *List[T]) Toggle(ctx context.Context, id int64, flip func(T) T, request func(context.Context, T) error) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	idx := l.indexLocked(id)
	if idx < 0 {
		l.mu.Unlock()
		return apperror.ErrItemNotFound
	}
	if l.phases[id] == PhasePending {
		l.mu.Unlock()
		metrics.MutationsTotal.WithLabelValues(l.name, "toggle", "rejected").Inc()
		return apperror.ErrActionInFlight
	}
	original := l.items[idx]
	flipped := flip(original)
	gen := l.generation
	l.mu.Unlock()

	err := MutateWithRollback(ctx,
		func() { l.replace(id, flipped, PhasePending, 0) },
		func(ctx context.Context) error { return request(ctx, flipped) },
		// после перезагрузки списка оригинал не восстанавливается
		func() { l.replace(id, original, PhaseRolledBack, gen) },
	)
	if err != nil {
		metrics.MutationsTotal.WithLabelValues(l.name, "toggle", "rolled_back").Inc()
		l.log.WithFields(logrus.Fields{"item": id, "error": err}).Warn("viewstate: переключение откатено")
		if !isCanceled(err) {
			l.notify(ctx, ToastError, apperror.UserMessage(err, defaultToggleError))
		}
		return err
	}
	l.setPhase(id, PhaseSettled)
	metrics.MutationsTotal.WithLabelValues(l.name, "toggle", "settled").Inc()
	return nil
}

// replace подменяет элемент по ключу. onlyGen != 0 - только если поколение не сменилось.
func (l *List[T]) replace(id int64, item T, phase Phase, onlyGen uint64) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	if onlyGen == 0 || onlyGen == l.generation {
		if idx := l.indexLocked(id); idx >= 0 {
			items := make([]T, len(l.items))
			copy(items, l.items)
			items[idx] = item
			l.items = items
		}
	}
	l.phases[id] = phase
	view, subs := l.changedLocked()
	l.mu.Unlock()
	deliver(view, subs)
}

func (l *List[T]) setPhase(id int64, phase Phase) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.phases[id] = phase
	view, subs := l.changedLocked()
	l.mu.Unlock()
	deliver(view, subs)
}

// Action - пессимистичное действие над элементом (смена статуса, удаление).
type Action[T any] struct {
	Name string
	// Prompt - текст подтверждения; пустой - без подтверждения.
	Prompt string
	// Guard проверяет элемент до запроса (например, допустимость перехода).
	Guard   func(T) error
	Request func(ctx context.Context, item T) error
	Success string
	Failure string
}

// Transition выполняет действие: подтверждение, защита от повторного запуска,
// запрос, затем полная перезагрузка. При ошибке список не меняется, показывается уведомление.
func (l *List[T]) Transition(ctx context.Context, id int64, action Action[T], confirm Confirmer) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	idx := l.indexLocked(id)
	if idx < 0 {
		l.mu.Unlock()
		return apperror.ErrItemNotFound
	}
	if _, busy := l.processing[id]; busy {
		l.mu.Unlock()
		metrics.MutationsTotal.WithLabelValues(l.name, "transition", "rejected").Inc()
		return apperror.ErrActionInFlight
	}
	item := l.items[idx]
	l.mu.Unlock()

	if action.Guard != nil {
		if err := action.Guard(item); err != nil {
			metrics.MutationsTotal.WithLabelValues(l.name, "transition", "rejected").Inc()
			return err
		}
	}

	if action.Prompt != "" {
		if confirm == nil || !confirm.Confirm(ctx, action.Prompt) {
			metrics.MutationsTotal.WithLabelValues(l.name, "transition", "declined").Inc()
			return apperror.Wrap(apperror.ErrConfirmationRequired, apperror.ErrCodeConfirmation, action.Prompt)
		}
	}

	l.mu.Lock()
	if _, busy := l.processing[id]; busy {
		l.mu.Unlock()
		metrics.MutationsTotal.WithLabelValues(l.name, "transition", "rejected").Inc()
		return apperror.ErrActionInFlight
	}
	l.processing[id] = struct{}{}
	l.phases[id] = PhasePending
	view, subs := l.changedLocked()
	l.mu.Unlock()
	deliver(view, subs)

	err := l.runLocked(ctx, id, action, item)

	l.mu.Lock()
	delete(l.processing, id)
	if err != nil {
		l.phases[id] = PhaseIdle
	} else {
		l.phases[id] = PhaseSettled
	}
	if !l.closed {
		view, subs = l.changedLocked()
		l.mu.Unlock()
		deliver(view, subs)
	} else {
		l.mu.Unlock()
	}

	if err != nil {
		metrics.MutationsTotal.WithLabelValues(l.name, "transition", "failed").Inc()
		l.log.WithFields(logrus.Fields{"item": id, "action": action.Name, "error": err}).Warn("viewstate: действие не выполнено")
		if !isCanceled(err) {
			l.notify(ctx, ToastError, apperror.UserMessage(err, orDefault(action.Failure, defaultActionError)))
		}
		return err
	}

	metrics.MutationsTotal.WithLabelValues(l.name, "transition", "settled").Inc()
	l.notify(ctx, ToastSuccess, action.Success)
	// ошибка перезагрузки уже отражена в состоянии списка
	_ = l.Load(ctx)
	return nil
}

// runLocked выполняет запрос под межпроцессной блокировкой, если она настроена.
func (l *List[T]) runLocked(ctx context.Context, id int64, action Action[T], item T) error {
	if l.locker != nil {
		release, ok, err := l.locker.Acquire(ctx, l.name+":"+strconv.FormatInt(id, 10))
		if err != nil {
			l.log.WithError(err).Warn("viewstate: блокировка недоступна, продолжаем без неё")
		} else if !ok {
			return apperror.ErrActionInFlight
		} else {
			defer release()
		}
	}
	return safeRequest(ctx, func(ctx context.Context) error { return action.Request(ctx, item) })
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

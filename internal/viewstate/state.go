// Package viewstate держит состояние страницы-списка: загрузку, мутации
// и синхронизацию с сервером после них.
//
// Каждая страница проходит один цикл: загрузить, показать, изменить,
// подтвердить или откатить, перезагрузить. List реализует этот цикл один раз
// для любых элементов с числовым ключом.
package viewstate

import (
	"context"
	"errors"

	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

// LoadState - состояние загрузки списка. Значения взаимоисключающие.
type LoadState string

const (
	StateLoading  LoadState = "loading"
	StateReady    LoadState = "ready"
	StateEmpty    LoadState = "empty"
	StateError    LoadState = "error"
	// StateNotFound - сервер ответил 404: запись удалена или не существует.
	StateNotFound LoadState = "not_found"
)

// Phase - фаза мутации отдельного элемента.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePending    Phase = "pending"
	PhaseSettled    Phase = "settled"
	PhaseRolledBack Phase = "rolled_back"
)

// Item - элемент списка с уникальным ключом.
type Item interface {
	Key() int64
}

type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastInfo    ToastLevel = "info"
)

// Toast - уведомление для пользователя.
type Toast struct {
	Level   ToastLevel `json:"level"`
	Message string     `json:"message"`
}

// Notifier показывает уведомления.
type Notifier interface {
	Notify(ctx context.Context, toast Toast)
}

type NotifierFunc func(ctx context.Context, toast Toast)

func (f NotifierFunc) Notify(ctx context.Context, toast Toast) { f(ctx, toast) }

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, Toast) {}

// Confirmer спрашивает пользователя перед деструктивным действием.
// false означает отказ: запрос не отправляется.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmerFunc func(ctx context.Context, prompt string) bool

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Answer - заранее известный ответ пользователя (BFF получает его в теле запроса).
type Answer bool

func (a Answer) Confirm(context.Context, string) bool { return bool(a) }

// Locker - межпроцессная блокировка действия над элементом.
// ok == false, если действие уже выполняет кто-то другой.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// Query - параметры текущей выборки.
type Query struct {
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	Filters  map[string]string `json:"filters"`
}

func (q Query) clone() Query {
	filters := make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		filters[k] = v
	}
	q.Filters = filters
	return q
}

// Result - ответ загрузчика.
type Result[T any] struct {
	Items         []T
	TotalPages    int
	TotalElements int64
}

// Fetcher загружает элементы для запроса.
type Fetcher[T any] func(ctx context.Context, q Query) (Result[T], error)

// View - неизменяемый снимок состояния списка.
type View[T any] struct {
	Name          string          `json:"name"`
	State         LoadState       `json:"state"`
	Items         []T             `json:"items"`
	Phases        map[int64]Phase `json:"phases"`
	Processing    []int64         `json:"processing"`
	Error         string          `json:"error,omitempty"`
	Query         Query           `json:"query"`
	TotalPages    int             `json:"totalPages"`
	TotalElements int64           `json:"totalElements"`
	Generation    uint64          `json:"generation"`
	// Version растёт с каждым снимком; клиент отбрасывает более старые.
	Version    uint64         `json:"version"`
	Refreshing bool           `json:"refreshing"`
	Extras     map[string]any `json:"extras,omitempty"`
}

// PhaseOf возвращает фазу элемента (idle, если не было мутаций).
func (v View[T]) PhaseOf(id int64) Phase {
	if p, ok := v.Phases[id]; ok {
		return p
	}
	return PhaseIdle
}

var (
	ErrClosed       = errors.New("viewstate: представление закрыто")
	ErrPageOutRange = apperror.New(apperror.ErrCodeValidation, "страница вне диапазона")
)

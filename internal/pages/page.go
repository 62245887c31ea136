// Package pages описывает страницы StayMate поверх viewstate: откуда грузить
// список, какие фильтры допустимы и какие действия доступны над элементами.
package pages

import (
	"context"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/domain/valueobject"
	"github.com/staymate/staymate-bff/internal/upstream"
	"github.com/staymate/staymate-bff/internal/validation"
	"github.com/staymate/staymate-bff/internal/viewstate"
)

// Env - зависимости открытой страницы одной сессии.
type Env struct {
	API      *upstream.API
	Session  *entity.Session
	Notifier viewstate.Notifier
	Locker   viewstate.Locker
	Clock    clockwork.Clock
	// Debounce - пауза для текстовых фильтров.
	Debounce time.Duration
	// RefetchDelay - задержка перезагрузки после фоновых команд (сканирование фрода).
	RefetchDelay time.Duration
}

// ActionInput - ответ пользователя на действие с подтверждением.
type ActionInput struct {
	Confirmed bool   `json:"confirmed"`
	Reason    string `json:"reason"`
}

// Page - страница, открытая в сессии.
type Page interface {
	Name() string
	EnsureLoaded(ctx context.Context) error
	Navigate()
	Refresh(ctx context.Context) error
	SetFilters(ctx context.Context, values map[string]string) error
	SetPage(ctx context.Context, page int) error
	Toggle(ctx context.Context, id int64) error
	Act(ctx context.Context, id int64, action string, in ActionInput) error
	Command(ctx context.Context, name string, args map[string]string) error
	Snapshot() any
	Subscribe(fn func(snapshot any)) (unsubscribe func())
	Close()
}

// Definition - описание страницы в реестре.
type Definition struct {
	Name     string                  `json:"name"`
	Roles    []string                `json:"roles,omitempty"`
	Paged    bool                    `json:"paged"`
	Filters  []validation.FilterRule `json:"filters,omitempty"`
	Ranges   []validation.RangeRule  `json:"-"`
	Defaults map[string]string       `json:"defaults,omitempty"`
	Toggle   bool                    `json:"toggle"`
	Actions  []string                `json:"actions,omitempty"`
	Commands []string                `json:"commands,omitempty"`
	build    func(def Definition, env Env) Page
}

// Allowed - может ли сессия открыть страницу. Пустой список ролей - любой вошедший пользователь.
func (d Definition) Allowed(sess *entity.Session) bool {
	if sess == nil {
		return false
	}
	if len(d.Roles) == 0 {
		return true
	}
	return slices.ContainsFunc(d.Roles, sess.HasRole)
}

// Open создаёт экземпляр страницы. Сеть не трогается до EnsureLoaded.
func (d Definition) Open(env Env) Page {
	if env.Clock == nil {
		env.Clock = clockwork.NewRealClock()
	}
	if env.Debounce <= 0 {
		env.Debounce = viewstate.DefaultDebounce
	}
	return d.build(d, env)
}

// Snapshot - снимок страницы для клиента.
type Snapshot[T any] struct {
	viewstate.View[T]
	Badges      map[int64]valueobject.Badge `json:"badges,omitempty"`
	NextEnabled bool                        `json:"nextEnabled"`
	PrevEnabled bool                        `json:"prevEnabled"`
}

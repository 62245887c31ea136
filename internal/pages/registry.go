package pages

import (
	"context"
	"maps"
	"slices"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/domain/valueobject"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
	"github.com/staymate/staymate-bff/internal/upstream"
	"github.com/staymate/staymate-bff/internal/viewstate"
)

// Registry - набор страниц, доступных BFF.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry регистрирует все страницы StayMate.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	for _, def := range slices.Concat(tenantPages(), recordPages(), adminPages()) {
		r.defs[def.Name] = def
	}
	return r
}

// Get возвращает описание страницы по имени.
func (r *Registry) Get(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, apperror.ErrPageNotFound
	}
	return def, nil
}

// Available - страницы, которые может открыть сессия, по имени.
func (r *Registry) Available(sess *entity.Session) []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, name := range slices.Sorted(maps.Keys(r.defs)) {
		if def := r.defs[name]; def.Allowed(sess) {
			out = append(out, def)
		}
	}
	return out
}

var (
	anyUser   []string
	ownerOnly = []string{entity.RoleHouseOwner, entity.RoleAdmin}
	adminOnly = []string{entity.RoleAdmin}
)

func fromPage[T any](p upstream.Page[T], err error) (viewstate.Result[T], error) {
	if err != nil {
		return viewstate.Result[T]{}, err
	}
	return viewstate.Result[T]{Items: p.Items, TotalPages: p.TotalPages, TotalElements: p.TotalElements}, nil
}

// filters превращает фильтры выборки в параметры запроса.
func filters(q viewstate.Query) upstream.Filters {
	return upstream.Filters(q.Filters)
}

type texts struct {
	prompt  string
	success string
	failure string
}

type statusSender[T any, S ~string] func(ctx context.Context, env Env, item T, target S, in ActionInput) error

// statusAction - смена статуса с проверкой перехода до запроса.
func statusAction[T viewstate.Item, S valueobject.Transitionable[S]](t texts, target S, current func(T) S, send statusSender[T, S]) actionSpec[T] {
	return actionSpec[T]{
		prompt:  t.prompt,
		success: t.success,
		failure: t.failure,
		guard: func(item T) error {
			return valueobject.CheckTransition(current(item), target)
		},
		request: func(ctx context.Context, env Env, item T, in ActionInput) error {
			return send(ctx, env, item, target, in)
		},
	}
}

// viaStatus отправляет {resource}/{id}/status?status=X.
func viaStatus[T viewstate.Item, S ~string](resource func(*upstream.API) upstream.Resource[T]) statusSender[T, S] {
	return func(ctx context.Context, env Env, item T, target S, _ ActionInput) error {
		return resource(env.API).SetStatus(ctx, env.Session, item.Key(), string(target), nil)
	}
}

// deleteAction удаляет элемент после подтверждения.
func deleteAction[T viewstate.Item](t texts, resource func(*upstream.API) upstream.Resource[T]) actionSpec[T] {
	return actionSpec[T]{
		prompt:  t.prompt,
		success: t.success,
		failure: t.failure,
		request: func(ctx context.Context, env Env, item T, _ ActionInput) error {
			return resource(env.API).Delete(ctx, env.Session, item.Key())
		},
	}
}

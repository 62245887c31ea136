package viewstate

import (
	"context"
)

// Paged - список с серверной пагинацией. Номер страницы с нуля,
// итоги берутся из обёртки ответа.
type Paged[T Item] struct {
	*List[T]
}

func NewPaged[T Item](fetch Fetcher[T], opts Options) *Paged[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	return &Paged[T]{List: NewList(fetch, opts)}
}

// SetPage переходит на страницу page и перезагружает список.
// Страница за пределами [0, totalPages) отклоняется без запроса.
func (p *Paged[T]) SetPage(ctx context.Context, page int) error {
	p.mu.Lock()
	if page < 0 || (p.everLoaded && page >= max(p.totalPages, 1)) {
		p.mu.Unlock()
		return ErrPageOutRange
	}
	p.query.Page = page
	p.mu.Unlock()
	return p.Load(ctx)
}

func (p *Paged[T]) Next(ctx context.Context) error {
	return p.SetPage(ctx, p.Query().Page+1)
}

func (p *Paged[T]) Prev(ctx context.Context) error {
	return p.SetPage(ctx, p.Query().Page-1)
}

// NextEnabled ложно ровно тогда, когда page >= totalPages-1.
func (p *Paged[T]) NextEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query.Page < p.totalPages-1
}

func (p *Paged[T]) PrevEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query.Page > 0
}

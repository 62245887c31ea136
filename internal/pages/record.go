package pages

import (
	"context"
	"strconv"
	"strings"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
	"github.com/staymate/staymate-bff/internal/upstream"
	"github.com/staymate/staymate-bff/internal/validation"
	"github.com/staymate/staymate-bff/internal/viewstate"
)

// Карточки одной записи открываются с фильтром id.
const (
	PageProperty = "property"
	PageRoommate = "roommate"

	RecordIDKey = "id"
)

func recordPages() []Definition {
	return []Definition{
		define(Definition{
			Name:    PageProperty,
			Filters: []validation.FilterRule{validation.Number(RecordIDKey)},
		}, spec[entity.Property]{
			fetch: record(properties),
			actions: map[string]actionSpec[entity.Property]{
				"delete": deleteAction(texts{
					prompt:  "Удалить объявление? Это действие нельзя отменить.",
					success: "Объявление удалено",
					failure: "Не удалось удалить объявление",
				}, properties),
			},
		}),

		define(Definition{
			Name:    PageRoommate,
			Filters: []validation.FilterRule{validation.Number(RecordIDKey)},
		}, spec[entity.RoommatePost]{
			fetch: record(roommates),
			commands: map[string]commandSpec{
				"contact": {
					run:     createConversation,
					success: "Сообщение отправлено",
					failure: "Не удалось отправить сообщение",
				},
			},
		}),
	}
}

// record загружает GET {resource}/{id}. 404 переводит страницу в not_found.
func record[T viewstate.Item](resource func(*upstream.API) upstream.Resource[T]) fetchFunc[T] {
	return func(ctx context.Context, env Env, q viewstate.Query) (viewstate.Result[T], error) {
		id, err := strconv.ParseInt(strings.TrimSpace(q.Filters[RecordIDKey]), 10, 64)
		if err != nil || id <= 0 {
			return viewstate.Result[T]{}, apperror.New(apperror.ErrCodeValidation, "не указан идентификатор записи")
		}
		item, err := resource(env.API).Get(ctx, env.Session, id)
		if err != nil {
			return viewstate.Result[T]{}, err
		}
		if item.Key() == 0 {
			return viewstate.Result[T]{}, apperror.New(apperror.ErrCodeNotFound, "запись не найдена")
		}
		return viewstate.Result[T]{Items: []T{item}, TotalPages: 1, TotalElements: 1}, nil
	}
}

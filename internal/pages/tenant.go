package pages

import (
	"cmp"
	"context"
	"strconv"
	"strings"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	vo "github.com/staymate/staymate-bff/internal/domain/valueobject"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
	"github.com/staymate/staymate-bff/internal/upstream"
	"github.com/staymate/staymate-bff/internal/validation"
	"github.com/staymate/staymate-bff/internal/viewstate"
)

const (
	PageSearch               = "search"
	PageSaved                = "saved"
	PageSavedRoommates       = "saved-roommates"
	PageRoommates            = "roommates"
	PageRoommatesMy          = "roommates-my"
	PageRoommateMatches      = "roommate-matches"
	PageApplicationsSent     = "applications-sent"
	PageApplicationsReceived = "applications-received"
	PageBookingsMy           = "bookings-my"
	PageBookingsRequests     = "bookings-requests"
	PageConversations        = "conversations"
)

func properties(a *upstream.API) upstream.Resource[entity.Property]      { return a.Properties }
func roommates(a *upstream.API) upstream.Resource[entity.RoommatePost]   { return a.Roommates }
func applications(a *upstream.API) upstream.Resource[entity.Application] { return a.Applications }
func bookings(a *upstream.API) upstream.Resource[entity.Booking]         { return a.Bookings }

func propertyStatus(p entity.Property) vo.PropertyStatus         { return p.Status }
func roommateStatus(r entity.RoommatePost) vo.RoommatePostStatus { return r.Status }
func applicationStatus(a entity.Application) vo.ApplicationStatus {
	return a.Status
}
func bookingStatus(b entity.Booking) vo.BookingStatus { return b.Status }

// Избранное: флаг переключается сразу, POST сохраняет, DELETE убирает.
var (
	savedProperty = &toggleSpec[entity.Property]{
		flip: func(p entity.Property) entity.Property { return p.WithSaved(!p.Saved) },
		request: func(ctx context.Context, env Env, p entity.Property) error {
			return env.API.SetPropertySaved(ctx, env.Session, p.ID, p.Saved)
		},
	}
	savedRoommate = &toggleSpec[entity.RoommatePost]{
		flip: func(r entity.RoommatePost) entity.RoommatePost { return r.WithSaved(!r.Saved) },
		request: func(ctx context.Context, env Env, r entity.RoommatePost) error {
			return env.API.SetRoommateSaved(ctx, env.Session, r.ID, r.Saved)
		},
	}
	savedMatch = &toggleSpec[entity.Match]{
		flip: func(m entity.Match) entity.Match {
			m.RoommatePost = m.WithSaved(!m.Saved)
			return m
		},
		request: func(ctx context.Context, env Env, m entity.Match) error {
			return env.API.SetRoommateSaved(ctx, env.Session, m.ID, m.Saved)
		},
	}
)

func tenantPages() []Definition {
	return []Definition{
		define(Definition{
			Name: PageSearch,
			Filters: []validation.FilterRule{
				validation.DebouncedText("query", validation.MaxSearchLength),
				validation.Number("minPrice"),
				validation.Number("maxPrice"),
				validation.Number("minBeds"),
				validation.Number("minBaths"),
				validation.OneOf("propertyType", "APARTMENT", "HOUSE", "ROOM", "STUDIO"),
			},
			Ranges: []validation.RangeRule{{Min: "minPrice", Max: "maxPrice"}},
		}, spec[entity.Property]{
			fetch: func(ctx context.Context, env Env, q viewstate.Query) (viewstate.Result[entity.Property], error) {
				return fromPage(env.API.SearchProperties(ctx, env.Session, filters(q)))
			},
			toggle: savedProperty,
		}),

		define(Definition{Name: PageSaved}, spec[entity.Property]{
			fetch: func(ctx context.Context, env Env, _ viewstate.Query) (viewstate.Result[entity.Property], error) {
				return markSaved(fromPage(env.API.SavedProperties(ctx, env.Session)))
			},
			toggle: savedProperty,
		}),

		define(Definition{Name: PageSavedRoommates}, spec[entity.RoommatePost]{
			fetch: func(ctx context.Context, env Env, _ viewstate.Query) (viewstate.Result[entity.RoommatePost], error) {
				return markSaved(fromPage(env.API.SavedRoommates(ctx, env.Session)))
			},
			toggle: savedRoommate,
		}),

		define(Definition{
			Name: PageRoommates,
			Filters: []validation.FilterRule{
				validation.DebouncedText("location", validation.MaxLocationLength),
				validation.Number("minBudget"),
				validation.Number("maxBudget"),
				validation.OneOf("genderPreference", "MALE", "FEMALE", "ANY"),
			},
			Ranges: []validation.RangeRule{{Min: "minBudget", Max: "maxBudget"}},
		}, spec[entity.RoommatePost]{
			fetch: func(ctx context.Context, env Env, q viewstate.Query) (viewstate.Result[entity.RoommatePost], error) {
				return fromPage(env.API.ListRoommates(ctx, env.Session, filters(q)))
			},
			toggle: savedRoommate,
		}),

		define(Definition{Name: PageRoommatesMy}, spec[entity.RoommatePost]{
			fetch: func(ctx context.Context, env Env, _ viewstate.Query) (viewstate.Result[entity.RoommatePost], error) {
				return fromPage(env.API.MyRoommatePosts(ctx, env.Session))
			},
			actions: map[string]actionSpec[entity.RoommatePost]{
				"mark-matched": statusAction(texts{
					prompt:  "Отметить, что сосед найден? Объявление будет скрыто из поиска.",
					success: "Объявление закрыто",
					failure: "Не удалось обновить объявление",
				}, vo.RoommatePostStatusMatched, roommateStatus, viaStatus[entity.RoommatePost, vo.RoommatePostStatus](roommates)),
				"delete": deleteAction(texts{
					prompt:  "Удалить объявление? Это действие нельзя отменить.",
					success: "Объявление удалено",
					failure: "Не удалось удалить объявление",
				}, roommates),
			},
		}),

		define(Definition{Name: PageRoommateMatches}, spec[entity.Match]{
			fetch: func(ctx context.Context, env Env, _ viewstate.Query) (viewstate.Result[entity.Match], error) {
				return fromPage(env.API.RoommateMatches(ctx, env.Session))
			},
			sort: func(a, b entity.Match) int {
				return cmp.Compare(b.Score(), a.Score())
			},
			toggle: savedMatch,
		}),

		define(Definition{Name: PageApplicationsSent}, spec[entity.Application]{
			fetch: func(ctx context.Context, env Env, _ viewstate.Query) (viewstate.Result[entity.Application], error) {
				return fromPage(env.API.SentApplications(ctx, env.Session))
			},
			actions: map[string]actionSpec[entity.Application]{
				"cancel": statusAction(texts{
					prompt:  "Отозвать заявку?",
					success: "Заявка отозвана",
					failure: "Не удалось отозвать заявку",
				}, vo.ApplicationStatusCancelled, applicationStatus, viaStatus[entity.Application, vo.ApplicationStatus](applications)),
				"delete": deleteAction(texts{
					prompt:  "Удалить заявку из списка?",
					success: "Заявка удалена",
					failure: "Не удалось удалить заявку",
				}, applications),
			},
		}),

		define(Definition{Name: PageApplicationsReceived, Roles: ownerOnly}, spec[entity.Application]{
			fetch: func(ctx context.Context, env Env, _ viewstate.Query) (viewstate.Result[entity.Application], error) {
				return fromPage(env.API.ReceivedApplications(ctx, env.Session))
			},
			actions: map[string]actionSpec[entity.Application]{
				"accept": statusAction(texts{
					prompt:  "Принять заявку?",
					success: "Заявка принята",
					failure: "Не удалось принять заявку",
				}, vo.ApplicationStatusAccepted, applicationStatus, viaStatus[entity.Application, vo.ApplicationStatus](applications)),
				"reject": statusAction(texts{
					prompt:  "Отклонить заявку?",
					success: "Заявка отклонена",
					failure: "Не удалось отклонить заявку",
				}, vo.ApplicationStatusRejected, applicationStatus, viaStatus[entity.Application, vo.ApplicationStatus](applications)),
			},
		}),

		define(Definition{Name: PageBookingsMy}, spec[entity.Booking]{
			fetch: func(ctx context.Context, env Env, _ viewstate.Query) (viewstate.Result[entity.Booking], error) {
				return fromPage(env.API.MyBookings(ctx, env.Session))
			},
			actions: map[string]actionSpec[entity.Booking]{
				"cancel": statusAction(texts{
					prompt:  "Отменить бронирование?",
					success: "Бронирование отменено",
					failure: "Не удалось отменить бронирование",
				}, vo.BookingStatusCancelled, bookingStatus, viaStatus[entity.Booking, vo.BookingStatus](bookings)),
			},
		}),

		define(Definition{Name: PageBookingsRequests, Roles: ownerOnly}, spec[entity.Booking]{
			fetch: func(ctx context.Context, env Env, _ viewstate.Query) (viewstate.Result[entity.Booking], error) {
				return fromPage(env.API.BookingRequests(ctx, env.Session))
			},
			actions: map[string]actionSpec[entity.Booking]{
				"confirm": statusAction(texts{
					prompt:  "Подтвердить бронирование?",
					success: "Бронирование подтверждено",
					failure: "Не удалось подтвердить бронирование",
				}, vo.BookingStatusConfirmed, bookingStatus, viaStatus[entity.Booking, vo.BookingStatus](bookings)),
				"reject": statusAction(texts{
					prompt:  "Отклонить бронирование?",
					success: "Бронирование отклонено",
					failure: "Не удалось отклонить бронирование",
				}, vo.BookingStatusRejected, bookingStatus, viaStatus[entity.Booking, vo.BookingStatus](bookings)),
				"check-in": statusAction(texts{
					prompt:  "Отметить заселение гостя?",
					success: "Гость заселён",
					failure: "Не удалось отметить заселение",
				}, vo.BookingStatusCheckedIn, bookingStatus, bookingStep("check-in")),
				"check-out": statusAction(texts{
					prompt:  "Отметить выезд гостя?",
					success: "Гость выехал",
					failure: "Не удалось отметить выезд",
				}, vo.BookingStatusCheckedOut, bookingStatus, bookingStep("check-out")),
			},
		}),

		define(Definition{
			Name:    PageConversations,
			Paged:   true,
			Filters: []validation.FilterRule{validation.DebouncedText("search", validation.MaxSearchLength)},
		}, spec[entity.Conversation]{
			fetch: func(ctx context.Context, env Env, q viewstate.Query) (viewstate.Result[entity.Conversation], error) {
				return fromPage(env.API.ConversationPage(ctx, env.Session, q.Page, q.PageSize, filters(q)))
			},
			commands: map[string]commandSpec{
				"create": {
					run:     createConversation,
					success: "Диалог создан",
					failure: "Не удалось создать диалог",
				},
			},
		}),
	}
}

// markSaved проставляет флаг избранного: сервер не заполняет isSaved
// в ответах /api/saved/*, а всё в этих списках сохранено.
func markSaved[T interface{ WithSaved(bool) T }](res viewstate.Result[T], err error) (viewstate.Result[T], error) {
	if err != nil {
		return res, err
	}
	items := make([]T, len(res.Items))
	for i, item := range res.Items {
		items[i] = item.WithSaved(true)
	}
	res.Items = items
	return res, nil
}

// bookingStep - заселение и выезд идут через POST /api/bookings/{id}/{step}.
func bookingStep(step string) statusSender[entity.Booking, vo.BookingStatus] {
	return func(ctx context.Context, env Env, b entity.Booking, _ vo.BookingStatus, _ ActionInput) error {
		return env.API.Bookings.Action(ctx, env.Session, b.ID, step, nil, nil)
	}
}

// createConversation: recipientId, message, необязательные propertyId и subject.
func createConversation(ctx context.Context, env Env, args map[string]string) error {
	recipientID, err := strconv.ParseInt(strings.TrimSpace(args["recipientId"]), 10, 64)
	if err != nil || recipientID <= 0 {
		return apperror.New(apperror.ErrCodeValidation, "некорректный получатель")
	}

	var propertyID *int64
	if raw := strings.TrimSpace(args["propertyId"]); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return apperror.New(apperror.ErrCodeValidation, "некорректный идентификатор объявления")
		}
		propertyID = &id
	}

	message := strings.TrimSpace(args["message"])
	if err := validation.ValidateMessageContent(message); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	subject := strings.TrimSpace(args["subject"])
	if err := validation.ValidateLength("тема", subject, 0, validation.MaxSubjectLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	req, err := entity.NewConversation(recipientID, env.Session.UserID, propertyID, subject, message)
	if err != nil {
		return err
	}
	_, err = env.API.CreateConversation(ctx, env.Session, req)
	return err
}

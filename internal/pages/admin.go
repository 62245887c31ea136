package pages

import (
	"context"
	"slices"
	"strings"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	vo "github.com/staymate/staymate-bff/internal/domain/valueobject"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
	"github.com/staymate/staymate-bff/internal/upstream"
	"github.com/staymate/staymate-bff/internal/validation"
	"github.com/staymate/staymate-bff/internal/viewstate"
)

const (
	PageAdminVerifications = "admin-verifications"
	PageAdminPayouts       = "admin-payouts"
	PageAdminProperties    = "admin-properties"
	PageAdminRoommates     = "admin-roommates"
	PageAdminReports       = "admin-reports"
	PageAdminAudit         = "admin-audit"
	PageAdminTickets       = "admin-tickets"
	PageAdminFraud         = "admin-fraud"

	AuditStatsDays = 7
	FraudStatsDays = 30
)

func reports(a *upstream.API) upstream.Resource[entity.Report] { return a.Reports }
func tickets(a *upstream.API) upstream.Resource[entity.Ticket] { return a.Tickets }

func payoutStatus(p entity.PayoutRequest) vo.PayoutStatus { return p.Status }
func reportStatus(r entity.Report) vo.ReportStatus        { return r.Status }
func ticketStatus(t entity.Ticket) vo.TicketStatus        { return t.Status }
func verificationStatus(v entity.VerificationRequest) vo.VerificationStatus {
	return v.Status
}

// processPayout - POST .../{id}/process?status=X&notes=причина.
func processPayout(ctx context.Context, env Env, p entity.PayoutRequest, target vo.PayoutStatus, in ActionInput) error {
	return env.API.ProcessPayout(ctx, env.Session, p.ID, string(target), strings.TrimSpace(in.Reason))
}

func adminPages() []Definition {
	return []Definition{
		define(Definition{Name: PageAdminVerifications, Roles: adminOnly}, spec[entity.VerificationRequest]{
			fetch: func(ctx context.Context, env Env, _ viewstate.Query) (viewstate.Result[entity.VerificationRequest], error) {
				return fromPage(env.API.PendingVerifications(ctx, env.Session))
			},
			sort: pendingFirst[entity.VerificationRequest],
			actions: map[string]actionSpec[entity.VerificationRequest]{
				"approve": statusAction(texts{
					prompt:  "Подтвердить документ пользователя?",
					success: "Верификация подтверждена",
					failure: "Не удалось подтвердить верификацию",
				}, vo.VerificationStatusApproved, verificationStatus,
					func(ctx context.Context, env Env, v entity.VerificationRequest, _ vo.VerificationStatus, _ ActionInput) error {
						return env.API.ApproveVerification(ctx, env.Session, v.ID)
					}),
				"reject": withReason(statusAction(texts{
					prompt:  "Укажите причину отклонения документа",
					success: "Верификация отклонена",
					failure: "Не удалось отклонить верификацию",
				}, vo.VerificationStatusRejected, verificationStatus,
					func(ctx context.Context, env Env, v entity.VerificationRequest, _ vo.VerificationStatus, in ActionInput) error {
						return env.API.RejectVerification(ctx, env.Session, v.ID, strings.TrimSpace(in.Reason))
					})),
			},
		}),

		define(Definition{
			Name:     PageAdminPayouts,
			Roles:    adminOnly,
			Filters:  []validation.FilterRule{validation.OneOf("status", "PENDING", "PROCESSING", "PAID", "REJECTED")},
			Defaults: map[string]string{"status": string(vo.PayoutStatusPending)},
		}, spec[entity.PayoutRequest]{
			fetch: func(ctx context.Context, env Env, q viewstate.Query) (viewstate.Result[entity.PayoutRequest], error) {
				return fromPage(env.API.PayoutRequests(ctx, env.Session, filters(q)))
			},
			actions: map[string]actionSpec[entity.PayoutRequest]{
				"process": statusAction(texts{
					prompt:  "Взять выплату в обработку?",
					success: "Выплата в обработке",
					failure: "Не удалось обновить выплату",
				}, vo.PayoutStatusProcessing, payoutStatus, processPayout),
				"pay": statusAction(texts{
					prompt:  "Отметить выплату как проведённую?",
					success: "Выплата проведена",
					failure: "Не удалось провести выплату",
				}, vo.PayoutStatusPaid, payoutStatus, processPayout),
				"reject": withReason(statusAction(texts{
					prompt:  "Укажите причину отклонения выплаты",
					success: "Выплата отклонена",
					failure: "Не удалось отклонить выплату",
				}, vo.PayoutStatusRejected, payoutStatus, processPayout)),
			},
		}),

		define(Definition{
			Name:    PageAdminProperties,
			Roles:   adminOnly,
			Filters: []validation.FilterRule{validation.OneOf("status", "PENDING", "APPROVED", "ACTIVE", "INACTIVE", "RENTED", "REJECTED")},
		}, spec[entity.Property]{
			fetch: func(ctx context.Context, env Env, q viewstate.Query) (viewstate.Result[entity.Property], error) {
				return fromPage(env.API.AdminProperties(ctx, env.Session, filters(q)))
			},
			sort: pendingFirst[entity.Property],
			actions: map[string]actionSpec[entity.Property]{
				"approve":    propertyAction("Одобрить объявление?", "Объявление одобрено", vo.PropertyStatusApproved),
				"reject":     propertyAction("Отклонить объявление?", "Объявление отклонено", vo.PropertyStatusRejected),
				"activate":   propertyAction("Опубликовать объявление?", "Объявление опубликовано", vo.PropertyStatusActive),
				"deactivate": propertyAction("Снять объявление с публикации?", "Объявление снято", vo.PropertyStatusInactive),
			},
		}),

		define(Definition{Name: PageAdminRoommates, Roles: adminOnly}, spec[entity.RoommatePost]{
			fetch: func(ctx context.Context, env Env, _ viewstate.Query) (viewstate.Result[entity.RoommatePost], error) {
				return fromPage(env.API.AllRoommatePosts(ctx, env.Session))
			},
			sort: pendingFirst[entity.RoommatePost],
			actions: map[string]actionSpec[entity.RoommatePost]{
				"approve": statusAction(texts{
					prompt:  "Одобрить объявление о соседе?",
					success: "Объявление одобрено",
					failure: "Не удалось одобрить объявление",
				}, vo.RoommatePostStatusApproved, roommateStatus, viaStatus[entity.RoommatePost, vo.RoommatePostStatus](roommates)),
				"reject": statusAction(texts{
					prompt:  "Отклонить объявление о соседе?",
					success: "Объявление отклонено",
					failure: "Не удалось отклонить объявление",
				}, vo.RoommatePostStatusRejected, roommateStatus, viaStatus[entity.RoommatePost, vo.RoommatePostStatus](roommates)),
			},
		}),

		define(Definition{
			Name:    PageAdminReports,
			Roles:   adminOnly,
			Filters: []validation.FilterRule{validation.OneOf("status", "PENDING", "INVESTIGATING", "RESOLVED", "DISMISSED")},
		}, spec[entity.Report]{
			fetch: func(ctx context.Context, env Env, q viewstate.Query) (viewstate.Result[entity.Report], error) {
				return fromPage(env.API.ListReports(ctx, env.Session, filters(q)))
			},
			actions: map[string]actionSpec[entity.Report]{
				"investigate": statusAction(texts{
					prompt:  "Взять жалобу в работу?",
					success: "Жалоба взята в работу",
					failure: "Не удалось обновить жалобу",
				}, vo.ReportStatusInvestigating, reportStatus, viaStatus[entity.Report, vo.ReportStatus](reports)),
				"resolve": statusAction(texts{
					prompt:  "Закрыть жалобу как решённую?",
					success: "Жалоба решена",
					failure: "Не удалось обновить жалобу",
				}, vo.ReportStatusResolved, reportStatus, viaStatus[entity.Report, vo.ReportStatus](reports)),
				"dismiss": statusAction(texts{
					prompt:  "Отклонить жалобу?",
					success: "Жалоба отклонена",
					failure: "Не удалось обновить жалобу",
				}, vo.ReportStatusDismissed, reportStatus, viaStatus[entity.Report, vo.ReportStatus](reports)),
			},
		}),

		define(Definition{
			Name:    PageAdminAudit,
			Roles:   adminOnly,
			Paged:   true,
			Filters: []validation.FilterRule{validation.Text("action", 100)},
		}, spec[entity.AuditLog]{
			fetch: func(ctx context.Context, env Env, q viewstate.Query) (viewstate.Result[entity.AuditLog], error) {
				return fromPage(env.API.AuditLogPage(ctx, env.Session, q.Page, q.PageSize, filters(q)))
			},
			stats: func(ctx context.Context, env Env) (any, error) {
				return env.API.AuditStats(ctx, env.Session, AuditStatsDays)
			},
		}),

		define(Definition{
			Name:    PageAdminTickets,
			Roles:   adminOnly,
			Paged:   true,
			Filters: []validation.FilterRule{validation.OneOf("status", "OPEN", "IN_PROGRESS", "RESOLVED", "CLOSED")},
		}, spec[entity.Ticket]{
			fetch: func(ctx context.Context, env Env, q viewstate.Query) (viewstate.Result[entity.Ticket], error) {
				return fromPage(env.API.TicketPage(ctx, env.Session, q.Page, q.PageSize, filters(q)))
			},
			actions: map[string]actionSpec[entity.Ticket]{
				"start": statusAction(texts{
					prompt:  "Взять обращение в работу?",
					success: "Обращение взято в работу",
					failure: "Не удалось обновить обращение",
				}, vo.TicketStatusInProgress, ticketStatus, viaStatus[entity.Ticket, vo.TicketStatus](tickets)),
				"resolve": statusAction(texts{
					prompt:  "Отметить обращение решённым?",
					success: "Обращение решено",
					failure: "Не удалось обновить обращение",
				}, vo.TicketStatusResolved, ticketStatus, viaStatus[entity.Ticket, vo.TicketStatus](tickets)),
				"close": statusAction(texts{
					prompt:  "Закрыть обращение?",
					success: "Обращение закрыто",
					failure: "Не удалось закрыть обращение",
				}, vo.TicketStatusClosed, ticketStatus, viaStatus[entity.Ticket, vo.TicketStatus](tickets)),
			},
		}),

		define(Definition{Name: PageAdminFraud, Roles: adminOnly}, spec[entity.FraudEvent]{
			fetch: func(ctx context.Context, env Env, _ viewstate.Query) (viewstate.Result[entity.FraudEvent], error) {
				return fromPage(env.API.FraudEvents(ctx, env.Session))
			},
			stats: func(ctx context.Context, env Env) (any, error) {
				return env.API.FraudStats(ctx, env.Session, FraudStatsDays)
			},
			commands: map[string]commandSpec{
				"scan": {
					run:     fraudScan,
					success: "Сканирование запущено, результаты появятся через несколько секунд",
					failure: "Не удалось запустить сканирование",
					delay:   true,
				},
			},
		}),
	}
}

func propertyAction(prompt, success string, target vo.PropertyStatus) actionSpec[entity.Property] {
	return statusAction(texts{
		prompt:  prompt,
		success: success,
		failure: "Не удалось обновить объявление",
	}, target, propertyStatus, viaStatus[entity.Property, vo.PropertyStatus](properties))
}

// withReason требует причину при подтверждении.
func withReason[T any](a actionSpec[T]) actionSpec[T] {
	a.needsReason = true
	return a
}

// pendingFirst поднимает ожидающие рассмотрения элементы наверх, порядок внутри групп сохраняется.
func pendingFirst[T interface{ StatusValue() vo.Status }](a, b T) int {
	ap := a.StatusValue().String() == "PENDING"
	bp := b.StatusValue().String() == "PENDING"
	switch {
	case ap == bp:
		return 0
	case ap:
		return -1
	default:
		return 1
	}
}

// fraudScan: type = duplicates | spam | mismatches | all (по умолчанию all).
func fraudScan(ctx context.Context, env Env, args map[string]string) error {
	scanType := strings.TrimSpace(args["type"])
	if scanType == "" {
		scanType = "all"
	}
	if !slices.Contains(upstream.FraudScanTypes, scanType) {
		return apperror.New(apperror.ErrCodeValidation, "неизвестный тип сканирования: "+scanType)
	}
	return env.API.FraudScan(ctx, env.Session, scanType)
}

package valueobject

import (
	"slices"

	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

// Tone - визуальный оттенок бейджа статуса.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneInfo    Tone = "info"
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
	ToneDanger  Tone = "danger"
	// ToneUnknown отдаётся для значений, которых нет в перечислении.
	ToneUnknown Tone = "unknown"
)

// Badge - то, что UI рисует для статуса.
type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

// Status - общий контракт всех статусных перечислений.
type Status interface {
	String() string
	IsValid() bool
	Badge() Badge
}

func unknownBadge(raw string) Badge {
	if raw == "" {
		return Badge{Label: "Unknown", Tone: ToneUnknown}
	}
	return Badge{Label: "Unknown (" + raw + ")", Tone: ToneUnknown}
}

func canTransition[S ~string](table map[S][]S, from, to S) bool {
	allowed, ok := table[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

func parse[S interface {
	~string
	IsValid() bool
}](raw string, what string) (S, error) {
	s := S(raw)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус "+what+": "+raw)
	}
	return s, nil
}

// ---- Property ----

type PropertyStatus string

const (
	PropertyStatusPending  PropertyStatus = "PENDING"
	PropertyStatusApproved PropertyStatus = "APPROVED"
	PropertyStatusActive   PropertyStatus = "ACTIVE"
	PropertyStatusInactive PropertyStatus = "INACTIVE"
	PropertyStatusRented   PropertyStatus = "RENTED"
	PropertyStatusRejected PropertyStatus = "REJECTED"
)

var propertyTransitions = map[PropertyStatus][]PropertyStatus{
	PropertyStatusPending:  {PropertyStatusApproved, PropertyStatusRejected},
	PropertyStatusApproved: {PropertyStatusActive, PropertyStatusInactive, PropertyStatusRented},
	PropertyStatusActive:   {PropertyStatusInactive, PropertyStatusRented},
	PropertyStatusInactive: {PropertyStatusActive},
	PropertyStatusRented:   {PropertyStatusActive},
	PropertyStatusRejected: {},
}

func (s PropertyStatus) String() string { return string(s) }

func (s PropertyStatus) IsValid() bool {
	switch s {
	case PropertyStatusPending, PropertyStatusApproved, PropertyStatusActive,
		PropertyStatusInactive, PropertyStatusRented, PropertyStatusRejected:
		return true
	}
	return false
}

func (s PropertyStatus) CanTransitionTo(next PropertyStatus) bool {
	return canTransition(propertyTransitions, s, next)
}

func (s PropertyStatus) Badge() Badge {
	switch s {
	case PropertyStatusPending:
		return Badge{Label: "Pending review", Tone: ToneWarning}
	case PropertyStatusApproved:
		return Badge{Label: "Approved", Tone: ToneSuccess}
	case PropertyStatusActive:
		return Badge{Label: "Active", Tone: ToneSuccess}
	case PropertyStatusInactive:
		return Badge{Label: "Inactive", Tone: ToneNeutral}
	case PropertyStatusRented:
		return Badge{Label: "Rented", Tone: ToneInfo}
	case PropertyStatusRejected:
		return Badge{Label: "Rejected", Tone: ToneDanger}
	}
	return unknownBadge(string(s))
}

func NewPropertyStatus(raw string) (PropertyStatus, error) {
	return parse[PropertyStatus](raw, "объявления")
}

// ---- RoommatePost ----

type RoommatePostStatus string

const (
	RoommatePostStatusPending      RoommatePostStatus = "PENDING"
	RoommatePostStatusPendingMatch RoommatePostStatus = "PENDING_MATCH"
	RoommatePostStatusApproved     RoommatePostStatus = "APPROVED"
	RoommatePostStatusOpen         RoommatePostStatus = "OPEN"
	RoommatePostStatusMatched      RoommatePostStatus = "MATCHED"
	RoommatePostStatusRejected     RoommatePostStatus = "REJECTED"
)

var roommatePostTransitions = map[RoommatePostStatus][]RoommatePostStatus{
	RoommatePostStatusPending:      {RoommatePostStatusApproved, RoommatePostStatusRejected},
	RoommatePostStatusPendingMatch: {RoommatePostStatusApproved, RoommatePostStatusRejected},
	RoommatePostStatusApproved:     {RoommatePostStatusOpen, RoommatePostStatusMatched},
	RoommatePostStatusOpen:         {RoommatePostStatusMatched},
	RoommatePostStatusMatched:      {},
	RoommatePostStatusRejected:     {},
}

func (s RoommatePostStatus) String() string { return string(s) }

func (s RoommatePostStatus) IsValid() bool {
	switch s {
	case RoommatePostStatusPending, RoommatePostStatusPendingMatch, RoommatePostStatusApproved,
		RoommatePostStatusOpen, RoommatePostStatusMatched, RoommatePostStatusRejected:
		return true
	}
	return false
}

func (s RoommatePostStatus) CanTransitionTo(next RoommatePostStatus) bool {
	return canTransition(roommatePostTransitions, s, next)
}

func (s RoommatePostStatus) Badge() Badge {
	switch s {
	case RoommatePostStatusPending:
		return Badge{Label: "Pending review", Tone: ToneWarning}
	case RoommatePostStatusPendingMatch:
		return Badge{Label: "Awaiting match", Tone: ToneWarning}
	case RoommatePostStatusApproved:
		return Badge{Label: "Approved", Tone: ToneSuccess}
	case RoommatePostStatusOpen:
		return Badge{Label: "Open", Tone: ToneInfo}
	case RoommatePostStatusMatched:
		return Badge{Label: "Matched", Tone: ToneSuccess}
	case RoommatePostStatusRejected:
		return Badge{Label: "Rejected", Tone: ToneDanger}
	}
	return unknownBadge(string(s))
}

func NewRoommatePostStatus(raw string) (RoommatePostStatus, error) {
	return parse[RoommatePostStatus](raw, "поста о соседе")
}

// ---- Application ----

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "PENDING"
	ApplicationStatusAccepted  ApplicationStatus = "ACCEPTED"
	ApplicationStatusRejected  ApplicationStatus = "REJECTED"
	ApplicationStatusCancelled ApplicationStatus = "CANCELLED"
)

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusPending:   {ApplicationStatusAccepted, ApplicationStatusRejected, ApplicationStatusCancelled},
	ApplicationStatusAccepted:  {},
	ApplicationStatusRejected:  {},
	ApplicationStatusCancelled: {},
}

func (s ApplicationStatus) String() string { return string(s) }

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusAccepted, ApplicationStatusRejected, ApplicationStatusCancelled:
		return true
	}
	return false
}

func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	return canTransition(applicationTransitions, s, next)
}

func (s ApplicationStatus) Badge() Badge {
	switch s {
	case ApplicationStatusPending:
		return Badge{Label: "Pending", Tone: ToneWarning}
	case ApplicationStatusAccepted:
		return Badge{Label: "Accepted", Tone: ToneSuccess}
	case ApplicationStatusRejected:
		return Badge{Label: "Rejected", Tone: ToneDanger}
	case ApplicationStatusCancelled:
		return Badge{Label: "Cancelled", Tone: ToneNeutral}
	}
	return unknownBadge(string(s))
}

func NewApplicationStatus(raw string) (ApplicationStatus, error) {
	return parse[ApplicationStatus](raw, "заявки")
}

// ---- Booking ----

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "PENDING"
	BookingStatusConfirmed  BookingStatus = "CONFIRMED"
	BookingStatusRejected   BookingStatus = "REJECTED"
	BookingStatusCancelled  BookingStatus = "CANCELLED"
	BookingStatusCheckedIn  BookingStatus = "CHECKED_IN"
	BookingStatusCheckedOut BookingStatus = "CHECKED_OUT"
	BookingStatusCompleted  BookingStatus = "COMPLETED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusConfirmed:  {BookingStatusCheckedIn, BookingStatusCancelled},
	BookingStatusCheckedIn:  {BookingStatusCheckedOut},
	BookingStatusCheckedOut: {BookingStatusCompleted},
	BookingStatusRejected:   {},
	BookingStatusCancelled:  {},
	BookingStatusCompleted:  {},
}

func (s BookingStatus) String() string { return string(s) }

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled,
		BookingStatusCheckedIn, BookingStatusCheckedOut, BookingStatusCompleted:
		return true
	}
	return false
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return canTransition(bookingTransitions, s, next)
}

func (s BookingStatus) Badge() Badge {
	switch s {
	case BookingStatusPending:
		return Badge{Label: "Pending", Tone: ToneWarning}
	case BookingStatusConfirmed:
		return Badge{Label: "Confirmed", Tone: ToneSuccess}
	case BookingStatusRejected:
		return Badge{Label: "Rejected", Tone: ToneDanger}
	case BookingStatusCancelled:
		return Badge{Label: "Cancelled", Tone: ToneNeutral}
	case BookingStatusCheckedIn:
		return Badge{Label: "Checked in", Tone: ToneInfo}
	case BookingStatusCheckedOut:
		return Badge{Label: "Checked out", Tone: ToneInfo}
	case BookingStatusCompleted:
		return Badge{Label: "Completed", Tone: ToneSuccess}
	}
	return unknownBadge(string(s))
}

func NewBookingStatus(raw string) (BookingStatus, error) {
	return parse[BookingStatus](raw, "бронирования")
}

// ---- Support ticket ----

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusClosed},
	TicketStatusResolved:   {TicketStatusClosed, TicketStatusOpen},
	TicketStatusClosed:     {},
}

func (s TicketStatus) String() string { return string(s) }

func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	return canTransition(ticketTransitions, s, next)
}

func (s TicketStatus) Badge() Badge {
	switch s {
	case TicketStatusOpen:
		return Badge{Label: "Open", Tone: ToneWarning}
	case TicketStatusInProgress:
		return Badge{Label: "In progress", Tone: ToneInfo}
	case TicketStatusResolved:
		return Badge{Label: "Resolved", Tone: ToneSuccess}
	case TicketStatusClosed:
		return Badge{Label: "Closed", Tone: ToneNeutral}
	}
	return unknownBadge(string(s))
}

func NewTicketStatus(raw string) (TicketStatus, error) {
	return parse[TicketStatus](raw, "обращения")
}

// ---- Payout ----

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "PENDING"
	PayoutStatusProcessing PayoutStatus = "PROCESSING"
	PayoutStatusPaid       PayoutStatus = "PAID"
	PayoutStatusRejected   PayoutStatus = "REJECTED"
)

var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutStatusPending:    {PayoutStatusProcessing, PayoutStatusPaid, PayoutStatusRejected},
	PayoutStatusProcessing: {PayoutStatusPaid, PayoutStatusRejected},
	PayoutStatusPaid:       {},
	PayoutStatusRejected:   {},
}

func (s PayoutStatus) String() string { return string(s) }

func (s PayoutStatus) IsValid() bool {
	switch s {
	case PayoutStatusPending, PayoutStatusProcessing, PayoutStatusPaid, PayoutStatusRejected:
		return true
	}
	return false
}

func (s PayoutStatus) CanTransitionTo(next PayoutStatus) bool {
	return canTransition(payoutTransitions, s, next)
}

func (s PayoutStatus) Badge() Badge {
	switch s {
	case PayoutStatusPending:
		return Badge{Label: "Pending", Tone: ToneWarning}
	case PayoutStatusProcessing:
		return Badge{Label: "Processing", Tone: ToneInfo}
	case PayoutStatusPaid:
		return Badge{Label: "Paid", Tone: ToneSuccess}
	case PayoutStatusRejected:
		return Badge{Label: "Rejected", Tone: ToneDanger}
	}
	return unknownBadge(string(s))
}

func NewPayoutStatus(raw string) (PayoutStatus, error) {
	return parse[PayoutStatus](raw, "выплаты")
}

// ---- Verification ----

type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "PENDING"
	VerificationStatusApproved VerificationStatus = "APPROVED"
	VerificationStatusRejected VerificationStatus = "REJECTED"
)

var verificationTransitions = map[VerificationStatus][]VerificationStatus{
	VerificationStatusPending:  {VerificationStatusApproved, VerificationStatusRejected},
	VerificationStatusApproved: {},
	VerificationStatusRejected: {},
}

func (s VerificationStatus) String() string { return string(s) }

func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationStatusPending, VerificationStatusApproved, VerificationStatusRejected:
		return true
	}
	return false
}

func (s VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	return canTransition(verificationTransitions, s, next)
}

func (s VerificationStatus) Badge() Badge {
	switch s {
	case VerificationStatusPending:
		return Badge{Label: "Pending", Tone: ToneWarning}
	case VerificationStatusApproved:
		return Badge{Label: "Verified", Tone: ToneSuccess}
	case VerificationStatusRejected:
		return Badge{Label: "Rejected", Tone: ToneDanger}
	}
	return unknownBadge(string(s))
}

func NewVerificationStatus(raw string) (VerificationStatus, error) {
	return parse[VerificationStatus](raw, "верификации")
}

// ---- Report ----

type ReportStatus string

const (
	ReportStatusPending       ReportStatus = "PENDING"
	ReportStatusInvestigating ReportStatus = "INVESTIGATING"
	ReportStatusResolved      ReportStatus = "RESOLVED"
	ReportStatusDismissed     ReportStatus = "DISMISSED"
)

var reportTransitions = map[ReportStatus][]ReportStatus{
	ReportStatusPending:       {ReportStatusInvestigating, ReportStatusResolved, ReportStatusDismissed},
	ReportStatusInvestigating: {ReportStatusResolved, ReportStatusDismissed},
	ReportStatusResolved:      {},
	ReportStatusDismissed:     {},
}

func (s ReportStatus) String() string { return string(s) }

func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusPending, ReportStatusInvestigating, ReportStatusResolved, ReportStatusDismissed:
		return true
	}
	return false
}

func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	return canTransition(reportTransitions, s, next)
}

func (s ReportStatus) Badge() Badge {
	switch s {
	case ReportStatusPending:
		return Badge{Label: "Pending", Tone: ToneWarning}
	case ReportStatusInvestigating:
		return Badge{Label: "Investigating", Tone: ToneInfo}
	case ReportStatusResolved:
		return Badge{Label: "Resolved", Tone: ToneSuccess}
	case ReportStatusDismissed:
		return Badge{Label: "Dismissed", Tone: ToneNeutral}
	}
	return unknownBadge(string(s))
}

func NewReportStatus(raw string) (ReportStatus, error) {
	return parse[ReportStatus](raw, "жалобы")
}

// ---- Fraud severity ----

type FraudSeverity string

const (
	FraudSeverityLow      FraudSeverity = "LOW"
	FraudSeverityMedium   FraudSeverity = "MEDIUM"
	FraudSeverityHigh     FraudSeverity = "HIGH"
	FraudSeverityCritical FraudSeverity = "CRITICAL"
)

func (s FraudSeverity) String() string { return string(s) }

func (s FraudSeverity) IsValid() bool {
	switch s {
	case FraudSeverityLow, FraudSeverityMedium, FraudSeverityHigh, FraudSeverityCritical:
		return true
	}
	return false
}

func (s FraudSeverity) Badge() Badge {
	switch s {
	case FraudSeverityLow:
		return Badge{Label: "Low", Tone: ToneNeutral}
	case FraudSeverityMedium:
		return Badge{Label: "Medium", Tone: ToneWarning}
	case FraudSeverityHigh:
		return Badge{Label: "High", Tone: ToneDanger}
	case FraudSeverityCritical:
		return Badge{Label: "Critical", Tone: ToneDanger}
	}
	return unknownBadge(string(s))
}

type Transitionable[S any] interface {
	~string
	IsValid() bool
	CanTransitionTo(next S) bool
}

// CheckTransition проверяет переход до отправки запроса.
// Из неизвестного статуса переходы запрещены.
func CheckTransition[S Transitionable[S]](from, to S) error {
	if !from.IsValid() {
		return apperror.New(apperror.ErrCodeConflict, "неизвестный текущий статус: "+string(from))
	}
	if !from.CanTransitionTo(to) {
		return apperror.New(apperror.ErrCodeConflict, "переход "+string(from)+" → "+string(to)+" недоступен")
	}
	return nil
}

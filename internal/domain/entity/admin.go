package entity

import (
	"github.com/staymate/staymate-bff/internal/domain/valueobject"
)

// Ticket - обращение в поддержку.
type Ticket struct {
	ID        int64                    `json:"id"`
	UserID    int64                    `json:"userId"`
	UserName  string                   `json:"userName,omitempty"`
	Subject   string                   `json:"subject"`
	Category  string                   `json:"category,omitempty"`
	Priority  string                   `json:"priority,omitempty"`
	Status    valueobject.TicketStatus `json:"status"`
	CreatedAt valueobject.Timestamp    `json:"createdAt"`
	UpdatedAt valueobject.Timestamp    `json:"updatedAt"`
}

func (t Ticket) Key() int64 { return t.ID }

func (t Ticket) StatusValue() valueobject.Status { return t.Status }

// PayoutRequest - запрос арендодателя на вывод средств.
type PayoutRequest struct {
	ID          int64                    `json:"id"`
	UserID      int64                    `json:"userId"`
	UserName    string                   `json:"userName,omitempty"`
	Amount      float64                  `json:"amount"`
	Status      valueobject.PayoutStatus `json:"status"`
	AdminNote   string                   `json:"adminNote,omitempty"`
	CreatedAt   valueobject.Timestamp    `json:"createdAt"`
	ProcessedAt valueobject.Timestamp    `json:"processedAt"`
}

func (p PayoutRequest) Key() int64 { return p.ID }

func (p PayoutRequest) StatusValue() valueobject.Status { return p.Status }

type VerificationRequest struct {
	ID              int64                          `json:"id"`
	UserID          int64                          `json:"userId"`
	UserName        string                         `json:"userName,omitempty"`
	DocumentURL     string                         `json:"documentUrl"`
	DocumentType    string                         `json:"documentType"`
	Status          valueobject.VerificationStatus `json:"status"`
	RejectionReason string                         `json:"rejectionReason,omitempty"`
	CreatedAt       valueobject.Timestamp          `json:"createdAt"`
	UpdatedAt       valueobject.Timestamp          `json:"updatedAt"`
}

func (v VerificationRequest) Key() int64 { return v.ID }

func (v VerificationRequest) StatusValue() valueobject.Status { return v.Status }

// Report - жалоба пользователя на другого пользователя.
type Report struct {
	ID               int64                    `json:"id"`
	ReporterID       int64                    `json:"reporterId"`
	ReporterName     string                   `json:"reporterName"`
	ReportedUserID   int64                    `json:"reportedUserId"`
	ReportedUserName string                   `json:"reportedUserName"`
	Type             string                   `json:"type,omitempty"`
	Priority         string                   `json:"priority,omitempty"`
	Description      string                   `json:"description,omitempty"`
	Status           valueobject.ReportStatus `json:"status"`
	CreatedAt        valueobject.Timestamp    `json:"createdAt"`
}

func (r Report) Key() int64 { return r.ID }

func (r Report) StatusValue() valueobject.Status { return r.Status }

// AuditLog - запись журнала действий, только чтение.
type AuditLog struct {
	ID         int64                 `json:"id"`
	UserID     int64                 `json:"userId"`
	UserName   string                `json:"userName"`
	Action     string                `json:"action"`
	EntityType string                `json:"entityType"`
	EntityID   int64                 `json:"entityId"`
	Details    string                `json:"details,omitempty"`
	IPAddress  string                `json:"ipAddress,omitempty"`
	CreatedAt  valueobject.Timestamp `json:"createdAt"`
}

func (a AuditLog) Key() int64 { return a.ID }

type FraudEvent struct {
	ID        int64                     `json:"id"`
	UserID    int64                     `json:"userId"`
	UserName  string                    `json:"userName,omitempty"`
	Type      string                    `json:"type"`
	Severity  valueobject.FraudSeverity `json:"severity"`
	Metadata  string                    `json:"metadata,omitempty"`
	CreatedAt valueobject.Timestamp     `json:"createdAt"`
}

func (f FraudEvent) Key() int64 { return f.ID }

func (f FraudEvent) StatusValue() valueobject.Status { return f.Severity }

// Stats - агрегаты, которые грузятся параллельно с таблицей (аудит, фрод).
type Stats map[string]any

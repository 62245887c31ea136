package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/pages"
)

// ErrorResponse - единый формат ошибки.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	// Prompt - вопрос подтверждения для CONFIRMATION_REQUIRED.
	Prompt string `json:"prompt,omitempty"`
}

// SessionResponse - ответ на вход и GET /api/session/me.
type SessionResponse struct {
	SessionID uuid.UUID   `json:"sessionId"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      entity.User `json:"user"`
	// Pages - страницы, доступные ролям пользователя.
	Pages []pages.Definition `json:"pages"`
}

// ViewResponse - снимок страницы.
type ViewResponse struct {
	Page string `json:"page"`
	View any    `json:"view"`
}

// UploadResponse - результат загрузки документа верификации.
type UploadResponse struct {
	DocumentType string `json:"documentType"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
}

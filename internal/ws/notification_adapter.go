package ws

import (
	"context"

	"github.com/google/uuid"

	"github.com/staymate/staymate-bff/internal/logger"
	"github.com/staymate/staymate-bff/internal/viewstate"
)

// Publisher отправляет событие вкладкам сессии. Реализуется Hub.
type Publisher interface {
	Publish(sessionID uuid.UUID, event string, data any) error
}

// ToastAdapter доставляет уведомления страниц во вкладки сессии.
type ToastAdapter struct {
	hub       Publisher
	sessionID uuid.UUID
}

// NewToastAdapter создаёт адаптер для одной сессии.
func NewToastAdapter(hub Publisher, sessionID uuid.UUID) *ToastAdapter {
	return &ToastAdapter{hub: hub, sessionID: sessionID}
}

// Notify реализует viewstate.Notifier.
func (a *ToastAdapter) Notify(_ context.Context, toast viewstate.Toast) {
	if err := a.hub.Publish(a.sessionID, EventToast, toast); err != nil {
		logger.Log.WithError(err).Warn("ws: уведомление не доставлено")
	}
}

package handlers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/staymate/staymate-bff/internal/http/handlers/common"
	"github.com/staymate/staymate-bff/internal/http/middleware"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
	"github.com/staymate/staymate-bff/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений.
type WSHandler struct {
	hub      *ws.Hub
	sessions middleware.SessionAuthenticator
	upgrader websocket.Upgrader
}

// NewWSHandler создаёт новый хэндлер. Соединения принимаются только с разрешённых origins.
func NewWSHandler(hub *ws.Hub, sessions middleware.SessionAuthenticator, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Handle обслуживает GET /api/ws?session=...
// Идентификатор сессии можно передать параметром (браузерный WebSocket не шлёт заголовки) или cookie.
func (h *WSHandler) Handle(c *gin.Context) {
	raw := c.Query("session")
	if raw == "" {
		raw = middleware.SessionIDFromRequest(c)
	}
	if raw == "" {
		common.Fail(c, apperror.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		common.Fail(c, apperror.ErrSessionNotFound)
		return
	}

	sess, err := h.sessions.Authenticate(c.Request.Context(), id)
	if err != nil {
		common.Fail(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту.
		return
	}

	client := ws.NewClient(conn, h.hub, sess.ID)
	h.hub.Register(client)

	client.Run(c.Request.Context())
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/dto"
	"github.com/staymate/staymate-bff/internal/http/handlers/common"
	"github.com/staymate/staymate-bff/internal/http/middleware"
	"github.com/staymate/staymate-bff/internal/service"
	"github.com/staymate/staymate-bff/internal/ws"
)

// CookieConfig - параметры cookie сессии.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// SessionHandler предоставляет HTTP слой для входа и выхода.
type SessionHandler struct {
	sessions *service.SessionService
	views    *service.ViewService
	hub      *ws.Hub
	cookie   CookieConfig
}

// NewSessionHandler создаёт хэндлер.
func NewSessionHandler(sessions *service.SessionService, views *service.ViewService, hub *ws.Hub, cookie CookieConfig) *SessionHandler {
	return &SessionHandler{sessions: sessions, views: views, hub: hub, cookie: cookie}
}

// Login обрабатывает POST /api/session/login.
func (h *SessionHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	result, err := h.sessions.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	h.setCookie(c, result.Session.ID.String(), int(h.cookie.MaxAge.Seconds()))
	common.RespondJSON(c, http.StatusOK, h.sessionResponse(result.Session, result.User))
}

// Me обрабатывает GET /api/session/me.
func (h *SessionHandler) Me(c *gin.Context) {
	sess, err := middleware.CurrentSession(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	user, err := h.sessions.Me(c.Request.Context(), sess)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, h.sessionResponse(sess, user))
}

// Logout обрабатывает DELETE /api/session.
func (h *SessionHandler) Logout(c *gin.Context) {
	sess, err := middleware.CurrentSession(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	h.views.CloseSession(sess.ID)
	if h.hub != nil {
		h.hub.Disconnect(sess.ID)
	}
	if err := h.sessions.Logout(c.Request.Context(), sess); err != nil {
		common.Fail(c, err)
		return
	}

	h.setCookie(c, "", -1)
	common.RespondNoContent(c)
}

func (h *SessionHandler) sessionResponse(sess *entity.Session, user entity.User) dto.SessionResponse {
	return dto.SessionResponse{
		SessionID: sess.ID,
		ExpiresAt: sess.ExpiresAt,
		User:      user,
		Pages:     h.views.Pages(sess),
	}
}

func (h *SessionHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", h.cookie.Secure, true)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/staymate/staymate-bff/internal/domain/entity"
	"github.com/staymate/staymate-bff/internal/dto"
	"github.com/staymate/staymate-bff/internal/http/handlers/common"
	"github.com/staymate/staymate-bff/internal/http/middleware"
	"github.com/staymate/staymate-bff/internal/pages"
	"github.com/staymate/staymate-bff/internal/service"
)

// ViewHandler отдаёт состояние страниц и принимает действия пользователя.
// Все ответы содержат актуальный снимок страницы; последующие изменения
// (отложенные фильтры, фоновые перезагрузки) приходят через WebSocket.
type ViewHandler struct {
	views *service.ViewService
}

func NewViewHandler(views *service.ViewService) *ViewHandler {
	return &ViewHandler{views: views}
}

// List обрабатывает GET /api/views - страницы, доступные сессии.
func (h *ViewHandler) List(c *gin.Context) {
	sess, err := middleware.CurrentSession(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, gin.H{"pages": h.views.Pages(sess)})
}

// Open обрабатывает GET /api/views/:page?nav=<id>. Остальные параметры
// адреса - фильтры страницы (GET /api/views/property?id=7).
func (h *ViewHandler) Open(c *gin.Context) {
	h.run(c, func(sess *entity.Session, page string) (any, error) {
		return h.views.Open(c.Request.Context(), sess, page, c.Query("nav"), openParams(c))
	})
}

func openParams(c *gin.Context) map[string]string {
	var params map[string]string
	for key, values := range c.Request.URL.Query() {
		if key == "nav" || len(values) == 0 {
			continue
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[key] = values[0]
	}
	return params
}

// Refresh обрабатывает POST /api/views/:page/refresh.
func (h *ViewHandler) Refresh(c *gin.Context) {
	h.run(c, func(sess *entity.Session, page string) (any, error) {
		return h.views.Refresh(c.Request.Context(), sess, page)
	})
}

// SetFilters обрабатывает PUT /api/views/:page/filters.
func (h *ViewHandler) SetFilters(c *gin.Context) {
	var req dto.FiltersRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.Fail(c, err)
		return
	}
	h.run(c, func(sess *entity.Session, page string) (any, error) {
		return h.views.SetFilters(c.Request.Context(), sess, page, req.Filters)
	})
}

// SetPage обрабатывает PUT /api/views/:page/page.
func (h *ViewHandler) SetPage(c *gin.Context) {
	var req dto.PageRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.Fail(c, err)
		return
	}
	h.run(c, func(sess *entity.Session, page string) (any, error) {
		return h.views.SetPage(c.Request.Context(), sess, page, *req.Page)
	})
}

// Toggle обрабатывает POST /api/views/:page/items/:id/toggle.
func (h *ViewHandler) Toggle(c *gin.Context) {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	h.run(c, func(sess *entity.Session, page string) (any, error) {
		return h.views.Toggle(c.Request.Context(), sess, page, id)
	})
}

// Act обрабатывает POST /api/views/:page/items/:id/actions/:action.
// Без confirmed=true действие не выполняется: 409 CONFIRMATION_REQUIRED с вопросом в prompt.
func (h *ViewHandler) Act(c *gin.Context) {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req dto.ActionRequest
	if c.Request.ContentLength != 0 {
		if err := common.BindAndValidate(c, &req); err != nil {
			common.Fail(c, err)
			return
		}
	}
	h.run(c, func(sess *entity.Session, page string) (any, error) {
		return h.views.Act(c.Request.Context(), sess, page, id, c.Param("action"), pages.ActionInput{
			Confirmed: req.Confirmed,
			Reason:    req.Reason,
		})
	})
}

// Command обрабатывает POST /api/views/:page/commands/:command.
func (h *ViewHandler) Command(c *gin.Context) {
	var req dto.CommandRequest
	if c.Request.ContentLength != 0 {
		if err := common.BindAndValidate(c, &req); err != nil {
			common.Fail(c, err)
			return
		}
	}
	h.run(c, func(sess *entity.Session, page string) (any, error) {
		return h.views.Command(c.Request.Context(), sess, page, c.Param("command"), req.Args)
	})
}

// Close обрабатывает DELETE /api/views/:page.
func (h *ViewHandler) Close(c *gin.Context) {
	sess, err := middleware.CurrentSession(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	h.views.Close(sess, c.Param("page"))
	common.RespondNoContent(c)
}

func (h *ViewHandler) run(c *gin.Context, op func(sess *entity.Session, page string) (any, error)) {
	sess, err := middleware.CurrentSession(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	page := c.Param("page")
	view, err := op(sess, page)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.ViewResponse{Page: page, View: view})
}

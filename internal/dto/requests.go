package dto

// LoginRequest - тело POST /api/session/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// FiltersRequest - тело PUT /api/views/:page/filters.
// Пустое значение снимает фильтр.
type FiltersRequest struct {
	Filters map[string]string `json:"filters" binding:"required"`
}

// PageRequest - тело PUT /api/views/:page/page. Страницы нумеруются с нуля.
type PageRequest struct {
	Page *int `json:"page" binding:"required,min=0"`
}

// ActionRequest - тело POST /api/views/:page/items/:id/actions/:action.
type ActionRequest struct {
	Confirmed bool   `json:"confirmed"`
	Reason    string `json:"reason" binding:"max=1000"`
}

// CommandRequest - тело POST /api/views/:page/commands/:command.
type CommandRequest struct {
	Args map[string]string `json:"args"`
}

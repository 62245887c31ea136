package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

// IDValidator проверяет, что параметр является положительным числовым идентификатором StayMate.
// Использование: views.POST("/:page/items/:id/toggle", IDValidator("id"), handler.Toggle)
func IDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		if raw == "" {
			abortWithError(c, apperror.New(apperror.ErrCodeValidation, "параметр "+paramName+" обязателен"))
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			abortWithError(c, apperror.New(apperror.ErrCodeValidation, "параметр "+paramName+" должен быть положительным числом"))
			return
		}

		c.Set(paramName, id)
		c.Next()
	}
}

// IDParam возвращает идентификатор, проверенный IDValidator.
func IDParam(c *gin.Context, paramName string) (int64, error) {
	if v, ok := c.Get(paramName); ok {
		if id, ok := v.(int64); ok {
			return id, nil
		}
	}
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.New(apperror.ErrCodeValidation, "параметр "+paramName+" должен быть положительным числом")
	}
	return id, nil
}

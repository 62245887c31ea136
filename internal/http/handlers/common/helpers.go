package common

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

// BindAndValidate читает JSON тело и возвращает ошибку валидации в формате приложения.
func BindAndValidate(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, "некорректное тело запроса")
	}
	return nil
}

// Fail передаёт ошибку в middleware.ErrorHandler и прерывает цепочку.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// RespondJSON отвечает JSON с указанным статусом.
func RespondJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RespondNoContent отвечает 204 без тела.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/staymate/staymate-bff/internal/dto"
	"github.com/staymate/staymate-bff/internal/logger"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

const internalMessage = "внутренняя ошибка сервера"

// ErrorHandler обрабатывает ошибки централизованно.
// Хэндлеры кладут ошибку через c.Error, ответ формируется здесь.
// Внутренние ошибки маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, body := Describe(err)

		entry := logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.FullPath(),
			"method": c.Request.Method,
			"status": status,
		})
		if status >= http.StatusInternalServerError {
			entry.Error("request error")
		} else {
			entry.Debug("request rejected")
		}

		c.JSON(status, body)
	}
}

// Describe переводит ошибку в HTTP статус и тело ответа.
func Describe(err error) (int, dto.ErrorResponse) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, dto.ErrorResponse{
			Error: internalMessage,
			Code:  string(apperror.ErrCodeInternal),
		}
	}

	body := dto.ErrorResponse{
		Error: apperror.UserMessage(err, internalMessage),
		Code:  string(appErr.Code),
	}
	if appErr.Code == apperror.ErrCodeConfirmation {
		body.Prompt = appErr.Message
	}
	return appErr.HTTPStatus, body
}

func abortWithError(c *gin.Context, err error) {
	status, body := Describe(err)
	c.AbortWithStatusJSON(status, body)
}

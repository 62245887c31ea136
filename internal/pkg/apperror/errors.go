package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeUpstream      ErrorCode = "UPSTREAM_ERROR"
	ErrCodeUnavailable   ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeConfirmation  ErrorCode = "CONFIRMATION_REQUIRED"
	ErrCodeInFlight      ErrorCode = "ACTION_IN_FLIGHT"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал с шаблонными ошибками ниже.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && (t.Message == "" || e.Message == t.Message)
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// FromUpstream переводит HTTP статус ответа StayMate API в ошибку приложения.
// message - человекочитаемый текст из тела ответа (может быть пустым).
func FromUpstream(status int, message string) *AppError {
	code := ErrCodeUpstream
	switch {
	case status == http.StatusNotFound:
		code = ErrCodeNotFound
	case status == http.StatusUnauthorized:
		code = ErrCodeUnauthorized
	case status == http.StatusForbidden:
		code = ErrCodeForbidden
	case status == http.StatusConflict:
		code = ErrCodeConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		code = ErrCodeValidation
	case status >= 500:
		code = ErrCodeUnavailable
	}
	if message == "" {
		message = defaultMessage(code)
	}
	return &AppError{Code: code, Message: message, HTTPStatus: codeToHTTPStatus(code)}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeConfirmation, ErrCodeInFlight:
		return http.StatusConflict
	case ErrCodeUpstream, ErrCodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func defaultMessage(code ErrorCode) string {
	switch code {
	case ErrCodeNotFound:
		return "ресурс не найден"
	case ErrCodeUnauthorized:
		return "требуется авторизация"
	case ErrCodeForbidden:
		return "недостаточно прав"
	case ErrCodeValidation:
		return "некорректный запрос"
	case ErrCodeConflict:
		return "конфликт состояния"
	case ErrCodeUnavailable:
		return "сервис временно недоступен"
	default:
		return "ошибка внешнего сервиса"
	}
}

// UserMessage возвращает текст, безопасный для показа пользователю в уведомлении.
// Внутренние ошибки маскируются.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != ErrCodeInternal && appErr.Code != ErrCodeDatabaseError {
		return appErr.Message
	}
	return fallback
}

// StatusOf возвращает HTTP статус для ошибки (500 для неизвестных).
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsUnauthorized(err error) bool {
	return hasCode(err, ErrCodeUnauthorized)
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

var (
	ErrSessionNotFound      = New(ErrCodeUnauthorized, "сессия не найдена или истекла")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden            = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials   = New(ErrCodeUnauthorized, "неверные учетные данные")
	ErrPageNotFound         = New(ErrCodeNotFound, "страница не найдена")
	ErrItemNotFound         = New(ErrCodeNotFound, "элемент не найден в списке")
	ErrActionNotFound       = New(ErrCodeNotFound, "действие не поддерживается")
	ErrConfirmationRequired = New(ErrCodeConfirmation, "требуется подтверждение действия")
	ErrActionInFlight       = New(ErrCodeInFlight, "действие уже выполняется")
)

func IsConfirmationRequired(err error) bool {
	return hasCode(err, ErrCodeConfirmation)
}

func IsInFlight(err error) bool {
	return hasCode(err, ErrCodeInFlight)
}

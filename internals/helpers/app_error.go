package helper

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindNotFound        ErrorKind = "not_found"
	KindConflict        ErrorKind = "conflict"
	KindUnauthorized    ErrorKind = "unauthorized"
	KindForbidden       ErrorKind = "forbidden"
	KindUpstreamTimeout ErrorKind = "upstream_timeout"
	KindUpstream        ErrorKind = "upstream"
)

// AppError is the domain error every service returns. ErrorHandler renders it.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  map[string][]string
	Details any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		if len(e.Fields) > 0 {
			return fiber.StatusUnprocessableEntity
		}
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindUpstreamTimeout:
		return fiber.StatusGatewayTimeout
	case KindUpstream:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func Validation(format string, args ...any) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func ValidationFields(fields map[string][]string) *AppError {
	return &AppError{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: "validation failed", Fields: fields}
}

func NotFound(format string, args ...any) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code string, format string, args ...any) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg}
}

func Upstream(msg string, err error) *AppError {
	return &AppError{Kind: KindUpstream, Code: "UPSTREAM_ERROR", Message: msg, Err: err}
}

func UpstreamTimeout(msg string, err error) *AppError {
	return &AppError{Kind: KindUpstreamTimeout, Code: "UPSTREAM_TIMEOUT", Message: msg, Err: err}
}

func IsKind(err error, kind ErrorKind) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Kind == kind
}

// ErrorHandler is installed as fiber.Config.ErrorHandler.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ae *AppError
		if errors.As(err, &ae) {
			status := ae.Status()
			if status >= 500 {
				log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			if len(ae.Fields) > 0 {
				return JsonValidationError(c, ae.Fields)
			}
			code := ae.Code
			if code == "" {
				code = statusToErrorCode(status)
			}
			return c.Status(status).JSON(ErrorResponse{
				Success:   false,
				Message:   ae.Message,
				ErrorCode: code,
				Details:   ae.Details,
			})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return JsonError(c, fe.Code, fe.Message)
		}

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return JsonValidationError(c, ValidationErrorMap(ve))
		}

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return JsonError(c, fiber.StatusNotFound, "resource not found")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return JsonError(c, fiber.StatusConflict, "resource already exists")
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return JsonError(c, fiber.StatusBadRequest, "invalid reference to a related resource")
		}

		log.Error("unhandled error", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
		return JsonError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Error codes surfaced to RPC and HTTP clients.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeTooLarge        = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedType = "UNSUPPORTED_MEDIA_TYPE"
	CodeUnavailable     = "SERVICE_UNAVAILABLE"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeBadRequest, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewTooManyRequests(message string) error {
	return NewDomainError(CodeTooManyRequests, message, http.StatusTooManyRequests, nil)
}

func NewPayloadTooLarge(message string, details map[string]any) error {
	return NewDomainError(CodeTooLarge, message, http.StatusRequestEntityTooLarge, details)
}

func NewUnsupportedMediaType(message string, details map[string]any) error {
	return NewDomainError(CodeUnsupportedType, message, http.StatusUnsupportedMediaType, details)
}

func NewUnavailable(message string) error {
	return NewDomainError(CodeUnavailable, message, http.StatusServiceUnavailable, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return NewConflict("record already exists", map[string]any{"constraint": pgErr.ConstraintName}).(*DomainError)
		case "23503": // foreign_key_violation
			return NewValidationError("referenced record does not exist", map[string]any{"constraint": pgErr.ConstraintName}).(*DomainError)
		}
	}
	return NewInternalError(err).(*DomainError)
}

// MapError is ToDomainError typed as error for return statements.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// NotFoundOr maps pgx.ErrNoRows to a NOT_FOUND for resource and any other error via MapError.
func NotFoundOr(err error, resource string, details map[string]any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound(resource, details)
	}
	return MapError(err)
}

// Envelope renders err as {"error": {"code", "message", "details"?}}.
func Envelope(err *DomainError) map[string]any {
	body := map[string]any{
		"code":    err.Code,
		"message": err.Message,
	}
	if len(err.Details) > 0 {
		body["details"] = err.Details
	}
	return map[string]any{"error": body}
}

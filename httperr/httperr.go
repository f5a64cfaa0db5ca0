package httperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Machine-readable error codes. Every error that crosses a handler
// boundary carries one of these; anything uncoded is EINTERNAL.
const (
	ECONFLICT        = "conflict"
	EFORBIDDEN       = "forbidden"
	EINTERNAL        = "internal"
	EINVALID         = "invalid"
	ENOTFOUND        = "not_found"
	EUNAUTHENTICATED = "unauthenticated"
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode unwraps err looking for a coded error. Unrecognized errors
// (driver failures, context timeouts) report EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	}
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	}
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

var statusByCode = map[string]int{
	ECONFLICT:        http.StatusConflict,
	EFORBIDDEN:       http.StatusForbidden,
	EINTERNAL:        http.StatusInternalServerError,
	EINVALID:         http.StatusBadRequest,
	ENOTFOUND:        http.StatusNotFound,
	EUNAUTHENTICATED: http.StatusUnauthorized,
}

func Status(code string) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Respond writes the error as the {"error": "..."} body the API uses
// everywhere. Internal errors are logged with their cause and surfaced
// with a generic message only.
func Respond(c *gin.Context, err error) {
	code := ErrorCode(err)
	if code == EINTERNAL {
		slog.Error("internal error", "path", c.FullPath(), "err", err)
	}
	c.JSON(Status(code), gin.H{"error": ErrorMessage(err)})
}

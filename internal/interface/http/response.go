package httpapi

import (
	"errors"
	"net/http"

	alertapp "stock-alert/internal/application/alert"
	alertDomain "stock-alert/internal/domain/alert"

	"github.com/gin-gonic/gin"
)

const (
	errCodeBadRequest         = "BAD_REQUEST"
	errCodeValidation         = "VALIDATION_ERROR"
	errCodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	errCodeUnauthorized       = "AUTH_UNAUTHORIZED"
	errCodeForbidden          = "AUTH_FORBIDDEN"
	errCodeNotFound           = "NOT_FOUND"
	errCodeConflict           = "CONFLICT"
	errCodeCycleInProgress    = "ALERT_CYCLE_IN_PROGRESS"
	errCodeInternal           = "INTERNAL_ERROR"
	refreshCookieName         = "refresh_token"
)

func writeError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"success":    false,
		"error":      msg,
		"error_code": code,
	})
}

// writeDomainError 將領域錯誤對應到 HTTP 狀態碼。
func (s *Server) writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, alertDomain.ErrValidation):
		writeError(c, http.StatusBadRequest, errCodeValidation, err.Error())
	case errors.Is(err, alertDomain.ErrNotFound):
		writeError(c, http.StatusNotFound, errCodeNotFound, err.Error())
	case errors.Is(err, alertDomain.ErrConflict):
		writeError(c, http.StatusConflict, errCodeConflict, err.Error())
	case errors.Is(err, alertapp.ErrCycleInProgress):
		writeError(c, http.StatusConflict, errCodeCycleInProgress, err.Error())
	default:
		s.log.Errorw("request failed", "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, errCodeInternal, "internal error")
	}
}

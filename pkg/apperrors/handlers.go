package apperrors

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *AppError `json:"error"`
}

var debug atomic.Bool

// SetDebug controls whether wrapped causes of 5xx errors reach the client.
// Off in production.
func SetDebug(enabled bool) {
	debug.Store(enabled)
}

// GinErrorHandler - обработчик ошибок для Gin
type GinErrorHandler struct {
	Debug bool
}

func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= http.StatusInternalServerError {
		// Детали 5xx не уходят клиенту
		appErr = appErr.WithDetails(nil)
		if h.Debug && appErr.Err != nil {
			appErr = appErr.WithDetails(gin.H{"cause": appErr.Err.Error()})
		}
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{Success: false, Error: appErr})
}

// HandleError - быстрая функция-помощник для Gin
func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: debug.Load()}
	handler.HandleGinError(c, err)
}

// AsAppError - пытается преобразовать error в *AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status an error maps to.
func StatusCode(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPCode
	}
	return http.StatusInternalServerError
}

package handlers

import (
	"errors"
	"net/http"

	"trust_backend/internal/logger"
	"trust_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// ============================================================================
// 1. Базовая структура обработчика
// ============================================================================

type BaseHandler struct{}

func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// ============================================================================
// 2. Привязка запроса (с контекстным логгированием)
// ============================================================================
// Валидация полей выполняется в сервисах, здесь только разбор тела/query.

// Bind разбирает тело по Content-Type: JSON, form или multipart.
func (h *BaseHandler) Bind(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBind(obj); err != nil {
		h.handleBindError(c, err, "Invalid request body")
		return false
	}
	return true
}

func (h *BaseHandler) BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.handleBindError(c, err, "Invalid query parameters")
		return false
	}
	return true
}

func (h *BaseHandler) handleBindError(c *gin.Context, err error, message string) {
	ctx := c.Request.Context()

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		logger.CtxWarn(ctx, "Request body too large", "limit", tooLarge.Limit, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.ErrFileTooLarge)
		return
	}

	logger.CtxWarn(ctx, "Failed to bind request", "error", err.Error(), "path", c.Request.URL.Path)
	apperrors.HandleError(c, apperrors.NewBadRequestError(message+": "+err.Error()))
}

// ============================================================================
// 3. Обработчики ошибок
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.CtxWithError(ctx, "Service error", err, "path", c.Request.URL.Path)
		} else {
			logger.CtxWarn(ctx, "Service error",
				"error", appErr.Message,
				"details", appErr.Details,
				"path", c.Request.URL.Path,
			)
		}
		apperrors.HandleError(c, appErr)
	} else {
		logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.InternalError(err))
	}
}

// ============================================================================
// 4. Ответы
// ============================================================================

// SuccessResponse - стандартный конверт успешного ответа
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	ID      string      `json:"id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func (h *BaseHandler) OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

package handlers

import (
	"net/http"

	"trust_backend/internal/auth"
	"trust_backend/internal/logger"
	"trust_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	verifier auth.Verifier
}

func NewAuthHandler(base *BaseHandler, verifier auth.Verifier) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		verifier:    verifier,
	}
}

// RegisterRoutes регистрирует маршруты /auth. Токены выдаёт внешний
// провайдер, здесь только проверка.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.GET("/verify", middleware.AuthMiddleware(h.verifier), h.Verify)
	}
}

// Verify - GET /auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		// AuthMiddleware не пропустит запрос без identity
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	logger.CtxDebug(c.Request.Context(), "Token verified", "admin", identity.Admin)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    identity,
	})
}

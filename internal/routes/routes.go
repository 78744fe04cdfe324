package routes

import (
	"trust_backend/internal/handlers"
	"trust_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers, // <-- Принимаем ГОТОВЫЕ хэндлеры
) {
	// Служебные: /health, /health/ready, /metrics
	appHandlers.HealthHandler.RegisterRoutes(ginRouter)

	// Регистрация HTTP API v1
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.CaseHandler.RegisterRoutes(api)
		appHandlers.FileHandler.RegisterRoutes(api)
	}

	logger.Debug("HTTP routes registered", "routes", len(ginRouter.Routes()))
}

package services

import (
	"trust_backend/internal/storage"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	CaseService CaseService
	Storage     storage.Storage // нужен файловому хэндлеру
}

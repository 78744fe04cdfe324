package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler   *AuthHandler
	CaseHandler   *CaseHandler
	FileHandler   *FileHandler
	HealthHandler *HealthHandler
}

package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trust_backend/internal/auth"
	"trust_backend/internal/config"
	"trust_backend/internal/handlers"
	"trust_backend/internal/imageprocessor"
	"trust_backend/internal/logger"
	"trust_backend/internal/middleware"
	"trust_backend/internal/repositories"
	"trust_backend/internal/routes"
	"trust_backend/internal/services"
	"trust_backend/internal/storage"
	"trust_backend/internal/validator"
	"trust_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Dependencies - внешние ресурсы, собранные из конфига. Тесты собирают их
// вручную (memory-репозиторий, локальное хранилище, HMAC).
type Dependencies struct {
	CaseRepo repositories.CaseRepository
	Storage  storage.Storage
	Verifier auth.Verifier
	Images   *imageprocessor.Processor
	DB       *sql.DB // nil для memory-драйвера
}

func Run() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	logger.Init(cfg.Server.Env, cfg.Server.LogLevel)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.SetDebug(cfg.Server.Env == "development")
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", "error", err)
	}
	if deps.DB != nil {
		defer deps.DB.Close()
	}

	if cfg.Database.SeedDemo {
		if _, err := SeedDemoCases(ctx, deps.CaseRepo, time.Now()); err != nil {
			// Если не удалось засеять демо (проблемы с БД и т.д.) - не запускаем сервер
			logger.Fatal("Failed to seed demo cases", "error", err)
		}
	}

	ginRouter := SetupRouter(cfg, deps)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal("Server startup error", "error", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
		return
	}
	logger.Info("Server stopped")
}

func buildDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	caseRepo, sqlDB, err := openCaseRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	storageInstance, err := storage.NewStorage(storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		UseSSL:     cfg.Storage.UseSSL,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		return nil, err
	}
	logger.Info("Identity verifier initialized", "mode", cfg.Auth.Mode)

	return &Dependencies{
		CaseRepo: caseRepo,
		Storage:  storageInstance,
		Verifier: verifier,
		Images:   imageprocessor.NewProcessor(cfg.Upload.ImageQuality),
		DB:       sqlDB,
	}, nil
}

func openCaseRepository(ctx context.Context, cfg *config.Config) (repositories.CaseRepository, *sql.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("--- Using in-memory case store. Records are lost on restart. ---")
		return repositories.NewMemoryCaseRepository(), nil, nil
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.Database.DSN)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	logLevel := gormlogger.Warn
	if cfg.Server.Env == "development" {
		logLevel = gormlogger.Info
	}

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, nil, fmt.Errorf("database unavailable: %w", err)
	}
	if err := repositories.Migrate(gormDB.WithContext(ctx)); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	logger.Info("Database connected")

	return repositories.NewCaseRepository(gormDB), sqlDB, nil
}

func newVerifier(cfg config.AuthConfig) (auth.Verifier, error) {
	switch cfg.Mode {
	case "hmac":
		logger.Warn("--- HMAC token verification enabled. Use only for development. ---")
		return auth.NewHMACVerifier(cfg.JWTSecret, cfg.Issuer, cfg.Audience, cfg.AdminEmails), nil
	case "jwks":
		v, err := auth.NewJWKSVerifier(auth.JWKSOptions{
			URL:             cfg.JWKSURL,
			Issuer:          cfg.Issuer,
			Audience:        cfg.Audience,
			RefreshInterval: cfg.JWKSRefreshInterval,
			AdminEmails:     cfg.AdminEmails,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWKS verifier: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}

func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	// 1. Инициализируем сервисы
	serviceContainer := initializeServices(cfg, deps)

	// 2. Инициализируем хэндлеры
	appHandlers := initializeHandlers(cfg, serviceContainer, deps)

	// 3. Инициализируем Gin
	ginRouter := initializeGinRouter(cfg)

	// 4. Делегируем регистрацию маршрутов пакету 'routes'
	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter
}

func initializeServices(cfg *config.Config, deps *Dependencies) *services.ServiceContainer {
	var opts []services.CaseServiceOption
	if deps.Images != nil && cfg.Upload.ThumbnailSize > 0 {
		opts = append(opts, services.WithImageProcessor(deps.Images))
	}

	caseService := services.NewCaseService(deps.CaseRepo, deps.Storage, validator.New(), cfg.Upload, opts...)

	return &services.ServiceContainer{
		CaseService: caseService,
		Storage:     deps.Storage,
	}
}

func initializeHandlers(cfg *config.Config, container *services.ServiceContainer, deps *Dependencies) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler()

	var db handlers.Pinger
	if deps.DB != nil {
		db = deps.DB
	}

	return &handlers.AppHandlers{
		AuthHandler:   handlers.NewAuthHandler(baseHandler, deps.Verifier),
		CaseHandler:   handlers.NewCaseHandler(baseHandler, container.CaseService, deps.Verifier, cfg.Upload.DocumentMaxSize+cfg.Upload.ImageMaxSize),
		FileHandler:   handlers.NewFileHandler(baseHandler, container.Storage),
		HealthHandler: handlers.NewHealthHandler(db),
	}
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	return router
}

package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trust_backend/internal/auth"
	"trust_backend/internal/config"
	"trust_backend/internal/imageprocessor"
	"trust_backend/internal/logger"
	"trust_backend/internal/repositories"
	"trust_backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter(io.Discard, "test", "error")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("AUTH_MODE", "hmac")
	t.Setenv("AUTH_JWT_SECRET", "app-test-secret-0123456789")
	t.Setenv("STORAGE_BASE_PATH", t.TempDir())

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestSeedDemoCases(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryCaseRepository()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	created, err := SeedDemoCases(ctx, repo, now)
	require.NoError(t, err)
	assert.Equal(t, len(demoCases), created)

	// повторный запуск ничего не дублирует
	created, err = SeedDemoCases(ctx, repo, now)
	require.NoError(t, err)
	assert.Zero(t, created)

	all, err := repo.List(ctx, repositories.CaseFilter{})
	require.NoError(t, err)
	require.Len(t, all, len(demoCases))
	for _, c := range all {
		assert.NotEmpty(t, c.ID)
		assert.True(t, c.CreatedAt.Before(now))
		assert.Equal(t, c.CreatedAt, c.UpdatedAt)
	}
}

func TestSetupRouter(t *testing.T) {
	cfg := testConfig(t)

	store, err := storage.NewLocalStorage(storage.Config{BasePath: cfg.Storage.BasePath, BaseURL: cfg.Storage.BaseURL})
	require.NoError(t, err)
	repo := repositories.NewMemoryCaseRepository()
	_, err = SeedDemoCases(context.Background(), repo, time.Now())
	require.NoError(t, err)

	verifier, err := newVerifier(cfg.Auth)
	require.NoError(t, err)
	_, ok := verifier.(*auth.HMACVerifier)
	require.True(t, ok)

	router := SetupRouter(cfg, &Dependencies{
		CaseRepo: repo,
		Storage:  store,
		Verifier: verifier,
		Images:   imageprocessor.NewProcessor(cfg.Upload.ImageQuality),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/court-cases?limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Pagination struct {
				Total      int64 `json:"total"`
				TotalPages int   `json:"totalPages"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, int64(len(demoCases)), body.Data.Pagination.Total)
	assert.Equal(t, 3, body.Data.Pagination.TotalPages)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewVerifier_UnsupportedMode(t *testing.T) {
	_, err := newVerifier(config.AuthConfig{Mode: "ldap"})
	assert.Error(t, err)
}

func TestOpenCaseRepository_Memory(t *testing.T) {
	cfg := testConfig(t)

	repo, db, err := openCaseRepository(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.IsType(t, &repositories.MemoryCaseRepository{}, repo)
}

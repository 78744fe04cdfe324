package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHandler_ServeFile(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.store.Save(ctx, "cases/abc/document/brief.pdf", bytes.NewReader(pdf(128)), "application/pdf"))

	t.Run("inline", func(t *testing.T) {
		w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/cases/abc/document/brief.pdf", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, "inline", w.Header().Get("Content-Disposition"))
		assert.Len(t, w.Body.Bytes(), 128)
	})

	t.Run("download", func(t *testing.T) {
		w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/cases/abc/document/brief.pdf?download=true", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `attachment; filename="brief.pdf"`, w.Header().Get("Content-Disposition"))
	})

	t.Run("missing", func(t *testing.T) {
		w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/cases/abc/document/nope.pdf", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decode(t, w).Error.Code)
	})

	t.Run("traversal", func(t *testing.T) {
		w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/../config/config.yaml", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = s.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestHealthHandler_ReadyDatabaseDown(t *testing.T) {
	h := NewHealthHandler(fakePinger{err: errors.New("connection refused")})
	s := newTestServer(t)
	s.router.GET("/ready-down", h.Ready)

	w := s.do(httptest.NewRequest(http.MethodGet, "/ready-down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"down"`)
}

func TestAuthHandler_Verify(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/verify", nil)
	req.Header.Set("Authorization", adminToken(t))
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"user":{"uid":"admin-1","email":"admin@trust.org","admin":true}}`, w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/auth/verify", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

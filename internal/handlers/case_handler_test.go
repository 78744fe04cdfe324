package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trust_backend/internal/auth"
	"trust_backend/internal/config"
	"trust_backend/internal/logger"
	"trust_backend/internal/models"
	"trust_backend/internal/repositories"
	"trust_backend/internal/services"
	"trust_backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handlers-test-secret-0123456789"

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter(io.Discard, "test", "error")
}

type testServer struct {
	router *gin.Engine
	repo   *repositories.MemoryCaseRepository
	store  *storage.LocalStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := repositories.NewMemoryCaseRepository()
	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir(), BaseURL: "/api/v1/files"})
	require.NoError(t, err)

	upload := config.UploadConfig{DocumentMaxSize: 1024, ImageMaxSize: 64 * 1024, ThumbnailSize: -1}
	caseService := services.NewCaseService(repo, store, nil, upload)
	verifier := auth.NewHMACVerifier(testSecret, "", "", []string{"owner@trust.org"})

	base := NewBaseHandler()
	h := &AppHandlers{
		AuthHandler:   NewAuthHandler(base, verifier),
		CaseHandler:   NewCaseHandler(base, caseService, verifier, upload.DocumentMaxSize+upload.ImageMaxSize),
		FileHandler:   NewFileHandler(base, store),
		HealthHandler: NewHealthHandler(nil),
	}

	r := gin.New()
	h.HealthHandler.RegisterRoutes(r)
	api := r.Group("/api/v1")
	h.AuthHandler.RegisterRoutes(api)
	h.CaseHandler.RegisterRoutes(api)
	h.FileHandler.RegisterRoutes(api)

	return &testServer{router: r, repo: repo, store: store}
}

func (s *testServer) seed(t *testing.T, number, title string, status models.CaseStatus) *models.Case {
	t.Helper()
	filed, err := models.ParseDate("2024-01-10")
	require.NoError(t, err)
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &models.Case{
		Title:      title,
		CaseNumber: number,
		DateFiled:  filed,
		Status:     status,
		Priority:   models.CasePriorityMedium,
	}
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now
	require.NoError(t, s.repo.Create(context.Background(), c))
	return c
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func adminToken(t *testing.T) string {
	return bearer(t, auth.TokenParams{UID: "admin-1", Email: "admin@trust.org", Admin: true})
}

func bearer(t *testing.T, p auth.TokenParams) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, p)
	require.NoError(t, err)
	return "Bearer " + tok
}

type formFile struct {
	field, name string
	content     []byte
}

func multipartRequest(t *testing.T, method, path, authz string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	return req
}

func jsonRequest(t *testing.T, method, path, authz string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	return req
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	ID      string          `json:"id"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Domain  string `json:"domain"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func pdf(size int) []byte {
	b := []byte("%PDF-1.4\n")
	for len(b) < size {
		b = append(b, 'x')
	}
	return b
}

func TestCaseHandler_List(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "TR-1", "Land dispute", models.CaseStatusActive)
	s.seed(t, "TR-2", "Tax appeal", models.CaseStatusPending)
	s.seed(t, "TR-3", "Lease breach", models.CaseStatusPending)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/court-cases?status=Pending&sortBy=title&sortOrder=asc&limit=1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	env := decode(t, w)
	assert.True(t, env.Success)

	var data struct {
		Cases      []models.Case `json:"cases"`
		Pagination struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"totalPages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Cases, 1)
	assert.Equal(t, "Lease breach", data.Cases[0].Title)
	assert.Equal(t, int64(2), data.Pagination.Total)
	assert.Equal(t, 2, data.Pagination.TotalPages)
	assert.Equal(t, 1, data.Pagination.Limit)
}

func TestCaseHandler_ListInvalidSort(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/court-cases?sortBy=password", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", decode(t, w).Error.Code)
}

func TestCaseHandler_Get(t *testing.T) {
	s := newTestServer(t)
	c := s.seed(t, "TR-1", "Land dispute", models.CaseStatusActive)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/court-cases/"+c.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Case
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "2024-01-10", got.DateFiled.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/court-cases/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCaseHandler_Stats(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "TR-1", "A", models.CaseStatusActive)
	s.seed(t, "TR-2", "B", models.CaseStatusActive)
	s.seed(t, "TR-3", "C", models.CaseStatusClosed)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/court-cases/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		Total    int64            `json:"total"`
		ByStatus map[string]int64 `json:"byStatus"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &stats))
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus["Active"])
	assert.Equal(t, int64(1), stats.ByStatus["Closed"])
}

func TestCaseHandler_MutationsRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	c := s.seed(t, "TR-1", "Land dispute", models.CaseStatusActive)
	fields := map[string]string{"title": "New", "dateFiled": "2024-05-01"}

	tests := []struct {
		name     string
		authz    string
		wantCode int
		wantErr  string
	}{
		{"no token", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"not admin", bearer(t, auth.TokenParams{UID: "u-1", Email: "visitor@example.com"}), http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, req := range []*http.Request{
				multipartRequest(t, http.MethodPost, "/api/v1/court-cases", tt.authz, fields),
				multipartRequest(t, http.MethodPut, "/api/v1/court-cases/"+c.ID, tt.authz, fields),
				jsonRequest(t, http.MethodDelete, "/api/v1/court-cases/"+c.ID, tt.authz, nil),
			} {
				w := s.do(req)
				assert.Equal(t, tt.wantCode, w.Code, req.Method)
				assert.Equal(t, tt.wantErr, decode(t, w).Error.Code, req.Method)
			}
		})
	}

	// ничего не изменилось
	stored, err := s.repo.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Land dispute", stored.Title)
}

func TestCaseHandler_AdminByEmailList(t *testing.T) {
	s := newTestServer(t)

	body := map[string]string{"title": "JSON case", "dateFiled": "2024-05-01"}

	// неподтверждённый адрес из списка админом не считается
	w := s.do(jsonRequest(t, http.MethodPost, "/api/v1/court-cases",
		bearer(t, auth.TokenParams{UID: "squatter", Email: "owner@trust.org"}), body))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, w).Error.Code)

	w = s.do(jsonRequest(t, http.MethodPost, "/api/v1/court-cases",
		bearer(t, auth.TokenParams{UID: "owner", Email: "owner@trust.org", EmailVerified: true}), body))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w).ID)
}

func TestCaseHandler_CreateWithDocument(t *testing.T) {
	s := newTestServer(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/court-cases", adminToken(t),
		map[string]string{
			"title":      "Land dispute",
			"caseNumber": "TR-2024-001",
			"dateFiled":  "2024-01-15",
			"priority":   "high",
			"courtName":  "District Court",
		},
		formFile{field: "document", name: "petition final.pdf", content: pdf(200)},
	)
	w := s.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "Court case created successfully", env.Message)
	require.NotEmpty(t, env.ID)

	stored, err := s.repo.FindByID(context.Background(), env.ID)
	require.NoError(t, err)
	assert.Equal(t, "TR-2024-001", stored.CaseNumber)
	assert.Equal(t, models.CasePriorityHigh, stored.Priority)
	assert.Equal(t, models.CaseStatusActive, stored.Status)
	assert.Equal(t, "petition final.pdf", stored.DocumentName)
	require.True(t, strings.HasPrefix(stored.DocumentURL, "/api/v1/files/cases/"+env.ID+"/document/"), stored.DocumentURL)

	// файл отдаётся через /files
	w = s.do(httptest.NewRequest(http.MethodGet, stored.DocumentURL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, pdf(200), w.Body.Bytes())
}

func TestCaseHandler_CreateRejections(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "TR-DUP", "Existing", models.CaseStatusActive)
	valid := map[string]string{"title": "Case", "dateFiled": "2024-01-15"}

	tests := []struct {
		name     string
		fields   map[string]string
		files    []formFile
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing title",
			fields:   map[string]string{"dateFiled": "2024-01-15"},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_FAILED",
		},
		{
			name:     "bad date",
			fields:   map[string]string{"title": "Case", "dateFiled": "15/01/2024"},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_FAILED",
		},
		{
			name:     "duplicate number",
			fields:   map[string]string{"title": "Case", "dateFiled": "2024-01-15", "caseNumber": "TR-DUP"},
			wantCode: http.StatusConflict,
			wantErr:  "CONFLICT",
		},
		{
			name:     "document too large",
			fields:   valid,
			files:    []formFile{{field: "document", name: "big.pdf", content: pdf(2048)}},
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "LIMIT_EXCEEDED",
		},
		{
			name:     "image is not an image",
			fields:   valid,
			files:    []formFile{{field: "image", name: "photo.png", content: pdf(100)}},
			wantCode: http.StatusUnsupportedMediaType,
			wantErr:  "UNSUPPORTED_MEDIA_TYPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(multipartRequest(t, http.MethodPost, "/api/v1/court-cases", adminToken(t), tt.fields, tt.files...))
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantErr, decode(t, w).Error.Code)
		})
	}

	all, err := s.repo.List(context.Background(), repositories.CaseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCaseHandler_Update(t *testing.T) {
	s := newTestServer(t)
	c := s.seed(t, "TR-1", "Land dispute", models.CaseStatusActive)

	req := jsonRequest(t, http.MethodPut, "/api/v1/court-cases/"+c.ID, adminToken(t),
		map[string]string{"status": "Closed", "judgeName": "Hon. A. Rao"})
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decode(t, w)
	assert.Equal(t, "Court case updated successfully", env.Message)

	var got models.Case
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Land dispute", got.Title)
	assert.Equal(t, models.CaseStatusClosed, got.Status)
	assert.Equal(t, "Hon. A. Rao", got.JudgeName)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	// multipart с файлом
	req = multipartRequest(t, http.MethodPut, "/api/v1/court-cases/"+c.ID, adminToken(t),
		map[string]string{"title": "Land dispute (appeal)"},
		formFile{field: "document", name: "appeal.pdf", content: pdf(64)},
	)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := s.repo.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Land dispute (appeal)", stored.Title)
	assert.Equal(t, "appeal.pdf", stored.DocumentName)
	exists, err := s.store.Exists(context.Background(), stored.DocumentKey)
	require.NoError(t, err)
	assert.True(t, exists)

	w = s.do(jsonRequest(t, http.MethodPut, "/api/v1/court-cases/"+uuid.NewString(), adminToken(t), map[string]string{"title": "x"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCaseHandler_Delete(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartRequest(t, http.MethodPost, "/api/v1/court-cases", adminToken(t),
		map[string]string{"title": "Doomed", "dateFiled": "2024-01-15"},
		formFile{field: "document", name: "doc.pdf", content: pdf(32)},
	))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w).ID

	stored, err := s.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	key := stored.DocumentKey

	w = s.do(jsonRequest(t, http.MethodDelete, "/api/v1/court-cases/"+id, adminToken(t), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Court case deleted successfully", decode(t, w).Message)

	exists, err := s.store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, exists)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/court-cases/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(jsonRequest(t, http.MethodDelete, "/api/v1/court-cases/"+id, adminToken(t), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

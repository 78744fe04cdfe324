package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"trust_backend/internal/auth"
	"trust_backend/internal/middleware"
	"trust_backend/internal/services"
	"trust_backend/internal/services/dto"
	"trust_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// multipartOverhead - запас на текстовые поля формы сверх лимитов файлов
const multipartOverhead = 1 << 20

type CaseHandler struct {
	*BaseHandler
	caseService services.CaseService
	verifier    auth.Verifier
	maxBodySize int64
}

func NewCaseHandler(base *BaseHandler, caseService services.CaseService, verifier auth.Verifier, maxUploadBytes int64) *CaseHandler {
	return &CaseHandler{
		BaseHandler: base,
		caseService: caseService,
		verifier:    verifier,
		maxBodySize: maxUploadBytes + multipartOverhead,
	}
}

func (h *CaseHandler) RegisterRoutes(r *gin.RouterGroup) {
	cases := r.Group("/court-cases")
	{
		// Public
		cases.GET("", h.ListCases)
		cases.GET("/stats", h.GetStats)
		cases.GET("/:id", h.GetCase)

		// Admin only
		admin := cases.Group("", middleware.AuthMiddleware(h.verifier), middleware.RequireAdmin())
		admin.POST("", h.CreateCase)
		admin.PUT("/:id", h.UpdateCase)
		admin.DELETE("/:id", h.DeleteCase)
	}
}

// ListCases - GET /court-cases?page=&limit=&status=&search=&sortBy=&sortOrder=
func (h *CaseHandler) ListCases(c *gin.Context) {
	var query dto.CaseListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.caseService.List(c.Request.Context(), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, result)
}

func (h *CaseHandler) GetStats(c *gin.Context) {
	stats, err := h.caseService.Stats(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, stats)
}

func (h *CaseHandler) GetCase(c *gin.Context) {
	cs, err := h.caseService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, cs)
}

// CreateCase - POST /court-cases, multipart (document, image) или JSON без файлов
func (h *CaseHandler) CreateCase(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize)

	var req dto.CreateCaseRequest
	if !h.Bind(c, &req) {
		return
	}
	document, image, cleanup, ok := h.formFiles(c)
	if !ok {
		return
	}
	defer cleanup()

	created, err := h.caseService.Create(c.Request.Context(), &req, document, image)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Court case created successfully",
		ID:      created.ID,
		Data:    created,
	})
}

func (h *CaseHandler) UpdateCase(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize)

	var req dto.UpdateCaseRequest
	if c.Request.ContentLength != 0 && !h.Bind(c, &req) {
		return
	}
	document, image, cleanup, ok := h.formFiles(c)
	if !ok {
		return
	}
	defer cleanup()

	updated, err := h.caseService.Update(c.Request.Context(), c.Param("id"), &req, document, image)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Court case updated successfully",
		Data:    updated,
	})
}

func (h *CaseHandler) DeleteCase(c *gin.Context) {
	if err := h.caseService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Court case deleted successfully"})
}

// formFiles opens the optional "document" and "image" parts.
func (h *CaseHandler) formFiles(c *gin.Context) (document, image *dto.FileUpload, cleanup func(), ok bool) {
	var opened []multipart.File
	cleanup = func() {
		for _, f := range opened {
			f.Close()
		}
	}

	open := func(field string) (*dto.FileUpload, bool) {
		if c.Request.MultipartForm == nil {
			return nil, true
		}
		fh, err := c.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		if err != nil {
			h.handleBindError(c, err, "Invalid "+field+" upload")
			return nil, false
		}
		f, err := fh.Open()
		if err != nil {
			h.HandleServiceError(c, apperrors.NewBadRequestError("Failed to open "+field+" upload").WithError(err))
			return nil, false
		}
		opened = append(opened, f)
		return &dto.FileUpload{Filename: fh.Filename, Size: fh.Size, Reader: f}, true
	}

	if document, ok = open("document"); !ok {
		cleanup()
		return nil, nil, func() {}, false
	}
	if image, ok = open("image"); !ok {
		cleanup()
		return nil, nil, func() {}, false
	}
	return document, image, cleanup, true
}

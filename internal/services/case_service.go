package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"trust_backend/internal/config"
	"trust_backend/internal/imageprocessor"
	"trust_backend/internal/logger"
	"trust_backend/internal/models"
	"trust_backend/internal/repositories"
	"trust_backend/internal/services/dto"
	"trust_backend/internal/storage"
	"trust_backend/internal/validator"
	"trust_backend/pkg/apperrors"

	"github.com/google/uuid"
)

// ============================================
// COURT CASE SERVICE
// ============================================

// CaseService is the single authority for court case CRUD, search, sort and
// pagination. It performs no privilege checks; callers gate mutations.
type CaseService interface {
	List(ctx context.Context, query *dto.CaseListQuery) (*dto.CaseListResult, error)
	Get(ctx context.Context, id string) (*models.Case, error)
	Create(ctx context.Context, req *dto.CreateCaseRequest, document, image *dto.FileUpload) (*models.Case, error)
	Update(ctx context.Context, id string, req *dto.UpdateCaseRequest, document, image *dto.FileUpload) (*models.Case, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*dto.CaseStats, error)
}

type caseService struct {
	caseRepo  repositories.CaseRepository
	storage   storage.Storage
	images    *imageprocessor.Processor
	validator *validator.Validator
	upload    config.UploadConfig
	now       func() time.Time
}

type CaseServiceOption func(*caseService)

// WithClock overrides time.Now, used by tests.
func WithClock(now func() time.Time) CaseServiceOption {
	return func(s *caseService) { s.now = now }
}

// WithImageProcessor enables thumbnails for case images.
func WithImageProcessor(p *imageprocessor.Processor) CaseServiceOption {
	return func(s *caseService) { s.images = p }
}

func NewCaseService(
	caseRepo repositories.CaseRepository,
	storage storage.Storage,
	v *validator.Validator,
	upload config.UploadConfig,
	opts ...CaseServiceOption,
) CaseService {
	if v == nil {
		v = validator.New()
	}
	upload.ApplyDefaults()

	s := &caseService{
		caseRepo:  caseRepo,
		storage:   storage,
		validator: v,
		upload:    upload,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================
// READ
// ============================================

func (s *caseService) List(ctx context.Context, query *dto.CaseListQuery) (*dto.CaseListResult, error) {
	opts, err := normalizeListQuery(query)
	if err != nil {
		return nil, err
	}

	// статус фильтруется на стороне хранилища, поиск по подстроке - здесь
	all, err := s.caseRepo.List(ctx, repositories.CaseFilter{Status: opts.status})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	matched := make([]*models.Case, 0, len(all))
	for _, c := range all {
		if matchesSearch(c, opts.search) {
			matched = append(matched, c)
		}
	}
	sortCases(matched, opts.sortBy, opts.desc)

	page, pagination := paginate(matched, opts.page, opts.limit)
	return &dto.CaseListResult{Cases: page, Pagination: pagination}, nil
}

func (s *caseService) Get(ctx context.Context, id string) (*models.Case, error) {
	c, err := s.caseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, handleCaseError(err)
	}
	return c, nil
}

func (s *caseService) Stats(ctx context.Context) (*dto.CaseStats, error) {
	counts, err := s.caseRepo.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	stats := &dto.CaseStats{ByStatus: make(map[string]int64, len(counts))}
	for status, n := range counts {
		stats.ByStatus[status] = n
		stats.Total += n
	}
	return stats, nil
}

// ============================================
// CREATE
// ============================================

// Create persists the record first, then the blobs, then patches the record
// with their references. If any blob or the patch fails, the blobs written so
// far and the record are removed again and StorageError is returned.
func (s *caseService) Create(ctx context.Context, req *dto.CreateCaseRequest, document, image *dto.FileUpload) (*models.Case, error) {
	if req == nil {
		return nil, apperrors.NewBadRequestError("request body is required")
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	files, err := s.prepareFiles(document, image)
	if err != nil {
		return nil, err
	}

	caseNumber := strings.TrimSpace(req.CaseNumber)
	if caseNumber != "" {
		if err := s.ensureCaseNumberFree(ctx, caseNumber, ""); err != nil {
			return nil, err
		}
	} else if caseNumber, err = s.generateCaseNumber(ctx); err != nil {
		return nil, err
	}

	dateFiled, _ := models.ParseDate(req.DateFiled) // checked by is-date
	priority := models.CasePriorityMedium
	if p, ok := models.ParseCasePriority(req.Priority); ok {
		priority = p
	}
	status := models.CaseStatus(strings.TrimSpace(req.Status))
	if status == "" {
		status = models.CaseStatusActive
	}

	ts := s.timestamp()
	c := &models.Case{
		Title:       strings.TrimSpace(req.Title),
		CaseNumber:  caseNumber,
		Description: req.Description,
		DateFiled:   dateFiled,
		Status:      status,
		Priority:    priority,
		CourtName:   strings.TrimSpace(req.CourtName),
		JudgeName:   strings.TrimSpace(req.JudgeName),
		Plaintiff:   strings.TrimSpace(req.Plaintiff),
		Defendant:   strings.TrimSpace(req.Defendant),
		CaseType:    strings.TrimSpace(req.CaseType),
	}
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = ts, ts

	if err := s.caseRepo.Create(ctx, c); err != nil {
		return nil, handleCaseError(err)
	}

	if len(files) == 0 {
		logger.CtxInfo(ctx, "court case created", "case_id", c.ID, "case_number", c.CaseNumber)
		return c, nil
	}

	for _, f := range files {
		if err := s.attachFile(ctx, c, f); err != nil {
			s.rollbackCreate(ctx, c)
			return nil, apperrors.StorageError(err)
		}
	}
	if err := s.caseRepo.Update(ctx, c); err != nil {
		s.rollbackCreate(ctx, c)
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "court case created", "case_id", c.ID, "case_number", c.CaseNumber, "files", len(files))
	return c, nil
}

func (s *caseService) rollbackCreate(ctx context.Context, c *models.Case) {
	s.deleteBlobs(ctx, c.BlobKeys()...)
	if err := s.caseRepo.Delete(ctx, c.ID); err != nil && !errors.Is(err, repositories.ErrCaseNotFound) {
		logger.CtxWithError(ctx, "failed to remove orphaned court case", err, "case_id", c.ID)
	}
}

// ============================================
// UPDATE
// ============================================

// Update merges the supplied fields. A replaced or removed file loses its
// previous blob best-effort; updatedAt is always refreshed.
func (s *caseService) Update(ctx context.Context, id string, req *dto.UpdateCaseRequest, document, image *dto.FileUpload) (*models.Case, error) {
	if req == nil {
		req = &dto.UpdateCaseRequest{}
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	files, err := s.prepareFiles(document, image)
	if err != nil {
		return nil, err
	}

	existing, err := s.caseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, handleCaseError(err)
	}

	updated := existing.Clone()
	applyUpdate(updated, req)

	if updated.CaseNumber != existing.CaseNumber {
		if err := s.ensureCaseNumberFree(ctx, updated.CaseNumber, id); err != nil {
			return nil, err
		}
	}

	// ссылки, которые удаляются флагами, чистим после сохранения записи
	var staleKeys []string
	if req.RemoveDocument {
		staleKeys = append(staleKeys, existing.DocumentKey)
		updated.ClearDocument()
	}
	if req.RemoveImage {
		staleKeys = append(staleKeys, existing.ImageKey, existing.ThumbnailKey)
		updated.ClearImage()
	}

	ts := s.timestamp()
	if ts.Before(existing.UpdatedAt) {
		ts = existing.UpdatedAt
	}
	updated.UpdatedAt = ts

	var written []string
	for i, f := range files {
		// прежний blob удаляется до записи нового
		if f.kind == kindDocument {
			s.deleteBlobs(ctx, updated.DocumentKey)
			updated.ClearDocument()
		} else {
			s.deleteBlobs(ctx, updated.ImageKey, updated.ThumbnailKey)
			updated.ClearImage()
		}

		if err := s.attachFile(ctx, updated, f); err != nil {
			s.deleteBlobs(ctx, written...)
			s.dropDanglingRefs(ctx, existing, files[:i+1], ts)
			return nil, apperrors.StorageError(err)
		}
		if f.kind == kindDocument {
			written = append(written, updated.DocumentKey)
		} else {
			written = append(written, updated.ImageKey, updated.ThumbnailKey)
		}
	}

	if err := s.caseRepo.Update(ctx, updated); err != nil {
		// прежние blob'ы уже удалены, запись не должна на них ссылаться
		s.deleteBlobs(ctx, written...)
		s.dropDanglingRefs(ctx, existing, files, ts)
		return nil, handleCaseError(err)
	}
	s.deleteBlobs(ctx, unreferenced(staleKeys, updated)...)

	logger.CtxInfo(ctx, "court case updated", "case_id", id)
	return updated, nil
}

// dropDanglingRefs runs when a replacement upload failed after the previous
// blob was already deleted: the stored record must not keep pointing at it.
func (s *caseService) dropDanglingRefs(ctx context.Context, existing *models.Case, files []*preparedFile, ts time.Time) {
	fallback := existing.Clone()
	for _, f := range files {
		if f.kind == kindDocument {
			fallback.ClearDocument()
		} else {
			fallback.ClearImage()
		}
	}
	fallback.UpdatedAt = ts
	if err := s.caseRepo.Update(ctx, fallback); err != nil {
		logger.CtxWithError(ctx, "failed to clear file references after upload failure", err, "case_id", existing.ID)
	}
}

// unreferenced drops keys the case still points at: a new upload may have
// landed on the same key as the removed one.
func unreferenced(keys []string, c *models.Case) []string {
	live := c.BlobKeys()
	out := keys[:0:0]
	for _, k := range keys {
		if k != "" && !slices.Contains(live, k) {
			out = append(out, k)
		}
	}
	return out
}

func applyUpdate(c *models.Case, req *dto.UpdateCaseRequest) {
	setTrimmed := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}

	setTrimmed(&c.Title, req.Title)
	setTrimmed(&c.CaseNumber, req.CaseNumber)
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.DateFiled != nil {
		c.DateFiled, _ = models.ParseDate(*req.DateFiled) // checked by is-date
	}
	if req.Status != nil {
		if status := strings.TrimSpace(*req.Status); status != "" {
			c.Status = models.CaseStatus(status)
		}
	}
	if req.Priority != nil {
		c.Priority, _ = models.ParseCasePriority(*req.Priority)
	}
	setTrimmed(&c.CourtName, req.CourtName)
	setTrimmed(&c.JudgeName, req.JudgeName)
	setTrimmed(&c.Plaintiff, req.Plaintiff)
	setTrimmed(&c.Defendant, req.Defendant)
	setTrimmed(&c.CaseType, req.CaseType)
}

// ============================================
// DELETE
// ============================================

func (s *caseService) Delete(ctx context.Context, id string) error {
	c, err := s.caseRepo.FindByID(ctx, id)
	if err != nil {
		return handleCaseError(err)
	}

	s.deleteBlobs(ctx, c.BlobKeys()...)

	if err := s.caseRepo.Delete(ctx, id); err != nil {
		return handleCaseError(err)
	}

	logger.CtxInfo(ctx, "court case deleted", "case_id", id)
	return nil
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ МЕТОДЫ
// ============================================

func (s *caseService) validate(req interface{}) error {
	err := s.validator.Validate(req)
	if err == nil {
		return nil
	}
	var vErr *validator.ValidationError
	if errors.As(err, &vErr) {
		return apperrors.ValidationError(vErr.Errors)
	}
	return apperrors.InternalError(err)
}

func (s *caseService) prepareFiles(document, image *dto.FileUpload) ([]*preparedFile, error) {
	var files []*preparedFile
	for _, in := range []struct {
		kind fileKind
		file *dto.FileUpload
	}{{kindDocument, document}, {kindImage, image}} {
		f, err := s.prepareFile(in.kind, in.file)
		if err != nil {
			return nil, err
		}
		if f != nil {
			files = append(files, f)
		}
	}
	return files, nil
}

func (s *caseService) ensureCaseNumberFree(ctx context.Context, caseNumber, selfID string) error {
	other, err := s.caseRepo.FindByCaseNumber(ctx, caseNumber)
	if errors.Is(err, repositories.ErrCaseNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	if other.ID == selfID {
		return nil
	}
	return apperrors.ErrDuplicateCaseNumber.WithDetails(map[string]string{"caseNumber": caseNumber})
}

const maxCaseNumberAttempts = 1000

// generateCaseNumber returns CASE-<unix millis>, bumping the number until free.
func (s *caseService) generateCaseNumber(ctx context.Context) (string, error) {
	ms := s.now().UnixMilli()
	for i := 0; i < maxCaseNumberAttempts; i++ {
		candidate := fmt.Sprintf("CASE-%d", ms+int64(i))
		_, err := s.caseRepo.FindByCaseNumber(ctx, candidate)
		if errors.Is(err, repositories.ErrCaseNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", apperrors.DatabaseError(err)
		}
	}
	return "", apperrors.InternalError(errors.New("could not allocate a case number"))
}

// timestamp: UTC, microsecond precision so every store round-trips it.
func (s *caseService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func handleCaseError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrCaseNotFound):
		return apperrors.ErrCaseNotFound
	case errors.Is(err, repositories.ErrDuplicateCaseNumber):
		return apperrors.ErrDuplicateCaseNumber
	default:
		return apperrors.DatabaseError(err)
	}
}

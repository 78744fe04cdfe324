package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"trust_backend/internal/logger"
	"trust_backend/internal/models"
	"trust_backend/internal/services/dto"
	"trust_backend/pkg/apperrors"

	"github.com/gabriel-vasile/mimetype"
)

type fileKind string

const (
	kindDocument fileKind = "document"
	kindImage    fileKind = "image"

	maxStoredNameLen = 120
)

// preparedFile is an upload that passed size and type checks and is fully
// buffered, so nothing touches the stores before validation is done.
type preparedFile struct {
	kind        fileKind
	name        string // original file name as shown to users
	contentType string // sniffed, not client supplied
	data        []byte
}

func (s *caseService) prepareFile(kind fileKind, f *dto.FileUpload) (*preparedFile, error) {
	if f == nil || f.Reader == nil {
		return nil, nil
	}

	limit, allowed := s.upload.DocumentMaxSize, s.upload.DocumentTypes
	if kind == kindImage {
		limit, allowed = s.upload.ImageMaxSize, s.upload.ImageTypes
	}
	tooLarge := apperrors.ErrFileTooLarge.WithDetails(map[string]interface{}{
		"field":   string(kind),
		"maxSize": limit,
	})

	if f.Size > limit {
		return nil, tooLarge
	}
	data, err := io.ReadAll(io.LimitReader(f.Reader, limit+1))
	if err != nil {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("failed to read %s upload", kind)).WithError(err)
	}
	if int64(len(data)) > limit {
		return nil, tooLarge
	}
	if len(data) == 0 {
		return nil, apperrors.ErrEmptyFile.WithDetails(map[string]string{"field": string(kind)})
	}

	mt := mimetype.Detect(data)
	if !mimeAllowed(mt, allowed) {
		return nil, apperrors.ErrInvalidFileType.WithDetails(map[string]interface{}{
			"field":    string(kind),
			"detected": mt.String(),
			"allowed":  allowed,
		})
	}

	return &preparedFile{
		kind:        kind,
		name:        originalFilename(f.Filename, kind),
		contentType: mt.String(),
		data:        data,
	}, nil
}

func mimeAllowed(mt *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if mt.Is(a) {
			return true
		}
	}
	return false
}

// originalFilename strips any client-side directories.
func originalFilename(name string, kind fileKind) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return string(kind)
	}
	return name
}

// sanitizeFilename keeps [A-Za-z0-9._-], everything else becomes '_'.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxStoredNameLen {
		ext := path.Ext(out)
		if len(ext) > 16 {
			ext = ""
		}
		out = out[:maxStoredNameLen-len(ext)] + ext
	}
	if out == "" {
		return "file"
	}
	return out
}

// blobKey: cases/<id>/<kind>/<sanitized name>
func blobKey(caseID string, kind fileKind, filename string) string {
	return fmt.Sprintf("cases/%s/%s/%s", caseID, kind, sanitizeFilename(filename))
}

func thumbnailKey(caseID, imageName string) string {
	name := sanitizeFilename(imageName)
	base := strings.TrimSuffix(name, path.Ext(name))
	return fmt.Sprintf("cases/%s/%s/thumb-%s.jpg", caseID, kindImage, base)
}

func (s *caseService) saveBlob(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := s.storage.Save(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return "", err
	}
	return s.storage.GetURL(ctx, key)
}

// attachFile stores f and points c at it. For images a thumbnail is made
// best-effort; its failure never fails the upload.
func (s *caseService) attachFile(ctx context.Context, c *models.Case, f *preparedFile) error {
	key := blobKey(c.ID, f.kind, f.name)
	url, err := s.saveBlob(ctx, key, f.data, f.contentType)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", f.kind, err)
	}

	if f.kind == kindDocument {
		c.DocumentURL, c.DocumentName, c.DocumentKey = url, f.name, key
		return nil
	}

	c.ImageURL, c.ImageName, c.ImageKey = url, f.name, key
	c.ThumbnailURL, c.ThumbnailKey = "", ""
	s.attachThumbnail(ctx, c, f)
	return nil
}

func (s *caseService) attachThumbnail(ctx context.Context, c *models.Case, f *preparedFile) {
	if s.images == nil || s.upload.ThumbnailSize <= 0 {
		return
	}

	thumb, err := s.images.Thumbnail(bytes.NewReader(f.data), s.upload.ThumbnailSize)
	if err != nil {
		logger.CtxWarn(ctx, "thumbnail generation failed", "case_id", c.ID, "error", err.Error())
		return
	}

	key := thumbnailKey(c.ID, f.name)
	url, err := s.saveBlob(ctx, key, thumb, "image/jpeg")
	if err != nil {
		logger.CtxWithError(ctx, "failed to store thumbnail", err, "case_id", c.ID, "key", key)
		return
	}
	c.ThumbnailURL, c.ThumbnailKey = url, key
}

// deleteBlobs is best-effort: failures are logged and swallowed.
func (s *caseService) deleteBlobs(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			logger.CtxWithError(ctx, "failed to delete blob", err, "key", key)
		}
	}
}

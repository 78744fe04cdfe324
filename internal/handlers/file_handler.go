package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"trust_backend/internal/logger"
	"trust_backend/internal/storage"
	"trust_backend/pkg/apperrors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// signedURLExpiry - срок жизни ссылки при редиректе на S3/R2
const signedURLExpiry = 15 * time.Minute

type FileHandler struct {
	*BaseHandler
	storage storage.Storage
}

func NewFileHandler(base *BaseHandler, storage storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     storage,
	}
}

func (h *FileHandler) RegisterRoutes(r *gin.RouterGroup) {
	files := r.Group("/files")
	{
		// Public file serving
		files.GET("/*path", h.ServeFile)
		files.HEAD("/*path", h.ServeFile)
	}
}

// ServeFile отдаёт блоб по ключу. Локальное хранилище стримится через
// http.ServeContent, для S3/R2 отдаётся редирект на подписанную ссылку.
func (h *FileHandler) ServeFile(c *gin.Context) {
	ctx := c.Request.Context()

	key, err := storage.CleanKey(c.Param("path"))
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid file path"))
		return
	}

	if _, local := h.storage.(*storage.LocalStorage); !local {
		url, err := h.storage.GetSignedURL(ctx, key, signedURLExpiry)
		if err != nil {
			h.HandleServiceError(c, apperrors.StorageError(err))
			return
		}
		c.Redirect(http.StatusFound, url)
		return
	}

	reader, err := h.storage.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		apperrors.HandleError(c, apperrors.NewNotFoundError("File not found"))
		return
	}
	if err != nil {
		h.HandleServiceError(c, apperrors.StorageError(err))
		return
	}
	defer reader.Close()

	rs, ok := reader.(io.ReadSeeker)
	if !ok {
		h.HandleServiceError(c, apperrors.InternalError(fmt.Errorf("storage reader for %s is not seekable", key)))
		return
	}

	mtype, err := mimetype.DetectReader(rs)
	if err != nil {
		h.HandleServiceError(c, apperrors.StorageError(err))
		return
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		h.HandleServiceError(c, apperrors.StorageError(err))
		return
	}

	filename := path.Base(key)
	c.Header("Content-Type", mtype.String())
	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("X-Content-Type-Options", "nosniff")
	if c.Query("download") == "true" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	} else {
		c.Header("Content-Disposition", "inline")
	}

	logger.CtxDebug(ctx, "Serving file", "key", key, "content_type", mtype.String())
	http.ServeContent(c.Writer, c.Request, filename, time.Time{}, rs)
}

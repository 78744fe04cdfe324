package config

// UploadConfig holds limits for case attachments.
type UploadConfig struct {
	DocumentMaxSize int64    `yaml:"document_max_size"` // bytes
	ImageMaxSize    int64    `yaml:"image_max_size"`    // bytes
	DocumentTypes   []string `yaml:"document_types"`    // allowed MIME types
	ImageTypes      []string `yaml:"image_types"`       // allowed MIME types
	ImageQuality    int      `yaml:"image_quality"`     // JPEG quality for thumbnails (1-100)
	ThumbnailSize   int      `yaml:"thumbnail_size"`    // px, negative disables thumbnails
}

var (
	DefaultDocumentTypes = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	DefaultImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
)

const (
	DefaultDocumentMaxSize = 10 * 1024 * 1024 // 10MB
	DefaultImageMaxSize    = 5 * 1024 * 1024  // 5MB
)

// DefaultUploadConfig returns the limits used when config omits them.
func DefaultUploadConfig() UploadConfig {
	u := UploadConfig{}
	u.ApplyDefaults()
	return u
}

// ApplyDefaults fills zero values; explicit values are kept.
func (u *UploadConfig) ApplyDefaults() {
	if u.DocumentMaxSize == 0 {
		u.DocumentMaxSize = DefaultDocumentMaxSize
	}
	if u.ImageMaxSize == 0 {
		u.ImageMaxSize = DefaultImageMaxSize
	}
	if len(u.DocumentTypes) == 0 {
		u.DocumentTypes = append([]string(nil), DefaultDocumentTypes...)
	}
	if len(u.ImageTypes) == 0 {
		u.ImageTypes = append([]string(nil), DefaultImageTypes...)
	}
	if u.ImageQuality == 0 {
		u.ImageQuality = 85
	}
	if u.ThumbnailSize == 0 {
		u.ThumbnailSize = 300
	}
}

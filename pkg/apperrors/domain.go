package apperrors

import (
	"net/http"
)

// =========================================================================
// Court cases
// =========================================================================

var ErrCaseNotFound = New(
	CodeNotFound,
	"court_case",
	"Court case not found",
	http.StatusNotFound,
)

var ErrDuplicateCaseNumber = New(
	CodeConflict,
	"court_case",
	"A court case with this case number already exists",
	http.StatusConflict,
)

var ErrInvalidSortField = New(
	CodeValidationFailed,
	"court_case",
	"sortBy must be one of: createdAt, dateFiled, title, status, priority",
	http.StatusBadRequest,
)

// =========================================================================
// Uploads
// =========================================================================

// ErrFileTooLarge - файл превышает максимальный размер.
var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"validation",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge, // 413
)

// ErrInvalidFileType - MIME-тип файла не разрешен.
var ErrInvalidFileType = New(
	CodeUnsupportedMedia,
	"validation",
	"The provided file type is not allowed",
	http.StatusUnsupportedMediaType, // 415
)

var ErrEmptyFile = New(
	CodeValidationFailed,
	"validation",
	"Uploaded file is empty",
	http.StatusBadRequest,
)

// =========================================================================
// Auth
// =========================================================================

var ErrMissingToken = New(
	CodeUnauthorized,
	"auth",
	"Authorization header missing or invalid",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

// ErrInsufficientPermissions - не-админ пытается выполнить админ-действие.
var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

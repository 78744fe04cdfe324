package dto

import (
	"io"

	"trust_backend/internal/models"
)

// FileUpload is an attachment handed to the case service. The HTTP layer
// fills it from a multipart part; Size is what the client declared and is
// re-checked against the bytes actually read.
type FileUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// ==============================
// CREATE / UPDATE
// ==============================

type CreateCaseRequest struct {
	Title       string `form:"title" json:"title" validate:"required,notblank,max=255"`
	CaseNumber  string `form:"caseNumber" json:"caseNumber" validate:"max=100"`
	Description string `form:"description" json:"description"`
	DateFiled   string `form:"dateFiled" json:"dateFiled" validate:"required,is-date"`
	Status      string `form:"status" json:"status" validate:"max=50"`
	Priority    string `form:"priority" json:"priority" validate:"omitempty,is-case-priority"`
	CourtName   string `form:"courtName" json:"courtName" validate:"max=255"`
	JudgeName   string `form:"judgeName" json:"judgeName" validate:"max=255"`
	Plaintiff   string `form:"plaintiff" json:"plaintiff" validate:"max=255"`
	Defendant   string `form:"defendant" json:"defendant" validate:"max=255"`
	CaseType    string `form:"caseType" json:"caseType" validate:"max=100"`
}

// UpdateCaseRequest: nil означает "не менять".
type UpdateCaseRequest struct {
	Title       *string `form:"title" json:"title" validate:"omitnil,notblank,max=255"`
	CaseNumber  *string `form:"caseNumber" json:"caseNumber" validate:"omitnil,notblank,max=100"`
	Description *string `form:"description" json:"description"`
	DateFiled   *string `form:"dateFiled" json:"dateFiled" validate:"omitnil,required,is-date"`
	Status      *string `form:"status" json:"status" validate:"omitnil,max=50"`
	Priority    *string `form:"priority" json:"priority" validate:"omitnil,required,is-case-priority"`
	CourtName   *string `form:"courtName" json:"courtName" validate:"omitnil,max=255"`
	JudgeName   *string `form:"judgeName" json:"judgeName" validate:"omitnil,max=255"`
	Plaintiff   *string `form:"plaintiff" json:"plaintiff" validate:"omitnil,max=255"`
	Defendant   *string `form:"defendant" json:"defendant" validate:"omitnil,max=255"`
	CaseType    *string `form:"caseType" json:"caseType" validate:"omitnil,max=100"`

	RemoveDocument bool `form:"removeDocument" json:"removeDocument"`
	RemoveImage    bool `form:"removeImage" json:"removeImage"`
}

// ==============================
// LIST
// ==============================

type CaseListQuery struct {
	Page      int    `form:"page" json:"page"`
	Limit     int    `form:"limit" json:"limit"`
	Status    string `form:"status" json:"status"`
	Search    string `form:"search" json:"search"`
	SortBy    string `form:"sortBy" json:"sortBy"`
	SortOrder string `form:"sortOrder" json:"sortOrder"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type CaseListResult struct {
	Cases      []*models.Case `json:"cases"`
	Pagination Pagination     `json:"pagination"`
}

type CaseStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

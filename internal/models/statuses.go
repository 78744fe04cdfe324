package models

import "strings"

type CaseStatus string
type CasePriority string

// Known statuses. The set is open: any non-empty string is stored as is.
const (
	CaseStatusActive     CaseStatus = "Active"
	CaseStatusPending    CaseStatus = "Pending"
	CaseStatusClosed     CaseStatus = "Closed"
	CaseStatusDismissed  CaseStatus = "Dismissed"
	CaseStatusSettled    CaseStatus = "Settled"
	CaseStatusInProgress CaseStatus = "In Progress"
	CaseStatusInCourt    CaseStatus = "In Court"

	// CaseStatusAll is the list filter sentinel meaning "no status filter".
	CaseStatusAll = "all"
)

const (
	CasePriorityHigh   CasePriority = "High"
	CasePriorityMedium CasePriority = "Medium"
	CasePriorityLow    CasePriority = "Low"
)

var KnownCaseStatuses = []CaseStatus{
	CaseStatusActive,
	CaseStatusPending,
	CaseStatusClosed,
	CaseStatusDismissed,
	CaseStatusSettled,
	CaseStatusInProgress,
	CaseStatusInCourt,
}

// ParseCasePriority accepts any letter case ("high", "HIGH") and returns the
// canonical value.
func ParseCasePriority(s string) (CasePriority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return CasePriorityHigh, true
	case "medium":
		return CasePriorityMedium, true
	case "low":
		return CasePriorityLow, true
	default:
		return "", false
	}
}

// Rank orders priorities Low < Medium < High; unknown values sort first.
func (p CasePriority) Rank() int {
	switch p {
	case CasePriorityLow:
		return 1
	case CasePriorityMedium:
		return 2
	case CasePriorityHigh:
		return 3
	default:
		return 0
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trust_backend/internal/logger"
	"trust_backend/internal/models"
	"trust_backend/internal/repositories"

	"github.com/google/uuid"
)

type demoCase struct {
	number      string
	title       string
	description string
	filed       string
	status      models.CaseStatus
	priority    models.CasePriority
	court       string
	judge       string
	plaintiff   string
	df          string
	caseType    string
}

var demoCases = []demoCase{
	{
		number: "TR-2024-001", title: "Land title dispute over trust farmland",
		description: "Ownership of the trust's agricultural land is contested by a neighbouring estate.",
		filed: "2024-01-15", status: models.CaseStatusActive, priority: models.CasePriorityHigh,
		court: "District Court", judge: "Hon. R. Mehta", plaintiff: "Charitable Trust", df: "Greenfield Estates Ltd",
		caseType: "Civil",
	},
	{
		number: "TR-2024-002", title: "Donation misappropriation complaint",
		description: "Complaint regarding diversion of donated funds by a former volunteer.",
		filed: "2024-02-03", status: models.CaseStatusPending, priority: models.CasePriorityMedium,
		court: "Magistrate Court", plaintiff: "Charitable Trust", df: "J. Doe",
		caseType: "Criminal",
	},
	{
		number: "TR-2024-003", title: "Tax exemption renewal appeal",
		description: "Appeal against rejection of the annual tax exemption certificate.",
		filed: "2024-03-21", status: models.CaseStatusInProgress, priority: models.CasePriorityHigh,
		court: "Income Tax Appellate Tribunal", plaintiff: "Charitable Trust", df: "Tax Authority",
		caseType: "Tax",
	},
	{
		number: "TR-2023-014", title: "Lease agreement breach by tenant",
		description: "Tenant of the trust's community hall stopped paying rent.",
		filed: "2023-11-09", status: models.CaseStatusSettled, priority: models.CasePriorityLow,
		court: "Civil Court", judge: "Hon. A. Rao", plaintiff: "Charitable Trust", df: "Sunrise Events",
		caseType: "Civil",
	},
	{
		number: "TR-2023-007", title: "Trademark use of the trust's name",
		description: "Unauthorised use of the trust's name in fundraising materials.",
		filed: "2023-06-30", status: models.CaseStatusClosed, priority: models.CasePriorityMedium,
		court: "High Court", plaintiff: "Charitable Trust", df: "Helping Hands Society",
		caseType: "Intellectual Property",
	},
}

// SeedDemoCases загружает демонстрационные дела в переданное хранилище.
// Уже существующие номера дел пропускаются, повторный запуск безопасен.
func SeedDemoCases(ctx context.Context, repo repositories.CaseRepository, now time.Time) (int, error) {
	created := 0
	for i, d := range demoCases {
		_, err := repo.FindByCaseNumber(ctx, d.number)
		if err == nil {
			continue
		}
		if !errors.Is(err, repositories.ErrCaseNotFound) {
			return created, fmt.Errorf("failed to check demo case %s: %w", d.number, err)
		}

		filed, err := models.ParseDate(d.filed)
		if err != nil {
			return created, err
		}

		// разносим createdAt, чтобы сортировка по умолчанию была детерминированной
		ts := now.Add(time.Duration(i-len(demoCases)) * time.Minute).UTC().Truncate(time.Microsecond)
		c := &models.Case{
			Title:       d.title,
			CaseNumber:  d.number,
			Description: d.description,
			DateFiled:   filed,
			Status:      d.status,
			Priority:    d.priority,
			CourtName:   d.court,
			JudgeName:   d.judge,
			Plaintiff:   d.plaintiff,
			Defendant:   d.df,
			CaseType:    d.caseType,
		}
		c.ID = uuid.NewString()
		c.CreatedAt = ts
		c.UpdatedAt = ts

		if err := repo.Create(ctx, c); err != nil {
			return created, fmt.Errorf("failed to seed demo case %s: %w", d.number, err)
		}
		created++
	}

	logger.CtxInfo(ctx, "Demo cases seeded", "created", created, "total", len(demoCases))
	return created, nil
}

package services

import (
	"cmp"
	"slices"
	"strings"

	"trust_backend/internal/models"
	"trust_backend/internal/services/dto"
	"trust_backend/pkg/apperrors"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type caseSortField string

const (
	sortByCreatedAt caseSortField = "createdAt"
	sortByUpdatedAt caseSortField = "updatedAt"
	sortByDateFiled caseSortField = "dateFiled"
	sortByTitle     caseSortField = "title"
	sortByStatus    caseSortField = "status"
	sortByPriority  caseSortField = "priority"
)

// listOptions is a CaseListQuery with defaults applied and values checked.
type listOptions struct {
	page   int
	limit  int
	status string // "" = без фильтра
	search string // lower-cased
	sortBy caseSortField
	desc   bool
}

func normalizeListQuery(q *dto.CaseListQuery) (listOptions, error) {
	if q == nil {
		q = &dto.CaseListQuery{}
	}
	opts := listOptions{
		page:   max(q.Page, 1),
		limit:  q.Limit,
		search: strings.ToLower(strings.TrimSpace(q.Search)),
		sortBy: sortByCreatedAt,
		desc:   true,
	}

	if opts.limit < 1 {
		opts.limit = defaultPageLimit
	}
	opts.limit = min(opts.limit, maxPageLimit)

	status := strings.TrimSpace(q.Status)
	if !strings.EqualFold(status, models.CaseStatusAll) {
		opts.status = status
	}

	if q.SortBy != "" {
		switch f := caseSortField(q.SortBy); f {
		case sortByCreatedAt, sortByUpdatedAt, sortByDateFiled, sortByTitle, sortByStatus, sortByPriority:
			opts.sortBy = f
		default:
			return listOptions{}, apperrors.ErrInvalidSortField
		}
	}

	switch strings.ToLower(q.SortOrder) {
	case "", "desc":
	case "asc":
		opts.desc = false
	default:
		return listOptions{}, apperrors.ValidationError(map[string]string{
			"sortOrder": "Must be one of: asc, desc",
		})
	}
	return opts, nil
}

// matchesSearch: подстрока без учета регистра в title, caseNumber или description.
func matchesSearch(c *models.Case, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Title), term) ||
		strings.Contains(strings.ToLower(c.CaseNumber), term) ||
		strings.Contains(strings.ToLower(c.Description), term)
}

func compareCases(field caseSortField) func(a, b *models.Case) int {
	switch field {
	case sortByUpdatedAt:
		return func(a, b *models.Case) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case sortByDateFiled:
		return func(a, b *models.Case) int { return a.DateFiled.Time().Compare(b.DateFiled.Time()) }
	case sortByTitle:
		return func(a, b *models.Case) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case sortByStatus:
		return func(a, b *models.Case) int {
			return cmp.Compare(strings.ToLower(string(a.Status)), strings.ToLower(string(b.Status)))
		}
	case sortByPriority:
		return func(a, b *models.Case) int { return cmp.Compare(a.Priority.Rank(), b.Priority.Rank()) }
	default:
		return func(a, b *models.Case) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

// sortCases sorts in place. The input is in creation order and the sort is
// stable, so equal keys keep creation order in both directions.
func sortCases(cases []*models.Case, field caseSortField, desc bool) {
	compare := compareCases(field)
	if desc {
		asc := compare
		compare = func(a, b *models.Case) int { return -asc(a, b) }
	}
	slices.SortStableFunc(cases, compare)
}

// paginate returns the requested page; out of range pages are empty, not nil.
func paginate(cases []*models.Case, page, limit int) ([]*models.Case, dto.Pagination) {
	total := len(cases)
	p := dto.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      int64(total),
		TotalPages: (total + limit - 1) / limit,
	}

	if page > p.TotalPages {
		return []*models.Case{}, p
	}
	start := (page - 1) * limit
	end := min(start+limit, total)
	return cases[start:end], p
}

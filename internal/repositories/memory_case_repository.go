package repositories

import (
	"context"
	"sync"

	"trust_backend/internal/models"
)

// MemoryCaseRepository keeps cases in process memory. It backs the demo
// deployment and tests; records do not survive a restart.
type MemoryCaseRepository struct {
	mu       sync.RWMutex
	cases    map[string]*models.Case
	order    []string          // insertion order of ids
	byNumber map[string]string // case number -> id
}

func NewMemoryCaseRepository() *MemoryCaseRepository {
	return &MemoryCaseRepository{
		cases:    make(map[string]*models.Case),
		byNumber: make(map[string]string),
	}
}

func (r *MemoryCaseRepository) Create(_ context.Context, c *models.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cases[c.ID]; exists {
		return ErrDuplicateID
	}
	if _, exists := r.byNumber[c.CaseNumber]; exists {
		return ErrDuplicateCaseNumber
	}

	r.cases[c.ID] = c.Clone()
	r.byNumber[c.CaseNumber] = c.ID
	r.order = append(r.order, c.ID)
	return nil
}

func (r *MemoryCaseRepository) FindByID(_ context.Context, id string) (*models.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	return c.Clone(), nil
}

func (r *MemoryCaseRepository) FindByCaseNumber(_ context.Context, caseNumber string) (*models.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byNumber[caseNumber]
	if !ok {
		return nil, ErrCaseNotFound
	}
	return r.cases[id].Clone(), nil
}

func (r *MemoryCaseRepository) List(_ context.Context, filter CaseFilter) ([]*models.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cases := make([]*models.Case, 0, len(r.order))
	for _, id := range r.order {
		c := r.cases[id]
		if filter.Status != "" && string(c.Status) != filter.Status {
			continue
		}
		cases = append(cases, c.Clone())
	}
	return cases, nil
}

func (r *MemoryCaseRepository) Update(_ context.Context, c *models.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.cases[c.ID]
	if !ok {
		return ErrCaseNotFound
	}
	if owner, taken := r.byNumber[c.CaseNumber]; taken && owner != c.ID {
		return ErrDuplicateCaseNumber
	}

	updated := c.Clone()
	updated.CreatedAt = current.CreatedAt

	delete(r.byNumber, current.CaseNumber)
	r.byNumber[updated.CaseNumber] = updated.ID
	r.cases[c.ID] = updated
	return nil
}

func (r *MemoryCaseRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cases[id]
	if !ok {
		return ErrCaseNotFound
	}

	delete(r.cases, id)
	delete(r.byNumber, c.CaseNumber)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryCaseRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, c := range r.cases {
		counts[string(c.Status)]++
	}
	return counts, nil
}

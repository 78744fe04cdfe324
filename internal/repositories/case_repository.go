package repositories

import (
	"context"
	"errors"
	"fmt"

	"trust_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrCaseNotFound        = errors.New("court case not found")
	ErrDuplicateCaseNumber = errors.New("duplicate case number")
	ErrDuplicateID         = errors.New("duplicate court case id")
)

// CaseFilter narrows List at the store level. Substring search is not part
// of it: most stores cannot do it cheaply, the service does it in memory.
type CaseFilter struct {
	Status string // exact match, empty = all
}

// CaseRepository is the record store for court cases.
// List returns records in creation order (created_at, then id).
type CaseRepository interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, id string) (*models.Case, error)
	FindByCaseNumber(ctx context.Context, caseNumber string) (*models.Case, error)
	List(ctx context.Context, filter CaseFilter) ([]*models.Case, error)
	Update(ctx context.Context, c *models.Case) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type caseRepository struct {
	db *gorm.DB
}

// NewCaseRepository returns a gorm-backed store. The *gorm.DB must be opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewCaseRepository(db *gorm.DB) CaseRepository {
	return &caseRepository{db: db}
}

// Migrate creates or updates the court_cases table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Case{}); err != nil {
		return fmt.Errorf("failed to migrate court_cases: %w", err)
	}
	for _, stmt := range binaryCollationDDL(db.Dialector.Name()) {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to pin collation on court_cases: %w", err)
		}
	}
	return nil
}

// binaryCollationDDL: в MySQL колляция по умолчанию регистронезависима, и
// "tr-1"/"TR-1" столкнулись бы в уникальном индексе, а фильтр status=pending
// находил бы "Pending". Postgres и memory сравнивают байты, MySQL приводим к ним.
func binaryCollationDDL(dialect string) []string {
	if dialect != "mysql" {
		return nil
	}
	return []string{
		"ALTER TABLE court_cases" +
			" MODIFY case_number varchar(100) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL," +
			" MODIFY status varchar(50) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL",
	}
}

func (r *caseRepository) Create(ctx context.Context, c *models.Case) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	// уникальных ключа два: id и case_number
	var n int64
	if cErr := r.db.WithContext(ctx).Model(&models.Case{}).Where("id = ?", c.ID).Count(&n).Error; cErr == nil && n > 0 {
		return ErrDuplicateID
	}
	return ErrDuplicateCaseNumber
}

func (r *caseRepository) FindByID(ctx context.Context, id string) (*models.Case, error) {
	var c models.Case
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) FindByCaseNumber(ctx context.Context, caseNumber string) (*models.Case, error) {
	var c models.Case
	err := r.db.WithContext(ctx).Where("case_number = ?", caseNumber).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) List(ctx context.Context, filter CaseFilter) ([]*models.Case, error) {
	q := r.db.WithContext(ctx).Model(&models.Case{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var cases []*models.Case
	if err := q.Order("created_at ASC").Order("id ASC").Find(&cases).Error; err != nil {
		return nil, err
	}
	return cases, nil
}

// Update overwrites every column except id and created_at.
func (r *caseRepository) Update(ctx context.Context, c *models.Case) error {
	res := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Where("id = ?", c.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(c)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCaseNumber
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCaseNotFound
	}
	return nil
}

func (r *caseRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Case{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCaseNotFound
	}
	return nil
}

func (r *caseRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

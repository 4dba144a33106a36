package copies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a copies repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, copies []models.BookCopy) error {
	if len(copies) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&copies).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BookCopy, error) {
	var copyRow models.BookCopy
	if err := r.db.WithContext(ctx).First(&copyRow, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &copyRow, nil
}

func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.BookCopy, error) {
	var copyRow models.BookCopy
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Rack").
		First(&copyRow, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &copyRow, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.BookCopy, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BookCopy{})
	if filter.BookID != uuid.Nil {
		query = query.Where("book_id = ?", filter.BookID)
	}
	if filter.RackID != uuid.Nil {
		query = query.Where("rack_id = ?", filter.RackID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	normalized := page.Normalize()
	var rows []models.BookCopy
	err := query.
		Preload("Book").
		Preload("Rack").
		Order("created_at ASC").
		Limit(normalized.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Update(ctx context.Context, copyRow *models.BookCopy) (*models.BookCopy, error) {
	if err := r.db.WithContext(ctx).Save(copyRow).Error; err != nil {
		return nil, err
	}
	return copyRow, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CopyStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.BookCopy{}, "id = ?", id).Error
}

func (r *repository) CountByRack(ctx context.Context, rackID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("rack_id = ?", rackID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountOpenLoans(ctx context.Context, copyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("copy_id = ? AND status IN ?", copyID,
			[]enums.LoanStatus{enums.LoanStatusIssued, enums.LoanStatusOverdue}).
		Count(&count).Error
	return count, err
}

func (r *repository) FindOpenLoan(ctx context.Context, copyID uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("copy_id = ? AND status IN ?", copyID,
			[]enums.LoanStatus{enums.LoanStatusIssued, enums.LoanStatusOverdue}).
		Order("issue_date DESC").
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

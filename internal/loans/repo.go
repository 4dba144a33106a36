package loans

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a loans repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, loan *models.Loan) (*models.Loan, error) {
	if err := r.db.WithContext(ctx).Create(loan).Error; err != nil {
		return nil, err
	}
	return loan, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	if err := r.db.WithContext(ctx).First(&loan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Copy").
		Preload("Copy.Book").
		Preload("Member").
		First(&loan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, asOf time.Time, page pagination.Params) ([]models.Loan, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Loan{})
	if filter.MemberID != uuid.Nil {
		query = query.Where("loans.member_id = ?", filter.MemberID)
	}
	if filter.CopyID != uuid.Nil {
		query = query.Where("loans.copy_id = ?", filter.CopyID)
	}
	if filter.BookID != uuid.Nil {
		query = query.
			Joins("JOIN book_copies ON book_copies.id = loans.copy_id").
			Where("book_copies.book_id = ?", filter.BookID)
	}
	if filter.Status != "" {
		query = query.Where("loans.status = ?", filter.Status)
	}
	if filter.OverdueOnly {
		query = query.Where("loans.status IN ? AND loans.due_date < ?", openStatuses(), asOf)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	normalized := page.Normalize()
	var rows []models.Loan
	err := query.
		Preload("Copy").
		Preload("Copy.Book").
		Preload("Member").
		Order("loans.issue_date DESC").
		Limit(normalized.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) ListOverdue(ctx context.Context, asOf time.Time, page pagination.Params) ([]models.Loan, int64, error) {
	return r.List(ctx, ListFilter{OverdueOnly: true}, asOf, page)
}

func (r *repository) Update(ctx context.Context, loan *models.Loan) (*models.Loan, error) {
	if err := r.db.WithContext(ctx).Save(loan).Error; err != nil {
		return nil, err
	}
	return loan, nil
}

// ClaimCopy flips an available copy to issued. The guarded UPDATE makes the
// claim atomic: under concurrent issues for the same copy exactly one caller
// sees RowsAffected == 1.
func (r *repository) ClaimCopy(ctx context.Context, copyID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("id = ? AND status = ?", copyID, enums.CopyStatusAvailable).
		UpdateColumn("status", enums.CopyStatusIssued)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ReleaseCopy(ctx context.Context, copyID uuid.UUID, status enums.CopyStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("id = ?", copyID).
		UpdateColumn("status", status).Error
}

// TouchMemberActivity stamps the member's last_activity_at inside the same
// transaction as the circulation write, so a rollback discards both.
func (r *repository) TouchMemberActivity(ctx context.Context, memberID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", memberID).
		UpdateColumn("last_activity_at", at).Error
}

func (r *repository) Stats(ctx context.Context, asOf time.Time) (*Stats, error) {
	stats := &Stats{FinesAssessed: decimal.Zero}

	if err := r.db.WithContext(ctx).Model(&models.Loan{}).Count(&stats.TotalLoans).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("status IN ?", openStatuses()).
		Count(&stats.OpenLoans).Error; err != nil {
		return nil, err
	}
	// stored overdue flag plus anything open past its due date
	if err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("status = ? OR (status IN ? AND due_date < ?)",
			enums.LoanStatusOverdue, openStatuses(), asOf).
		Count(&stats.OverdueLoans).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("status = ?", enums.LoanStatusReturned).
		Count(&stats.ReturnedLoans).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("status = ?", enums.LoanStatusLost).
		Count(&stats.LostLoans).Error; err != nil {
		return nil, err
	}

	dayStart := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	if err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("issue_date >= ? AND issue_date < ?", dayStart, dayEnd).
		Count(&stats.IssuedToday).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("return_date >= ? AND return_date < ?", dayStart, dayEnd).
		Count(&stats.ReturnedToday).Error; err != nil {
		return nil, err
	}

	var fines decimal.NullDecimal
	if err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Select("SUM(fine_amount)").
		Scan(&fines).Error; err != nil {
		return nil, err
	}
	if fines.Valid {
		stats.FinesAssessed = fines.Decimal
	}

	return stats, nil
}

func openStatuses() []enums.LoanStatus {
	return []enums.LoanStatus{enums.LoanStatusIssued, enums.LoanStatusOverdue}
}

package members

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

// NewRepository builds a members repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, member *models.Member) (*models.Member, error) {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Member, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Member{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR phone ILIKE ?",
			pattern, pattern, pattern, pattern)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MembershipType != "" {
		query = query.Where("membership_type = ?", filter.MembershipType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	normalized := page.Normalize()
	var rows []models.Member
	err := query.
		Order("last_name ASC, first_name ASC").
		Limit(normalized.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Update(ctx context.Context, member *models.Member) (*models.Member, error) {
	if err := r.db.WithContext(ctx).Save(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Member{}, "id = ?", id).Error
}

func (r *repository) TouchLastActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		UpdateColumn("last_activity_at", at).Error
}

func (r *repository) CountOpenLoans(ctx context.Context, memberID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("member_id = ? AND status IN ?", memberID, openLoanStatuses()).
		Count(&count).Error
	return count, err
}

func (r *repository) Stats(ctx context.Context, memberID uuid.UUID, asOf time.Time) (*MemberStats, error) {
	stats := &MemberStats{TotalFines: decimal.Zero}

	if err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("member_id = ? AND status IN ?", memberID, openLoanStatuses()).
		Count(&stats.BooksIssued).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("member_id = ? AND status IN ? AND due_date < ?", memberID, openLoanStatuses(), asOf).
		Count(&stats.BooksOverdue).Error; err != nil {
		return nil, err
	}

	// Only fines on loans still out count as owed; settled loans are history.
	var totalFines decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("member_id = ? AND status IN ?", memberID, openLoanStatuses()).
		Select("SUM(fine_amount)").
		Scan(&totalFines).Error; err != nil {
		return nil, err
	}
	if totalFines.Valid {
		stats.TotalFines = totalFines.Decimal
	}

	return stats, nil
}

func (r *repository) RecentLoans(ctx context.Context, memberID uuid.UUID, limit int) ([]models.Loan, error) {
	var rows []models.Loan
	err := r.db.WithContext(ctx).
		Preload("Copy").
		Preload("Copy.Book").
		Where("member_id = ?", memberID).
		Order("issue_date DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) RecentPayments(ctx context.Context, memberID uuid.UUID, limit int) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("payment_date DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func openLoanStatuses() []enums.LoanStatus {
	return []enums.LoanStatus{enums.LoanStatusIssued, enums.LoanStatusOverdue}
}

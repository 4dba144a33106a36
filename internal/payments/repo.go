package payments

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

// recentReportRows caps the transaction sample embedded in a payment report.
const recentReportRows = 10

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Member").
		First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{})
	if filter.MemberID != uuid.Nil {
		query = query.Where("member_id = ?", filter.MemberID)
	}
	if filter.LoanID != uuid.Nil {
		query = query.Where("loan_id = ?", filter.LoanID)
	}
	if filter.PaymentType != "" {
		query = query.Where("payment_type = ?", filter.PaymentType)
	}
	if filter.From != nil {
		query = query.Where("payment_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("payment_date <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	normalized := page.Normalize()
	var rows []models.Payment
	err := query.
		Preload("Member").
		Order("payment_date DESC").
		Limit(normalized.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Payment{}, "id = ?", id).Error
}

func (r *repository) MemberSummary(ctx context.Context, memberID uuid.UUID) (*MemberSummary, error) {
	summary := &MemberSummary{
		MemberID:  memberID,
		TotalPaid: decimal.Zero,
		FinesPaid: decimal.Zero,
	}

	var row struct {
		Total decimal.NullDecimal
		Count int64
		Last  *time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("member_id = ?", memberID).
		Select("SUM(amount) AS total, COUNT(*) AS count, MAX(payment_date) AS last").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Total.Valid {
		summary.TotalPaid = row.Total.Decimal
	}
	summary.PaymentCount = row.Count
	summary.LastPayment = row.Last

	var fines decimal.NullDecimal
	err = r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("member_id = ? AND payment_type = ?", memberID, enums.PaymentTypeFine).
		Select("SUM(amount)").
		Scan(&fines).Error
	if err != nil {
		return nil, err
	}
	if fines.Valid {
		summary.FinesPaid = fines.Decimal
	}

	return summary, nil
}

func (r *repository) Report(ctx context.Context, from, to time.Time) (*Report, error) {
	report := &Report{From: from, To: to, Total: decimal.Zero}
	inRange := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.Payment{}).
			Where("payment_date >= ? AND payment_date <= ?", from, to)
	}

	var totals struct {
		Total decimal.NullDecimal
		Count int64
	}
	if err := inRange().
		Select("SUM(amount) AS total, COUNT(*) AS count").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	if totals.Total.Valid {
		report.Total = totals.Total.Decimal
	}
	report.Count = totals.Count

	byType, err := r.aggregate(inRange(), "payment_type")
	if err != nil {
		return nil, err
	}
	report.ByType = byType

	byMethod, err := r.aggregate(inRange(), "payment_method")
	if err != nil {
		return nil, err
	}
	report.ByMethod = byMethod

	monthly, err := r.aggregate(inRange(), "to_char(payment_date, 'YYYY-MM')")
	if err != nil {
		return nil, err
	}
	report.Monthly = monthly

	var recent []models.Payment
	err = inRange().
		Preload("Member").
		Order("payment_date DESC").
		Limit(recentReportRows).
		Find(&recent).Error
	if err != nil {
		return nil, err
	}
	report.Recent = make([]PaymentDTO, 0, len(recent))
	for i := range recent {
		report.Recent = append(report.Recent, fromModel(&recent[i]))
	}

	return report, nil
}

func (r *repository) aggregate(query *gorm.DB, column string) ([]ReportBucket, error) {
	var rows []struct {
		Key   string
		Count int64
		Total decimal.NullDecimal
	}
	err := query.
		Select(column + " AS key, COUNT(*) AS count, SUM(amount) AS total").
		Group(column).
		Order(column + " ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	buckets := make([]ReportBucket, 0, len(rows))
	for _, row := range rows {
		bucket := ReportBucket{Key: row.Key, Count: row.Count, Total: decimal.Zero}
		if row.Total.Valid {
			bucket.Total = row.Total.Decimal
		}
		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

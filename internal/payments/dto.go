package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// PaymentDTO is the transport shape for one collected payment.
type PaymentDTO struct {
	ID              uuid.UUID           `json:"id"`
	MemberID        uuid.UUID           `json:"member_id"`
	MemberName      *string             `json:"member_name,omitempty"`
	LoanID          *uuid.UUID          `json:"loan_id,omitempty"`
	Amount          decimal.Decimal     `json:"amount"`
	PaymentType     enums.PaymentType   `json:"payment_type"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	PaymentDate     time.Time           `json:"payment_date"`
	ReferenceNumber *string             `json:"reference_number,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
	ReceivedBy      *uuid.UUID          `json:"received_by,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// RecordInput carries the fields accepted when recording a payment.
type RecordInput struct {
	MemberID        uuid.UUID
	LoanID          *uuid.UUID
	Amount          decimal.Decimal
	PaymentType     enums.PaymentType
	PaymentMethod   enums.PaymentMethod
	PaymentDate     *time.Time
	ReferenceNumber *string
	Notes           *string
	ReceivedBy      *uuid.UUID
}

// UpdatePaymentInput carries the administrative corrections allowed on a
// recorded payment. Member and loan bindings are immutable.
type UpdatePaymentInput struct {
	Amount          *decimal.Decimal
	PaymentType     *enums.PaymentType
	PaymentMethod   *enums.PaymentMethod
	PaymentDate     *time.Time
	ReferenceNumber *string
	Notes           *string
}

// ListFilter narrows the payment listing.
type ListFilter struct {
	MemberID    uuid.UUID
	LoanID      uuid.UUID
	PaymentType enums.PaymentType
	From        *time.Time
	To          *time.Time
}

// ListResult bundles one page of payments with pagination metadata.
type ListResult struct {
	Payments []PaymentDTO    `json:"payments"`
	Meta     pagination.Meta `json:"meta"`
}

// MemberSummary totals what one member has paid.
type MemberSummary struct {
	MemberID     uuid.UUID       `json:"member_id"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	FinesPaid    decimal.Decimal `json:"fines_paid"`
	PaymentCount int64           `json:"payment_count"`
	LastPayment  *time.Time      `json:"last_payment,omitempty"`
}

// ReportBucket is one aggregation row in a payment report.
type ReportBucket struct {
	Key   string          `json:"key"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Report aggregates collections over a date range.
type Report struct {
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	Total    decimal.Decimal `json:"total"`
	Count    int64           `json:"count"`
	ByType   []ReportBucket  `json:"by_type"`
	ByMethod []ReportBucket  `json:"by_method"`
	Monthly  []ReportBucket  `json:"monthly"`
	Recent   []PaymentDTO    `json:"recent"`
}

func fromModel(p *models.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:              p.ID,
		MemberID:        p.MemberID,
		LoanID:          p.LoanID,
		Amount:          p.Amount,
		PaymentType:     p.PaymentType,
		PaymentMethod:   p.PaymentMethod,
		PaymentDate:     p.PaymentDate,
		ReferenceNumber: p.ReferenceNumber,
		Notes:           p.Notes,
		ReceivedBy:      p.ReceivedBy,
		CreatedAt:       p.CreatedAt,
	}
	if p.Member != nil {
		name := p.Member.FirstName + " " + p.Member.LastName
		dto.MemberName = &name
	}
	return dto
}

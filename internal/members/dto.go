package members

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// MemberDTO is the transport shape for a patron.
type MemberDTO struct {
	ID                    uuid.UUID             `json:"id"`
	FirstName             string                `json:"first_name"`
	LastName              string                `json:"last_name"`
	Email                 string                `json:"email"`
	Phone                 *string               `json:"phone,omitempty"`
	Address               *string               `json:"address,omitempty"`
	City                  *string               `json:"city,omitempty"`
	State                 *string               `json:"state,omitempty"`
	PostalCode            *string               `json:"postal_code,omitempty"`
	MembershipType        enums.MembershipType  `json:"membership_type"`
	MembershipStart       time.Time             `json:"membership_start"`
	Status                enums.MemberStatus    `json:"status"`
	EmergencyContactName  *string               `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string               `json:"emergency_contact_phone,omitempty"`
	LastActivityAt        *time.Time            `json:"last_activity_at,omitempty"`
	Stats                 *MemberStats          `json:"stats,omitempty"`
	LoanHistory           []LoanHistoryEntry    `json:"loan_history,omitempty"`
	PaymentHistory        []PaymentHistoryEntry `json:"payment_history,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at"`
}

// LoanHistoryEntry is one row of a member's borrowing record.
type LoanHistoryEntry struct {
	LoanID     uuid.UUID        `json:"loan_id"`
	CopyID     uuid.UUID        `json:"copy_id"`
	BookTitle  *string          `json:"book_title,omitempty"`
	BookAuthor *string          `json:"book_author,omitempty"`
	IssueDate  time.Time        `json:"issue_date"`
	DueDate    time.Time        `json:"due_date"`
	ReturnDate *time.Time       `json:"return_date,omitempty"`
	Status     enums.LoanStatus `json:"status"`
	FineAmount decimal.Decimal  `json:"fine_amount"`
}

// PaymentHistoryEntry is one row of a member's payment record.
type PaymentHistoryEntry struct {
	PaymentID     uuid.UUID           `json:"payment_id"`
	Amount        decimal.Decimal     `json:"amount"`
	PaymentType   enums.PaymentType   `json:"payment_type"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentDate   time.Time           `json:"payment_date"`
}

// MemberStats aggregates the member's open-loan position.
type MemberStats struct {
	BooksIssued  int64           `json:"books_issued"`
	BooksOverdue int64           `json:"books_overdue"`
	TotalFines   decimal.Decimal `json:"total_fines"`
}

// CreateMemberInput carries the fields accepted when enrolling a patron.
type CreateMemberInput struct {
	FirstName             string
	LastName              string
	Email                 string
	Phone                 *string
	Address               *string
	City                  *string
	State                 *string
	PostalCode            *string
	MembershipType        *enums.MembershipType
	MembershipStart       *time.Time
	EmergencyContactName  *string
	EmergencyContactPhone *string
}

// UpdateMemberInput carries the optional fields for a partial update.
type UpdateMemberInput struct {
	FirstName             *string
	LastName              *string
	Email                 *string
	Phone                 *string
	Address               *string
	City                  *string
	State                 *string
	PostalCode            *string
	MembershipType        *enums.MembershipType
	Status                *enums.MemberStatus
	EmergencyContactName  *string
	EmergencyContactPhone *string
}

// ListFilter narrows the member listing.
type ListFilter struct {
	Search         string
	Status         enums.MemberStatus
	MembershipType enums.MembershipType
}

// ListResult bundles one page of members with pagination metadata.
type ListResult struct {
	Members []MemberDTO     `json:"members"`
	Meta    pagination.Meta `json:"meta"`
}

func fromModel(m *models.Member) MemberDTO {
	return MemberDTO{
		ID:                    m.ID,
		FirstName:             m.FirstName,
		LastName:              m.LastName,
		Email:                 m.Email,
		Phone:                 m.Phone,
		Address:               m.Address,
		City:                  m.City,
		State:                 m.State,
		PostalCode:            m.PostalCode,
		MembershipType:        m.MembershipType,
		MembershipStart:       m.MembershipStart,
		Status:                m.Status,
		EmergencyContactName:  m.EmergencyContactName,
		EmergencyContactPhone: m.EmergencyContactPhone,
		LastActivityAt:        m.LastActivityAt,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

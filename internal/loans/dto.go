package loans

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// LoanDTO is the transport shape for one lending event.
type LoanDTO struct {
	ID          uuid.UUID        `json:"id"`
	CopyID      uuid.UUID        `json:"copy_id"`
	MemberID    uuid.UUID        `json:"member_id"`
	BookID      *uuid.UUID       `json:"book_id,omitempty"`
	BookTitle   *string          `json:"book_title,omitempty"`
	BookAuthor  *string          `json:"book_author,omitempty"`
	MemberName  *string          `json:"member_name,omitempty"`
	MemberEmail *string          `json:"member_email,omitempty"`
	IssueDate   time.Time        `json:"issue_date"`
	DueDate     time.Time        `json:"due_date"`
	ReturnDate  *time.Time       `json:"return_date,omitempty"`
	Status      enums.LoanStatus `json:"status"`
	IsOverdue   bool             `json:"is_overdue"`
	DaysOverdue int              `json:"days_overdue"`
	FineAmount  decimal.Decimal  `json:"fine_amount"`
	Notes       *string          `json:"notes,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// IssueInput carries the fields needed to check a copy out.
type IssueInput struct {
	CopyID   uuid.UUID
	MemberID uuid.UUID
	DueDate  *time.Time
	Notes    *string
}

// ReturnInput carries the optional overrides accepted at the return desk.
type ReturnInput struct {
	FineAmount *decimal.Decimal
	Notes      *string
}

// UpdateLoanInput is the administrative escape hatch for correcting a loan record.
type UpdateLoanInput struct {
	DueDate    *time.Time
	Status     *enums.LoanStatus
	FineAmount *decimal.Decimal
	Notes      *string
}

// ListFilter narrows the loan listing.
type ListFilter struct {
	MemberID    uuid.UUID
	CopyID      uuid.UUID
	BookID      uuid.UUID
	Status      enums.LoanStatus
	OverdueOnly bool
}

// ListResult bundles one page of loans with pagination metadata.
type ListResult struct {
	Loans []LoanDTO       `json:"loans"`
	Meta  pagination.Meta `json:"meta"`
}

// Stats summarizes the circulation ledger.
type Stats struct {
	TotalLoans    int64           `json:"total_loans"`
	OpenLoans     int64           `json:"open_loans"`
	OverdueLoans  int64           `json:"overdue_loans"`
	ReturnedLoans int64           `json:"returned_loans"`
	LostLoans     int64           `json:"lost_loans"`
	IssuedToday   int64           `json:"issued_today"`
	ReturnedToday int64           `json:"returned_today"`
	FinesAssessed decimal.Decimal `json:"fines_assessed"`
}

func fromModel(l *models.Loan, asOf time.Time) LoanDTO {
	dto := LoanDTO{
		ID:         l.ID,
		CopyID:     l.CopyID,
		MemberID:   l.MemberID,
		IssueDate:  l.IssueDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		Status:     l.Status,
		FineAmount: l.FineAmount,
		Notes:      l.Notes,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
	if l.Copy != nil {
		if l.Copy.Book != nil {
			bookID := l.Copy.Book.ID
			title := l.Copy.Book.Title
			author := l.Copy.Book.Author
			dto.BookID = &bookID
			dto.BookTitle = &title
			dto.BookAuthor = &author
		} else {
			bookID := l.Copy.BookID
			dto.BookID = &bookID
		}
	}
	if l.Member != nil {
		name := l.Member.FirstName + " " + l.Member.LastName
		email := l.Member.Email
		dto.MemberName = &name
		dto.MemberEmail = &email
	}
	if l.Status.IsOpen() {
		dto.DaysOverdue = daysLate(l.DueDate, asOf)
		dto.IsOverdue = dto.DaysOverdue > 0
	}
	return dto
}

// daysLate counts whole days elapsed past due, zero when not yet due.
func daysLate(due, asOf time.Time) int {
	if !asOf.After(due) {
		return 0
	}
	days := int(asOf.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

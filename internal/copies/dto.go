package copies

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// CopyDTO is the transport shape for one physical copy.
type CopyDTO struct {
	ID          uuid.UUID        `json:"id"`
	BookID      uuid.UUID        `json:"book_id"`
	BookTitle   *string          `json:"book_title,omitempty"`
	BookAuthor  *string          `json:"book_author,omitempty"`
	RackID      *uuid.UUID       `json:"rack_id,omitempty"`
	RackNumber  *string          `json:"rack_number,omitempty"`
	ShelfNumber *int             `json:"shelf_number,omitempty"`
	Status      enums.CopyStatus `json:"status"`
	CurrentLoan *CurrentLoanInfo `json:"current_loan,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CurrentLoanInfo summarizes the open loan holding a copy, if any.
type CurrentLoanInfo struct {
	LoanID     uuid.UUID `json:"loan_id"`
	MemberID   uuid.UUID `json:"member_id"`
	MemberName *string   `json:"member_name,omitempty"`
	IssueDate  time.Time `json:"issue_date"`
	DueDate    time.Time `json:"due_date"`
}

// AddCopiesInput carries the fields for adding stock to a title.
type AddCopiesInput struct {
	BookID      uuid.UUID
	Count       int
	RackID      *uuid.UUID
	ShelfNumber *int
}

// UpdateCopyInput carries the optional fields for relocating or reconditioning a copy.
type UpdateCopyInput struct {
	RackID      *uuid.UUID
	ClearRack   bool
	ShelfNumber *int
	Status      *enums.CopyStatus
}

// ListFilter narrows the copy listing.
type ListFilter struct {
	BookID uuid.UUID
	RackID uuid.UUID
	Status enums.CopyStatus
}

// ListResult bundles one page of copies with pagination metadata.
type ListResult struct {
	Copies []CopyDTO       `json:"copies"`
	Meta   pagination.Meta `json:"meta"`
}

func fromModel(c *models.BookCopy) CopyDTO {
	dto := CopyDTO{
		ID:          c.ID,
		BookID:      c.BookID,
		RackID:      c.RackID,
		ShelfNumber: c.ShelfNumber,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.Book != nil {
		title := c.Book.Title
		author := c.Book.Author
		dto.BookTitle = &title
		dto.BookAuthor = &author
	}
	if c.Rack != nil {
		rackNumber := c.Rack.RackNumber
		dto.RackNumber = &rackNumber
	}
	return dto
}

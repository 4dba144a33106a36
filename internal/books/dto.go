package books

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// BookDTO is the transport shape for a catalog title.
type BookDTO struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	ISBN            *string    `json:"isbn,omitempty"`
	Category        *string    `json:"category,omitempty"`
	Publisher       *string    `json:"publisher,omitempty"`
	PublicationYear *int       `json:"publication_year,omitempty"`
	Language        string     `json:"language"`
	Pages           *int       `json:"pages,omitempty"`
	Description     *string    `json:"description,omitempty"`
	TotalCopies     int64      `json:"total_copies"`
	AvailableCopies int64      `json:"available_copies"`
	Copies          []CopyDTO  `json:"copies,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CopyDTO summarizes one physical copy under a book detail.
type CopyDTO struct {
	ID          uuid.UUID        `json:"id"`
	Status      enums.CopyStatus `json:"status"`
	RackNumber  *string          `json:"rack_number,omitempty"`
	ShelfNumber *int             `json:"shelf_number,omitempty"`
}

// CreateBookInput carries the fields accepted when cataloging a title.
type CreateBookInput struct {
	Title           string
	Author          string
	ISBN            *string
	Category        *string
	Publisher       *string
	PublicationYear *int
	Language        *string
	Pages           *int
	Description     *string
	CopiesCount     int
	RackID          *uuid.UUID
	ShelfNumber     *int
}

// UpdateBookInput carries the optional fields for a partial update.
type UpdateBookInput struct {
	Title           *string
	Author          *string
	ISBN            *string
	Category        *string
	Publisher       *string
	PublicationYear *int
	Language        *string
	Pages           *int
	Description     *string
}

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Search        string
	Category      string
	Language      string
	AvailableOnly bool
}

// ListResult bundles one page of books with pagination metadata.
type ListResult struct {
	Books []BookDTO       `json:"books"`
	Meta  pagination.Meta `json:"meta"`
}

func fromModel(b *models.Book, total, available int64) BookDTO {
	dto := BookDTO{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Category:        b.Category,
		Publisher:       b.Publisher,
		PublicationYear: b.PublicationYear,
		Language:        b.Language,
		Pages:           b.Pages,
		Description:     b.Description,
		TotalCopies:     total,
		AvailableCopies: available,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	for _, copyRow := range b.Copies {
		copyDTO := CopyDTO{
			ID:          copyRow.ID,
			Status:      copyRow.Status,
			ShelfNumber: copyRow.ShelfNumber,
		}
		if copyRow.Rack != nil {
			rackNumber := copyRow.Rack.RackNumber
			copyDTO.RackNumber = &rackNumber
		}
		dto.Copies = append(dto.Copies, copyDTO)
	}
	return dto
}

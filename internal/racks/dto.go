package racks

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// RackDTO is the transport shape for a shelving unit.
type RackDTO struct {
	ID          uuid.UUID `json:"id"`
	RackNumber  string    `json:"rack_number"`
	Location    *string   `json:"location,omitempty"`
	Capacity    int       `json:"capacity"`
	Shelves     int       `json:"shelves"`
	CopiesCount int64     `json:"copies_count"`
	Utilization float64   `json:"utilization"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRackInput carries the fields accepted when adding a rack.
type CreateRackInput struct {
	RackNumber string
	Location   *string
	Capacity   *int
	Shelves    *int
}

// UpdateRackInput carries the optional fields for a partial update.
type UpdateRackInput struct {
	RackNumber *string
	Location   *string
	Capacity   *int
	Shelves    *int
}

// ListResult bundles one page of racks with pagination metadata.
type ListResult struct {
	Racks []RackDTO       `json:"racks"`
	Meta  pagination.Meta `json:"meta"`
}

// RackRow carries a rack plus its copy count from the list query.
type RackRow struct {
	models.Rack
	CopiesCount int64
}

// ShelfCopy is one copy sitting on a rack shelf.
type ShelfCopy struct {
	CopyID      uuid.UUID        `json:"copy_id"`
	BookID      uuid.UUID        `json:"book_id"`
	Title       string           `json:"title"`
	Author      string           `json:"author"`
	ShelfNumber *int             `json:"shelf_number,omitempty"`
	Status      enums.CopyStatus `json:"status"`
}

// ShelfListing groups a rack's copies under their shelf numbers.
type ShelfListing struct {
	Rack    RackDTO               `json:"rack"`
	Shelves map[string][]ShelfCopy `json:"shelves"`
}

func fromModel(r *models.Rack, copiesCount int64) RackDTO {
	utilization := 0.0
	if r.Capacity > 0 {
		utilization = float64(copiesCount) / float64(r.Capacity)
	}
	return RackDTO{
		ID:          r.ID,
		RackNumber:  r.RackNumber,
		Location:    r.Location,
		Capacity:    r.Capacity,
		Shelves:     r.Shelves,
		CopiesCount: copiesCount,
		Utilization: utilization,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

package racks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// Repository exposes rack persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rack *models.Rack) (*models.Rack, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Rack, error)
	FindByNumber(ctx context.Context, rackNumber string) (*models.Rack, error)
	List(ctx context.Context, page pagination.Params) ([]RackRow, int64, error)
	Update(ctx context.Context, rack *models.Rack) (*models.Rack, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountCopies(ctx context.Context, rackID uuid.UUID) (int64, error)
	ListShelfContents(ctx context.Context, rackID uuid.UUID) ([]ShelfCopy, error)
}

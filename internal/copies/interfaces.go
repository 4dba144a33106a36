package copies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// Repository exposes copy persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, copies []models.BookCopy) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BookCopy, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.BookCopy, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.BookCopy, int64, error)
	Update(ctx context.Context, copy *models.BookCopy) (*models.BookCopy, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CopyStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByRack(ctx context.Context, rackID uuid.UUID) (int64, error)
	CountOpenLoans(ctx context.Context, copyID uuid.UUID) (int64, error)
	FindOpenLoan(ctx context.Context, copyID uuid.UUID) (*models.Loan, error)
}

package loans

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// Repository exposes loan persistence plus the copy-state transitions the
// circulation flow owns.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, loan *models.Loan) (*models.Loan, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	List(ctx context.Context, filter ListFilter, asOf time.Time, page pagination.Params) ([]models.Loan, int64, error)
	ListOverdue(ctx context.Context, asOf time.Time, page pagination.Params) ([]models.Loan, int64, error)
	Update(ctx context.Context, loan *models.Loan) (*models.Loan, error)
	ClaimCopy(ctx context.Context, copyID uuid.UUID) (bool, error)
	ReleaseCopy(ctx context.Context, copyID uuid.UUID, status enums.CopyStatus) error
	TouchMemberActivity(ctx context.Context, memberID uuid.UUID, at time.Time) error
	Stats(ctx context.Context, asOf time.Time) (*Stats, error)
}

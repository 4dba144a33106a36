package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// Repository exposes payment persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Payment, int64, error)
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id uuid.UUID) error
	MemberSummary(ctx context.Context, memberID uuid.UUID) (*MemberSummary, error)
	Report(ctx context.Context, from, to time.Time) (*Report, error)
}

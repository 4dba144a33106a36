package members

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// Repository exposes member persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, member *models.Member) (*models.Member, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Member, int64, error)
	Update(ctx context.Context, member *models.Member) (*models.Member, error)
	Delete(ctx context.Context, id uuid.UUID) error
	TouchLastActivity(ctx context.Context, id uuid.UUID, at time.Time) error
	CountOpenLoans(ctx context.Context, memberID uuid.UUID) (int64, error)
	Stats(ctx context.Context, memberID uuid.UUID, asOf time.Time) (*MemberStats, error)
	RecentLoans(ctx context.Context, memberID uuid.UUID, limit int) ([]models.Loan, error)
	RecentPayments(ctx context.Context, memberID uuid.UUID, limit int) ([]models.Payment, error)
}

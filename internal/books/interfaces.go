package books

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// Repository exposes catalog persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, book *models.Book) (*models.Book, error)
	CreateCopies(ctx context.Context, copies []models.BookCopy) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Book, error)
	FindByISBN(ctx context.Context, isbn string) (*models.Book, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]BookRow, int64, error)
	CopyCounts(ctx context.Context, bookID uuid.UUID) (total, available int64, err error)
	CountOpenLoans(ctx context.Context, bookID uuid.UUID) (int64, error)
	Update(ctx context.Context, book *models.Book) (*models.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Categories(ctx context.Context) ([]string, error)
	Languages(ctx context.Context) ([]string, error)
}

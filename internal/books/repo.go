package books

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// BookRow carries a book plus its copy counts from the list query.
type BookRow struct {
	models.Book
	TotalCopies     int64
	AvailableCopies int64
}

// Create inserts a new book row.
func (r *repository) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// CreateCopies inserts the provided copy rows.
func (r *repository) CreateCopies(ctx context.Context, copies []models.BookCopy) error {
	if len(copies) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&copies).Error
}

// FindByID loads the book without associations.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindDetail loads the book with its copies and their racks.
func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).
		Preload("Copies").
		Preload("Copies.Rack").
		First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByISBN retrieves a book matching the ISBN.
func (r *repository) FindByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns one page of books with copy counts, matching the filter.
func (r *repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]BookRow, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Book{})
	base = applyFilter(base, filter)

	var total int64
	if err := base.Session(&gorm.Session{}).Distinct("books.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	normalized := page.Normalize()
	var rows []BookRow
	err := base.Session(&gorm.Session{}).
		Select(`books.*,
			COUNT(book_copies.id) AS total_copies,
			COUNT(CASE WHEN book_copies.status = ? THEN 1 END) AS available_copies`, enums.CopyStatusAvailable).
		Joins("LEFT JOIN book_copies ON book_copies.book_id = books.id").
		Group("books.id").
		Order("books.title ASC").
		Limit(normalized.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("books.title ILIKE ? OR books.author ILIKE ? OR books.isbn ILIKE ?", pattern, pattern, pattern)
	}
	if filter.Category != "" {
		query = query.Where("books.category = ?", filter.Category)
	}
	if filter.Language != "" {
		query = query.Where("books.language = ?", filter.Language)
	}
	if filter.AvailableOnly {
		query = query.Where(`EXISTS (
			SELECT 1 FROM book_copies bc
			WHERE bc.book_id = books.id AND bc.status = ?)`, enums.CopyStatusAvailable)
	}
	return query
}

// CopyCounts returns total and available copy counts for a book.
func (r *repository) CopyCounts(ctx context.Context, bookID uuid.UUID) (total, available int64, err error) {
	if err = r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("book_id = ?", bookID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("book_id = ? AND status = ?", bookID, enums.CopyStatusAvailable).
		Count(&available).Error; err != nil {
		return 0, 0, err
	}
	return total, available, nil
}

// CountOpenLoans reports how many of the book's copies are on an open loan.
func (r *repository) CountOpenLoans(ctx context.Context, bookID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Joins("JOIN book_copies ON book_copies.id = loans.copy_id").
		Where("book_copies.book_id = ? AND loans.status IN ?", bookID,
			[]enums.LoanStatus{enums.LoanStatusIssued, enums.LoanStatusOverdue}).
		Count(&count).Error
	return count, err
}

// Update persists the full book row.
func (r *repository) Update(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.db.WithContext(ctx).Save(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// Delete removes the book; copies cascade at the database level.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Book{}, "id = ?", id).Error
}

// Categories lists the distinct non-empty categories in the catalog.
func (r *repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

// Languages lists the distinct languages in the catalog.
func (r *repository) Languages(ctx context.Context) ([]string, error) {
	var languages []string
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Distinct("language").
		Order("language ASC").
		Pluck("language", &languages).Error
	return languages, err
}

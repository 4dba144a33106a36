package racks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a racks repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, rack *models.Rack) (*models.Rack, error) {
	if err := r.db.WithContext(ctx).Create(rack).Error; err != nil {
		return nil, err
	}
	return rack, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Rack, error) {
	var rack models.Rack
	if err := r.db.WithContext(ctx).First(&rack, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rack, nil
}

func (r *repository) FindByNumber(ctx context.Context, rackNumber string) (*models.Rack, error) {
	var rack models.Rack
	if err := r.db.WithContext(ctx).Where("rack_number = ?", rackNumber).First(&rack).Error; err != nil {
		return nil, err
	}
	return &rack, nil
}

func (r *repository) List(ctx context.Context, page pagination.Params) ([]RackRow, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Rack{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	normalized := page.Normalize()
	var rows []RackRow
	err := r.db.WithContext(ctx).
		Model(&models.Rack{}).
		Select("racks.*, COUNT(book_copies.id) AS copies_count").
		Joins("LEFT JOIN book_copies ON book_copies.rack_id = racks.id").
		Group("racks.id").
		Order("racks.rack_number ASC").
		Limit(normalized.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Update(ctx context.Context, rack *models.Rack) (*models.Rack, error) {
	if err := r.db.WithContext(ctx).Save(rack).Error; err != nil {
		return nil, err
	}
	return rack, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Rack{}, "id = ?", id).Error
}

func (r *repository) CountCopies(ctx context.Context, rackID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("rack_id = ?", rackID).
		Count(&count).Error
	return count, err
}

func (r *repository) ListShelfContents(ctx context.Context, rackID uuid.UUID) ([]ShelfCopy, error) {
	var rows []ShelfCopy
	err := r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Select(`book_copies.id AS copy_id,
			book_copies.book_id,
			books.title,
			books.author,
			book_copies.shelf_number,
			book_copies.status`).
		Joins("JOIN books ON books.id = book_copies.book_id").
		Where("book_copies.rack_id = ?", rackID).
		Order("book_copies.shelf_number ASC, books.title ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

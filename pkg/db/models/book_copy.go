package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/librarian-backend/pkg/enums"
)

// BookCopy is one physical unit of a Book, shelved on a rack.
type BookCopy struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	BookID      uuid.UUID        `gorm:"column:book_id;type:uuid;not null;index"`
	RackID      *uuid.UUID       `gorm:"column:rack_id;type:uuid;index"`
	ShelfNumber *int             `gorm:"column:shelf_number"`
	Status      enums.CopyStatus `gorm:"column:status;type:copy_status;not null;default:'available'"`
	Book        *Book            `gorm:"foreignKey:BookID"`
	Rack        *Rack            `gorm:"foreignKey:RackID;constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Rack is a physical shelving unit copies are assigned to.
type Rack struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	RackNumber string     `gorm:"column:rack_number;not null;uniqueIndex"`
	Location   *string    `gorm:"column:location"`
	Capacity   int        `gorm:"column:capacity;not null;default:100"`
	Shelves    int        `gorm:"column:shelves;not null;default:5"`
	Copies     []BookCopy `gorm:"foreignKey:RackID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

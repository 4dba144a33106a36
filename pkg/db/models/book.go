package models

import (
	"time"

	"github.com/google/uuid"
)

// Book represents a catalog title; physical stock lives in BookCopy.
type Book struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Title           string     `gorm:"column:title;not null"`
	Author          string     `gorm:"column:author;not null"`
	ISBN            *string    `gorm:"column:isbn;uniqueIndex"`
	Category        *string    `gorm:"column:category"`
	Publisher       *string    `gorm:"column:publisher"`
	PublicationYear *int       `gorm:"column:publication_year"`
	Language        string     `gorm:"column:language;not null;default:'English'"`
	Pages           *int       `gorm:"column:pages"`
	Description     *string    `gorm:"column:description"`
	Copies          []BookCopy `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/librarian-backend/pkg/enums"
)

// Member is a registered library patron.
type Member struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	FirstName             string               `gorm:"column:first_name;not null"`
	LastName              string               `gorm:"column:last_name;not null"`
	Email                 string               `gorm:"column:email;not null;uniqueIndex"`
	Phone                 *string              `gorm:"column:phone"`
	Address               *string              `gorm:"column:address"`
	City                  *string              `gorm:"column:city"`
	State                 *string              `gorm:"column:state"`
	PostalCode            *string              `gorm:"column:postal_code"`
	MembershipType        enums.MembershipType `gorm:"column:membership_type;type:membership_type;not null;default:'standard'"`
	MembershipStart       time.Time            `gorm:"column:membership_start;not null"`
	Status                enums.MemberStatus   `gorm:"column:status;type:member_status;not null;default:'Active'"`
	EmergencyContactName  *string              `gorm:"column:emergency_contact_name"`
	EmergencyContactPhone *string              `gorm:"column:emergency_contact_phone"`
	LastActivityAt        *time.Time           `gorm:"column:last_activity_at"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

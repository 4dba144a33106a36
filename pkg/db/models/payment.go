package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/librarian-backend/pkg/enums"
)

// Payment records money collected from a member.
type Payment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	MemberID        uuid.UUID           `gorm:"column:member_id;type:uuid;not null;index"`
	LoanID          *uuid.UUID          `gorm:"column:loan_id;type:uuid"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	PaymentType     enums.PaymentType   `gorm:"column:payment_type;type:payment_type;not null"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null;default:'cash'"`
	PaymentDate     time.Time           `gorm:"column:payment_date;not null"`
	ReferenceNumber *string             `gorm:"column:reference_number"`
	Notes           *string             `gorm:"column:notes"`
	ReceivedBy      *uuid.UUID          `gorm:"column:received_by;type:uuid"`
	Member          *Member             `gorm:"foreignKey:MemberID"`
	Loan            *Loan               `gorm:"foreignKey:LoanID;constraint:OnDelete:SET NULL"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

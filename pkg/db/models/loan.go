package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/librarian-backend/pkg/enums"
)

// Loan records a copy being checked out by a member.
type Loan struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CopyID     uuid.UUID        `gorm:"column:copy_id;type:uuid;not null;index"`
	MemberID   uuid.UUID        `gorm:"column:member_id;type:uuid;not null;index"`
	IssueDate  time.Time        `gorm:"column:issue_date;not null"`
	DueDate    time.Time        `gorm:"column:due_date;not null"`
	ReturnDate *time.Time       `gorm:"column:return_date"`
	Status     enums.LoanStatus `gorm:"column:status;type:loan_status;not null;default:'issued'"`
	FineAmount decimal.Decimal  `gorm:"column:fine_amount;type:numeric(10,2);not null;default:0"`
	Notes      *string          `gorm:"column:notes"`
	Copy       *BookCopy        `gorm:"foreignKey:CopyID"`
	Member     *Member          `gorm:"foreignKey:MemberID"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

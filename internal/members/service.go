package members

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// Service exposes member management operations.
type Service interface {
	Create(ctx context.Context, input CreateMemberInput) (*MemberDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*MemberDTO, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateMemberInput) (*MemberDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, id uuid.UUID) (*MemberStats, error)
}

// historyLimit caps the embedded loan/payment history on a member detail read.
const historyLimit = 20

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a member service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("members repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Create(ctx context.Context, input CreateMemberInput) (*MemberDTO, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if firstName == "" || lastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name and last_name are required")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a member with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check member email")
	}

	member := &models.Member{
		FirstName:             firstName,
		LastName:              lastName,
		Email:                 email,
		Phone:                 input.Phone,
		Address:               input.Address,
		City:                  input.City,
		State:                 input.State,
		PostalCode:            input.PostalCode,
		MembershipType:        enums.MembershipTypeStandard,
		MembershipStart:       s.now(),
		Status:                enums.MemberStatusActive,
		EmergencyContactName:  input.EmergencyContactName,
		EmergencyContactPhone: input.EmergencyContactPhone,
	}
	if input.MembershipType != nil {
		if !input.MembershipType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid membership type")
		}
		member.MembershipType = *input.MembershipType
	}
	if input.MembershipStart != nil {
		member.MembershipStart = *input.MembershipStart
	}

	if _, err := s.repo.Create(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create member")
	}
	dto := fromModel(member)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*MemberDTO, error) {
	member, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, id, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "member stats")
	}
	dto := fromModel(member)
	dto.Stats = stats

	loanRows, err := s.repo.RecentLoans(ctx, id, historyLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "member loan history")
	}
	dto.LoanHistory = make([]LoanHistoryEntry, 0, len(loanRows))
	for i := range loanRows {
		dto.LoanHistory = append(dto.LoanHistory, loanHistoryEntry(&loanRows[i]))
	}

	paymentRows, err := s.repo.RecentPayments(ctx, id, historyLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "member payment history")
	}
	dto.PaymentHistory = make([]PaymentHistoryEntry, 0, len(paymentRows))
	for _, row := range paymentRows {
		dto.PaymentHistory = append(dto.PaymentHistory, PaymentHistoryEntry{
			PaymentID:     row.ID,
			Amount:        row.Amount,
			PaymentType:   row.PaymentType,
			PaymentMethod: row.PaymentMethod,
			PaymentDate:   row.PaymentDate,
		})
	}

	return &dto, nil
}

func loanHistoryEntry(loan *models.Loan) LoanHistoryEntry {
	entry := LoanHistoryEntry{
		LoanID:     loan.ID,
		CopyID:     loan.CopyID,
		IssueDate:  loan.IssueDate,
		DueDate:    loan.DueDate,
		ReturnDate: loan.ReturnDate,
		Status:     loan.Status,
		FineAmount: loan.FineAmount,
	}
	if loan.Copy != nil && loan.Copy.Book != nil {
		entry.BookTitle = &loan.Copy.Book.Title
		entry.BookAuthor = &loan.Copy.Book.Author
	}
	return entry
}

func (s *service) List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid member status filter")
	}
	if filter.MembershipType != "" && !filter.MembershipType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid membership type filter")
	}
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list members")
	}

	result := &ListResult{
		Members: make([]MemberDTO, 0, len(rows)),
		Meta:    pagination.MetaFor(page, total),
	}
	for i := range rows {
		result.Members = append(result.Members, fromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateMemberInput) (*MemberDTO, error) {
	member, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		firstName := strings.TrimSpace(*input.FirstName)
		if firstName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name cannot be empty")
		}
		member.FirstName = firstName
	}
	if input.LastName != nil {
		lastName := strings.TrimSpace(*input.LastName)
		if lastName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last_name cannot be empty")
		}
		member.LastName = lastName
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		existing, err := s.repo.FindByEmail(ctx, email)
		if err == nil && existing.ID != member.ID {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a member with this email already exists")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check member email")
		}
		member.Email = email
	}
	if input.Phone != nil {
		member.Phone = input.Phone
	}
	if input.Address != nil {
		member.Address = input.Address
	}
	if input.City != nil {
		member.City = input.City
	}
	if input.State != nil {
		member.State = input.State
	}
	if input.PostalCode != nil {
		member.PostalCode = input.PostalCode
	}
	if input.MembershipType != nil {
		if !input.MembershipType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid membership type")
		}
		member.MembershipType = *input.MembershipType
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid member status")
		}
		if *input.Status != enums.MemberStatusActive && *input.Status != member.Status {
			open, err := s.repo.CountOpenLoans(ctx, id)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count open loans")
			}
			if open > 0 && *input.Status == enums.MemberStatusInactive {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
					"member has open loans and cannot be deactivated")
			}
		}
		member.Status = *input.Status
	}
	if input.EmergencyContactName != nil {
		member.EmergencyContactName = input.EmergencyContactName
	}
	if input.EmergencyContactPhone != nil {
		member.EmergencyContactPhone = input.EmergencyContactPhone
	}

	if _, err := s.repo.Update(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update member")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	open, err := s.repo.CountOpenLoans(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count open loans")
	}
	if open > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "member has open loans")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete member")
	}
	return nil
}

func (s *service) Stats(ctx context.Context, id uuid.UUID) (*MemberStats, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, id, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "member stats")
	}
	return stats, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member id required")
	}
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load member")
	}
	return member, nil
}

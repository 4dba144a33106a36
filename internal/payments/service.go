package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

type memberStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	TouchLastActivity(ctx context.Context, id uuid.UUID, at time.Time) error
}

type loanLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Loan, error)
}

// Service exposes payment recording and reporting.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*PaymentDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*PaymentDTO, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePaymentInput) (*PaymentDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MemberSummary(ctx context.Context, memberID uuid.UUID) (*MemberSummary, error)
	Report(ctx context.Context, from, to time.Time) (*Report, error)
}

type service struct {
	repo    Repository
	members memberStore
	loans   loanLoader
	now     func() time.Time
}

// NewService builds a payments service with the required dependencies.
func NewService(repo Repository, members memberStore, loans loanLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if members == nil {
		return nil, fmt.Errorf("member store required")
	}
	if loans == nil {
		return nil, fmt.Errorf("loan loader required")
	}
	return &service{
		repo:    repo,
		members: members,
		loans:   loans,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*PaymentDTO, error) {
	if input.MemberID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.PaymentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type")
	}
	method := input.PaymentMethod
	if method == "" {
		method = enums.PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	if _, err := s.members.FindByID(ctx, input.MemberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load member")
	}

	if input.LoanID != nil {
		loan, err := s.loans.FindByID(ctx, *input.LoanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "loan not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load loan")
		}
		if loan.MemberID != input.MemberID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "loan does not belong to this member")
		}
	}

	paymentDate := s.now()
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}

	payment := &models.Payment{
		MemberID:        input.MemberID,
		LoanID:          input.LoanID,
		Amount:          input.Amount,
		PaymentType:     input.PaymentType,
		PaymentMethod:   method,
		PaymentDate:     paymentDate,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
		ReceivedBy:      input.ReceivedBy,
	}
	if _, err := s.repo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment")
	}

	if err := s.members.TouchLastActivity(ctx, input.MemberID, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch member activity")
	}

	return s.Get(ctx, payment.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*PaymentDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	payment, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	dto := fromModel(payment)
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error) {
	if filter.PaymentType != "" && !filter.PaymentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type filter")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range end precedes start")
	}

	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payments")
	}

	result := &ListResult{
		Payments: make([]PaymentDTO, 0, len(rows)),
		Meta:     pagination.MetaFor(page, total),
	}
	for i := range rows {
		result.Payments = append(result.Payments, fromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePaymentInput) (*PaymentDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if input.Amount == nil && input.PaymentType == nil && input.PaymentMethod == nil &&
		input.PaymentDate == nil && input.ReferenceNumber == nil && input.Notes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}

	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
		}
		payment.Amount = *input.Amount
	}
	if input.PaymentType != nil {
		if !input.PaymentType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type")
		}
		payment.PaymentType = *input.PaymentType
	}
	if input.PaymentMethod != nil {
		if !input.PaymentMethod.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
		}
		payment.PaymentMethod = *input.PaymentMethod
	}
	if input.PaymentDate != nil {
		payment.PaymentDate = *input.PaymentDate
	}
	if input.ReferenceNumber != nil {
		payment.ReferenceNumber = input.ReferenceNumber
	}
	if input.Notes != nil {
		payment.Notes = input.Notes
	}

	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment")
	}
	return s.Get(ctx, payment.ID)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete payment")
	}
	return nil
}

func (s *service) MemberSummary(ctx context.Context, memberID uuid.UUID) (*MemberSummary, error) {
	if memberID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member id required")
	}
	if _, err := s.members.FindByID(ctx, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load member")
	}
	summary, err := s.repo.MemberSummary(ctx, memberID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "member payment summary")
	}
	return summary, nil
}

func (s *service) Report(ctx context.Context, from, to time.Time) (*Report, error) {
	if from.IsZero() || to.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report range required")
	}
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report range end precedes start")
	}
	report, err := s.repo.Report(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "payment report")
	}
	return report, nil
}

package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/config"
	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/metrics"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type copyLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.BookCopy, error)
}

type memberLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
}

// Service exposes the circulation operations.
type Service interface {
	Issue(ctx context.Context, input IssueInput) (*LoanDTO, error)
	Return(ctx context.Context, loanID uuid.UUID, input ReturnInput) (*LoanDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*LoanDTO, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error)
	Overdue(ctx context.Context, page pagination.Params) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateLoanInput) (*LoanDTO, error)
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	copies  copyLoader
	members memberLoader
	cfg     config.CirculationConfig
	metrics *metrics.CirculationMetrics
	now     func() time.Time
}

// ServiceParams bundles the dependencies required to build a loans service.
type ServiceParams struct {
	Repo        Repository
	Tx          txRunner
	Copies      copyLoader
	Members     memberLoader
	Circulation config.CirculationConfig
	Metrics     *metrics.CirculationMetrics
}

// NewService builds a circulation service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("loans repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Copies == nil {
		return nil, fmt.Errorf("copy loader required")
	}
	if params.Members == nil {
		return nil, fmt.Errorf("member loader required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		copies:  params.Copies,
		members: params.Members,
		cfg:     params.Circulation,
		metrics: params.Metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Issue(ctx context.Context, input IssueInput) (*LoanDTO, error) {
	if input.CopyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "copy id required")
	}
	if input.MemberID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member id required")
	}

	now := s.now()
	dueDate := now.AddDate(0, 0, s.cfg.DefaultLoanDays)
	if input.DueDate != nil {
		if !input.DueDate.After(now) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "due_date must be in the future")
		}
		dueDate = *input.DueDate
	}

	var loan *models.Loan
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		copyRow, err := s.copies.FindByID(ctx, input.CopyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "copy not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load copy")
		}
		if copyRow.Status == enums.CopyStatusDamaged || copyRow.Status == enums.CopyStatusLost {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "copy is not in circulation")
		}
		if copyRow.Status != enums.CopyStatusAvailable {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "copy is not available")
		}

		member, err := s.members.FindByID(ctx, input.MemberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load member")
		}
		if member.Status != enums.MemberStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "member is not active")
		}

		claimed, err := repo.ClaimCopy(ctx, input.CopyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim copy")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "copy is not available")
		}

		loan = &models.Loan{
			CopyID:     input.CopyID,
			MemberID:   input.MemberID,
			IssueDate:  now,
			DueDate:    dueDate,
			Status:     enums.LoanStatusIssued,
			FineAmount: decimal.Zero,
			Notes:      input.Notes,
		}
		if _, err := repo.Create(ctx, loan); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create loan")
		}

		if err := repo.TouchMemberActivity(ctx, input.MemberID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch member activity")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncIssued()
	return s.Get(ctx, loan.ID)
}

func (s *service) Return(ctx context.Context, loanID uuid.UUID, input ReturnInput) (*LoanDTO, error) {
	if loanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loan id required")
	}
	if input.FineAmount != nil && input.FineAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fine_amount cannot be negative")
	}

	now := s.now()
	var fine decimal.Decimal

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loan, err := repo.FindByID(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "loan not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load loan")
		}
		if !loan.Status.IsOpen() {
			// A closed record is not a returnable loan; report as missing so
			// repeated returns look the same as a bad id.
			return pkgerrors.New(pkgerrors.CodeNotFound, "no open loan found")
		}

		fine = s.computeFine(loan.DueDate, now)
		if input.FineAmount != nil {
			fine = *input.FineAmount
		}

		loan.Status = enums.LoanStatusReturned
		loan.ReturnDate = &now
		loan.FineAmount = fine
		if input.Notes != nil {
			loan.Notes = input.Notes
		}
		if _, err := repo.Update(ctx, loan); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update loan")
		}

		if err := repo.ReleaseCopy(ctx, loan.CopyID, enums.CopyStatusAvailable); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release copy")
		}

		if err := repo.TouchMemberActivity(ctx, loan.MemberID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch member activity")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncReturned()
	s.metrics.AddFine(fine)
	return s.Get(ctx, loanID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*LoanDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loan id required")
	}
	loan, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "loan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load loan")
	}
	dto := fromModel(loan, s.now())
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid loan status filter")
	}
	now := s.now()
	rows, total, err := s.repo.List(ctx, filter, now, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list loans")
	}
	return s.toListResult(rows, total, page, now), nil
}

func (s *service) Overdue(ctx context.Context, page pagination.Params) (*ListResult, error) {
	now := s.now()
	rows, total, err := s.repo.ListOverdue(ctx, now, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list overdue loans")
	}
	return s.toListResult(rows, total, page, now), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateLoanInput) (*LoanDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loan id required")
	}
	if input.DueDate == nil && input.Status == nil && input.FineAmount == nil && input.Notes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if input.FineAmount != nil && input.FineAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fine_amount cannot be negative")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loan, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "loan not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load loan")
		}

		if input.DueDate != nil {
			if !loan.Status.IsOpen() {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "due date can only change on an open loan")
			}
			if !input.DueDate.After(loan.IssueDate) {
				return pkgerrors.New(pkgerrors.CodeValidation, "due_date must be after the issue date")
			}
			loan.DueDate = *input.DueDate
		}

		if input.Status != nil {
			if err := s.applyStatusTransition(ctx, repo, loan, *input.Status); err != nil {
				return err
			}
		}

		if input.FineAmount != nil {
			loan.FineAmount = *input.FineAmount
		}
		if input.Notes != nil {
			loan.Notes = input.Notes
		}

		if _, err := repo.Update(ctx, loan); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update loan")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// applyStatusTransition covers the administrative corrections: flagging a loan
// overdue (or unflagging it), and writing a copy off as lost. Returns go
// through the return flow only.
func (s *service) applyStatusTransition(ctx context.Context, repo Repository, loan *models.Loan, next enums.LoanStatus) error {
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid loan status")
	}
	if next == loan.Status {
		return nil
	}

	switch next {
	case enums.LoanStatusReturned:
		return pkgerrors.New(pkgerrors.CodeValidation, "use the return endpoint to close a loan")
	case enums.LoanStatusOverdue:
		if loan.Status != enums.LoanStatusIssued {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only an issued loan can be flagged overdue")
		}
		loan.Status = enums.LoanStatusOverdue
	case enums.LoanStatusIssued:
		if loan.Status != enums.LoanStatusOverdue {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only an overdue loan can be reset to issued")
		}
		loan.Status = enums.LoanStatusIssued
	case enums.LoanStatusLost:
		if !loan.Status.IsOpen() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only an open loan can be marked lost")
		}
		loan.Status = enums.LoanStatusLost
		now := s.now()
		loan.ReturnDate = &now
		if err := repo.ReleaseCopy(ctx, loan.CopyID, enums.CopyStatusLost); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark copy lost")
		}
	}
	return nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.Stats(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loan stats")
	}
	return stats, nil
}

// computeFine charges the configured daily rate per whole day past due.
func (s *service) computeFine(due, returnedAt time.Time) decimal.Decimal {
	days := daysLate(due, returnedAt)
	if days <= 0 {
		return decimal.Zero
	}
	return s.cfg.DailyRate().Mul(decimal.NewFromInt(int64(days)))
}

func (s *service) toListResult(rows []models.Loan, total int64, page pagination.Params, asOf time.Time) *ListResult {
	result := &ListResult{
		Loans: make([]LoanDTO, 0, len(rows)),
		Meta:  pagination.MetaFor(page, total),
	}
	for i := range rows {
		result.Loans = append(result.Loans, fromModel(&rows[i], asOf))
	}
	return result
}

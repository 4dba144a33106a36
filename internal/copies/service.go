package copies

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

const maxBatchCopies = 100

type bookLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

type rackLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Rack, error)
}

// Service exposes copy management operations.
type Service interface {
	Add(ctx context.Context, input AddCopiesInput) ([]CopyDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CopyDTO, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCopyInput) (*CopyDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  Repository
	books bookLoader
	racks rackLoader
}

// NewService builds a copies service with the required dependencies.
func NewService(repo Repository, books bookLoader, racks rackLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("copies repository required")
	}
	if books == nil {
		return nil, fmt.Errorf("book loader required")
	}
	if racks == nil {
		return nil, fmt.Errorf("rack loader required")
	}
	return &service{repo: repo, books: books, racks: racks}, nil
}

func (s *service) Add(ctx context.Context, input AddCopiesInput) ([]CopyDTO, error) {
	if input.BookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	if input.Count <= 0 || input.Count > maxBatchCopies {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("count must be between 1 and %d", maxBatchCopies))
	}

	if _, err := s.books.FindByID(ctx, input.BookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
	}
	if err := s.validateRack(ctx, input.RackID); err != nil {
		return nil, err
	}

	rows := make([]models.BookCopy, 0, input.Count)
	for i := 0; i < input.Count; i++ {
		rows = append(rows, models.BookCopy{
			BookID:      input.BookID,
			RackID:      input.RackID,
			ShelfNumber: input.ShelfNumber,
			Status:      enums.CopyStatusAvailable,
		})
	}
	if err := s.repo.Create(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create copies")
	}

	dtos := make([]CopyDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, fromModel(&rows[i]))
	}
	return dtos, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CopyDTO, error) {
	copyRow, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := fromModel(copyRow)

	loan, err := s.repo.FindOpenLoan(ctx, id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load open loan")
	}
	if loan != nil {
		info := &CurrentLoanInfo{
			LoanID:    loan.ID,
			MemberID:  loan.MemberID,
			IssueDate: loan.IssueDate,
			DueDate:   loan.DueDate,
		}
		if loan.Member != nil {
			name := loan.Member.FirstName + " " + loan.Member.LastName
			info.MemberName = &name
		}
		dto.CurrentLoan = info
	}
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid copy status filter")
	}
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list copies")
	}

	result := &ListResult{
		Copies: make([]CopyDTO, 0, len(rows)),
		Meta:   pagination.MetaFor(page, total),
	}
	for i := range rows {
		result.Copies = append(result.Copies, fromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCopyInput) (*CopyDTO, error) {
	copyRow, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid copy status")
		}
		// issue/return owns the issued state; the desk can only shelve,
		// damage, or write off a copy here
		if *input.Status == enums.CopyStatusIssued {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "status issued is set by the issue flow")
		}
		if copyRow.Status == enums.CopyStatusIssued {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "copy is on loan; return it first")
		}
		copyRow.Status = *input.Status
	}

	if input.ClearRack {
		copyRow.RackID = nil
		copyRow.ShelfNumber = nil
	} else if input.RackID != nil {
		if err := s.validateRack(ctx, input.RackID); err != nil {
			return nil, err
		}
		copyRow.RackID = input.RackID
	}
	if input.ShelfNumber != nil && !input.ClearRack {
		copyRow.ShelfNumber = input.ShelfNumber
	}

	if _, err := s.repo.Update(ctx, copyRow); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update copy")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	copyRow, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if copyRow.Status == enums.CopyStatusIssued {
		return pkgerrors.New(pkgerrors.CodeConflict, "copy is on loan and cannot be removed")
	}
	open, err := s.repo.CountOpenLoans(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count open loans")
	}
	if open > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "copy has an open loan")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete copy")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.BookCopy, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "copy id required")
	}
	copyRow, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "copy not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load copy")
	}
	return copyRow, nil
}

func (s *service) validateRack(ctx context.Context, rackID *uuid.UUID) error {
	if rackID == nil {
		return nil
	}
	if _, err := s.racks.FindByID(ctx, *rackID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "rack not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load rack")
	}
	return nil
}

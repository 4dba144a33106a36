package racks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

// Service exposes rack management operations.
type Service interface {
	Create(ctx context.Context, input CreateRackInput) (*RackDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*RackDTO, error)
	List(ctx context.Context, page pagination.Params) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateRackInput) (*RackDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ShelfContents(ctx context.Context, id uuid.UUID) (*ShelfListing, error)
}

type service struct {
	repo Repository
}

// NewService builds a rack service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("racks repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateRackInput) (*RackDTO, error) {
	rackNumber := strings.TrimSpace(input.RackNumber)
	if rackNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rack_number is required")
	}

	if _, err := s.repo.FindByNumber(ctx, rackNumber); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "rack number already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check rack number")
	}

	rack := &models.Rack{
		RackNumber: rackNumber,
		Location:   input.Location,
		Capacity:   100,
		Shelves:    5,
	}
	if input.Capacity != nil {
		if *input.Capacity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity must be positive")
		}
		rack.Capacity = *input.Capacity
	}
	if input.Shelves != nil {
		if *input.Shelves <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shelves must be positive")
		}
		rack.Shelves = *input.Shelves
	}

	if _, err := s.repo.Create(ctx, rack); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create rack")
	}
	dto := fromModel(rack, 0)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*RackDTO, error) {
	rack, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountCopies(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count copies")
	}
	dto := fromModel(rack, count)
	return &dto, nil
}

func (s *service) List(ctx context.Context, page pagination.Params) (*ListResult, error) {
	rows, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list racks")
	}

	result := &ListResult{
		Racks: make([]RackDTO, 0, len(rows)),
		Meta:  pagination.MetaFor(page, total),
	}
	for i := range rows {
		result.Racks = append(result.Racks, fromModel(&rows[i].Rack, rows[i].CopiesCount))
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateRackInput) (*RackDTO, error) {
	rack, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.RackNumber != nil {
		rackNumber := strings.TrimSpace(*input.RackNumber)
		if rackNumber == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rack_number cannot be empty")
		}
		existing, err := s.repo.FindByNumber(ctx, rackNumber)
		if err == nil && existing.ID != rack.ID {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "rack number already exists")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check rack number")
		}
		rack.RackNumber = rackNumber
	}
	if input.Location != nil {
		rack.Location = input.Location
	}
	if input.Capacity != nil {
		if *input.Capacity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity must be positive")
		}
		count, err := s.repo.CountCopies(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count copies")
		}
		if int64(*input.Capacity) < count {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				"capacity cannot drop below the number of shelved copies")
		}
		rack.Capacity = *input.Capacity
	}
	if input.Shelves != nil {
		if *input.Shelves <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shelves must be positive")
		}
		rack.Shelves = *input.Shelves
	}

	if _, err := s.repo.Update(ctx, rack); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update rack")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountCopies(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count copies")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "rack still holds copies")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete rack")
	}
	return nil
}

func (s *service) ShelfContents(ctx context.Context, id uuid.UUID) (*ShelfListing, error) {
	dto, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListShelfContents(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shelf contents")
	}

	listing := &ShelfListing{
		Rack:    *dto,
		Shelves: make(map[string][]ShelfCopy),
	}
	for _, row := range rows {
		key := "unshelved"
		if row.ShelfNumber != nil {
			key = strconv.Itoa(*row.ShelfNumber)
		}
		listing.Shelves[key] = append(listing.Shelves[key], row)
	}
	return listing, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Rack, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rack id required")
	}
	rack, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rack not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load rack")
	}
	return rack, nil
}

package racks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

type stubRacksRepo struct {
	racks     map[uuid.UUID]*models.Rack
	byNumber  map[string]*models.Rack
	copyCount int64
	shelves   []ShelfCopy
	deleted   []uuid.UUID
}

func newStubRacksRepo() *stubRacksRepo {
	return &stubRacksRepo{
		racks:    make(map[uuid.UUID]*models.Rack),
		byNumber: make(map[string]*models.Rack),
	}
}

func (s *stubRacksRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubRacksRepo) Create(ctx context.Context, rack *models.Rack) (*models.Rack, error) {
	if rack.ID == uuid.Nil {
		rack.ID = uuid.New()
	}
	s.racks[rack.ID] = rack
	s.byNumber[rack.RackNumber] = rack
	return rack, nil
}

func (s *stubRacksRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Rack, error) {
	rack, ok := s.racks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rack, nil
}

func (s *stubRacksRepo) FindByNumber(ctx context.Context, rackNumber string) (*models.Rack, error) {
	rack, ok := s.byNumber[rackNumber]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rack, nil
}

func (s *stubRacksRepo) List(ctx context.Context, page pagination.Params) ([]RackRow, int64, error) {
	rows := make([]RackRow, 0, len(s.racks))
	for _, rack := range s.racks {
		rows = append(rows, RackRow{Rack: *rack, CopiesCount: s.copyCount})
	}
	return rows, int64(len(rows)), nil
}

func (s *stubRacksRepo) Update(ctx context.Context, rack *models.Rack) (*models.Rack, error) {
	if _, ok := s.racks[rack.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.racks[rack.ID] = rack
	s.byNumber[rack.RackNumber] = rack
	return rack, nil
}

func (s *stubRacksRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.racks, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubRacksRepo) CountCopies(ctx context.Context, rackID uuid.UUID) (int64, error) {
	return s.copyCount, nil
}

func (s *stubRacksRepo) ListShelfContents(ctx context.Context, rackID uuid.UUID) ([]ShelfCopy, error) {
	return s.shelves, nil
}

func newRacksService(t *testing.T, repo *stubRacksRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateRackDefaults(t *testing.T) {
	repo := newStubRacksRepo()
	svc := newRacksService(t, repo)

	rack, err := svc.Create(context.Background(), CreateRackInput{RackNumber: "A-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rack.Capacity != 100 {
		t.Fatalf("expected default capacity 100, got %d", rack.Capacity)
	}
	if rack.Shelves != 5 {
		t.Fatalf("expected default 5 shelves, got %d", rack.Shelves)
	}
}

func TestCreateRackDuplicateNumber(t *testing.T) {
	repo := newStubRacksRepo()
	svc := newRacksService(t, repo)

	if _, err := svc.Create(context.Background(), CreateRackInput{RackNumber: "A-1"}); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	_, err := svc.Create(context.Background(), CreateRackInput{RackNumber: "A-1"})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestUpdateRackCapacityBelowShelvedBlocked(t *testing.T) {
	repo := newStubRacksRepo()
	svc := newRacksService(t, repo)

	rack, err := svc.Create(context.Background(), CreateRackInput{RackNumber: "A-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	repo.copyCount = 40

	capacity := 30
	_, err = svc.Update(context.Background(), rack.ID, UpdateRackInput{Capacity: &capacity})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestDeleteRackWithCopiesBlocked(t *testing.T) {
	repo := newStubRacksRepo()
	svc := newRacksService(t, repo)

	rack, err := svc.Create(context.Background(), CreateRackInput{RackNumber: "A-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	repo.copyCount = 1

	err = svc.Delete(context.Background(), rack.ID)
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestShelfContentsGrouping(t *testing.T) {
	repo := newStubRacksRepo()
	svc := newRacksService(t, repo)

	rack, err := svc.Create(context.Background(), CreateRackInput{RackNumber: "A-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	shelfOne := 1
	repo.shelves = []ShelfCopy{
		{CopyID: uuid.New(), ShelfNumber: &shelfOne},
		{CopyID: uuid.New(), ShelfNumber: &shelfOne},
		{CopyID: uuid.New()},
	}

	listing, err := svc.ShelfContents(context.Background(), rack.ID)
	if err != nil {
		t.Fatalf("ShelfContents: %v", err)
	}
	if len(listing.Shelves["1"]) != 2 {
		t.Fatalf("expected 2 copies on shelf 1, got %d", len(listing.Shelves["1"]))
	}
	if len(listing.Shelves["unshelved"]) != 1 {
		t.Fatalf("expected 1 unshelved copy, got %d", len(listing.Shelves["unshelved"]))
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code(), err)
	}
}

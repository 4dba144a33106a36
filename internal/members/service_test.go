package members

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

type stubMembersRepo struct {
	members   map[uuid.UUID]*models.Member
	byEmail   map[string]*models.Member
	openLoans int64
	deleted   []uuid.UUID
}

func newStubMembersRepo() *stubMembersRepo {
	return &stubMembersRepo{
		members: make(map[uuid.UUID]*models.Member),
		byEmail: make(map[string]*models.Member),
	}
}

func (s *stubMembersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubMembersRepo) Create(ctx context.Context, member *models.Member) (*models.Member, error) {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	s.members[member.ID] = member
	s.byEmail[member.Email] = member
	return member, nil
}

func (s *stubMembersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	member, ok := s.members[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return member, nil
}

func (s *stubMembersRepo) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	member, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return member, nil
}

func (s *stubMembersRepo) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Member, int64, error) {
	rows := make([]models.Member, 0, len(s.members))
	for _, member := range s.members {
		if filter.Status != "" && member.Status != filter.Status {
			continue
		}
		rows = append(rows, *member)
	}
	return rows, int64(len(rows)), nil
}

func (s *stubMembersRepo) Update(ctx context.Context, member *models.Member) (*models.Member, error) {
	if _, ok := s.members[member.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.members[member.ID] = member
	s.byEmail[member.Email] = member
	return member, nil
}

func (s *stubMembersRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.members, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubMembersRepo) TouchLastActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	member, ok := s.members[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	member.LastActivityAt = &at
	return nil
}

func (s *stubMembersRepo) CountOpenLoans(ctx context.Context, memberID uuid.UUID) (int64, error) {
	return s.openLoans, nil
}

func (s *stubMembersRepo) Stats(ctx context.Context, memberID uuid.UUID, asOf time.Time) (*MemberStats, error) {
	return &MemberStats{BooksIssued: s.openLoans, TotalFines: decimal.Zero}, nil
}

func (s *stubMembersRepo) RecentLoans(ctx context.Context, memberID uuid.UUID, limit int) ([]models.Loan, error) {
	return nil, nil
}

func (s *stubMembersRepo) RecentPayments(ctx context.Context, memberID uuid.UUID, limit int) ([]models.Payment, error) {
	return nil, nil
}

func newMembersService(t *testing.T, repo *stubMembersRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateMemberDefaults(t *testing.T) {
	repo := newStubMembersRepo()
	svc := newMembersService(t, repo)

	member, err := svc.Create(context.Background(), CreateMemberInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     " Ada@Example.COM ",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if member.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", member.Email)
	}
	if member.MembershipType != enums.MembershipTypeStandard {
		t.Fatalf("expected standard membership, got %s", member.MembershipType)
	}
	if member.Status != enums.MemberStatusActive {
		t.Fatalf("expected active status, got %s", member.Status)
	}
}

func TestCreateMemberDuplicateEmail(t *testing.T) {
	repo := newStubMembersRepo()
	svc := newMembersService(t, repo)

	input := CreateMemberInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	_, err := svc.Create(context.Background(), input)
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestCreateMemberRequiresNames(t *testing.T) {
	svc := newMembersService(t, newStubMembersRepo())

	_, err := svc.Create(context.Background(), CreateMemberInput{Email: "x@example.com"})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestDeactivateMemberWithOpenLoansBlocked(t *testing.T) {
	repo := newStubMembersRepo()
	svc := newMembersService(t, repo)

	member, err := svc.Create(context.Background(), CreateMemberInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	repo.openLoans = 2

	inactive := enums.MemberStatusInactive
	_, err = svc.Update(context.Background(), member.ID, UpdateMemberInput{Status: &inactive})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSuspendMemberWithOpenLoans(t *testing.T) {
	repo := newStubMembersRepo()
	svc := newMembersService(t, repo)

	member, err := svc.Create(context.Background(), CreateMemberInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	repo.openLoans = 2

	// Suspension is allowed even with books out; it blocks further issues.
	suspended := enums.MemberStatusSuspended
	updated, err := svc.Update(context.Background(), member.ID, UpdateMemberInput{Status: &suspended})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != enums.MemberStatusSuspended {
		t.Fatalf("expected suspended, got %s", updated.Status)
	}
}

func TestDeleteMemberWithOpenLoansBlocked(t *testing.T) {
	repo := newStubMembersRepo()
	svc := newMembersService(t, repo)

	member, err := svc.Create(context.Background(), CreateMemberInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	repo.openLoans = 1

	err = svc.Delete(context.Background(), member.ID)
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestMemberStats(t *testing.T) {
	repo := newStubMembersRepo()
	svc := newMembersService(t, repo)

	member, err := svc.Create(context.Background(), CreateMemberInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	repo.openLoans = 3

	stats, err := svc.Stats(context.Background(), member.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.BooksIssued != 3 {
		t.Fatalf("expected 3 issued, got %d", stats.BooksIssued)
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

package loans

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/config"
	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

type stubLoansRepo struct {
	mu          sync.Mutex
	loans       map[uuid.UUID]*models.Loan
	copyStatus  map[uuid.UUID]enums.CopyStatus
	touched     []uuid.UUID
	claimCopy   func(ctx context.Context, copyID uuid.UUID) (bool, error)
	releaseCopy func(ctx context.Context, copyID uuid.UUID, status enums.CopyStatus) error
}

func newStubLoansRepo() *stubLoansRepo {
	return &stubLoansRepo{
		loans:      make(map[uuid.UUID]*models.Loan),
		copyStatus: make(map[uuid.UUID]enums.CopyStatus),
	}
}

func (s *stubLoansRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubLoansRepo) Create(ctx context.Context, loan *models.Loan) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	s.loans[loan.ID] = loan
	return loan, nil
}

func (s *stubLoansRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return loan, nil
}

func (s *stubLoansRepo) FindDetail(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	return s.FindByID(ctx, id)
}

func (s *stubLoansRepo) List(ctx context.Context, filter ListFilter, asOf time.Time, page pagination.Params) ([]models.Loan, int64, error) {
	panic("not implemented")
}

func (s *stubLoansRepo) ListOverdue(ctx context.Context, asOf time.Time, page pagination.Params) ([]models.Loan, int64, error) {
	panic("not implemented")
}

func (s *stubLoansRepo) Update(ctx context.Context, loan *models.Loan) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loans[loan.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.loans[loan.ID] = loan
	return loan, nil
}

func (s *stubLoansRepo) ClaimCopy(ctx context.Context, copyID uuid.UUID) (bool, error) {
	if s.claimCopy != nil {
		return s.claimCopy(ctx, copyID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.copyStatus[copyID] != enums.CopyStatusAvailable {
		return false, nil
	}
	s.copyStatus[copyID] = enums.CopyStatusIssued
	return true, nil
}

func (s *stubLoansRepo) ReleaseCopy(ctx context.Context, copyID uuid.UUID, status enums.CopyStatus) error {
	if s.releaseCopy != nil {
		return s.releaseCopy(ctx, copyID, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.copyStatus[copyID] = status
	return nil
}

func (s *stubLoansRepo) TouchMemberActivity(ctx context.Context, memberID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, memberID)
	return nil
}

func (s *stubLoansRepo) Stats(ctx context.Context, asOf time.Time) (*Stats, error) {
	panic("not implemented")
}

type stubCopyLoader struct {
	copies map[uuid.UUID]*models.BookCopy
}

func (s *stubCopyLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.BookCopy, error) {
	if copyRow, ok := s.copies[id]; ok {
		return copyRow, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubMemberLoader struct {
	members map[uuid.UUID]*models.Member
}

func (s *stubMemberLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	if member, ok := s.members[id]; ok {
		return member, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testCirculationConfig() config.CirculationConfig {
	return config.CirculationConfig{FineDailyRate: "1.00", DefaultLoanDays: 14}
}

type loansFixture struct {
	service  Service
	repo     *stubLoansRepo
	copies   *stubCopyLoader
	members  *stubMemberLoader
	copyID   uuid.UUID
	memberID uuid.UUID
	now      time.Time
}

func newLoansFixture(t *testing.T) *loansFixture {
	t.Helper()

	copyID := uuid.New()
	memberID := uuid.New()
	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	repo := newStubLoansRepo()
	repo.copyStatus[copyID] = enums.CopyStatusAvailable

	copies := &stubCopyLoader{copies: map[uuid.UUID]*models.BookCopy{
		copyID: {ID: copyID, BookID: uuid.New(), Status: enums.CopyStatusAvailable},
	}}
	members := &stubMemberLoader{members: map[uuid.UUID]*models.Member{
		memberID: {ID: memberID, Status: enums.MemberStatusActive},
	}}

	svc, err := NewService(ServiceParams{
		Repo:        repo,
		Tx:          stubTxRunner{},
		Copies:      copies,
		Members:     members,
		Circulation: testCirculationConfig(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.(*service).now = func() time.Time { return now }

	return &loansFixture{
		service:  svc,
		repo:     repo,
		copies:   copies,
		members:  members,
		copyID:   copyID,
		memberID: memberID,
		now:      now,
	}
}

func TestIssueCreatesLoan(t *testing.T) {
	f := newLoansFixture(t)

	loan, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if loan.Status != enums.LoanStatusIssued {
		t.Fatalf("expected status issued, got %s", loan.Status)
	}
	expectedDue := f.now.AddDate(0, 0, 14)
	if !loan.DueDate.Equal(expectedDue) {
		t.Fatalf("expected due date %s, got %s", expectedDue, loan.DueDate)
	}
	if f.repo.copyStatus[f.copyID] != enums.CopyStatusIssued {
		t.Fatalf("expected copy flipped to issued, got %s", f.repo.copyStatus[f.copyID])
	}
	if len(f.repo.touched) != 1 || f.repo.touched[0] != f.memberID {
		t.Fatalf("expected member activity touched once, got %v", f.repo.touched)
	}
}

func TestIssueHonorsExplicitDueDate(t *testing.T) {
	f := newLoansFixture(t)
	due := f.now.AddDate(0, 0, 30)

	loan, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID, DueDate: &due})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !loan.DueDate.Equal(due) {
		t.Fatalf("expected due date %s, got %s", due, loan.DueDate)
	}
}

func TestIssueRejectsPastDueDate(t *testing.T) {
	f := newLoansFixture(t)
	due := f.now.AddDate(0, 0, -1)

	_, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID, DueDate: &due})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestIssueUnknownCopy(t *testing.T) {
	f := newLoansFixture(t)

	_, err := f.service.Issue(context.Background(), IssueInput{CopyID: uuid.New(), MemberID: f.memberID})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestIssueInactiveMember(t *testing.T) {
	f := newLoansFixture(t)
	f.members.members[f.memberID].Status = enums.MemberStatusSuspended

	_, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestIssueUnavailableCopy(t *testing.T) {
	f := newLoansFixture(t)
	f.repo.copyStatus[f.copyID] = enums.CopyStatusIssued

	_, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestIssueChecksCopyBeforeMember(t *testing.T) {
	f := newLoansFixture(t)
	f.copies.copies[f.copyID].Status = enums.CopyStatusIssued
	f.repo.copyStatus[f.copyID] = enums.CopyStatusIssued
	f.members.members[f.memberID].Status = enums.MemberStatusSuspended

	_, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	assertCode(t, err, pkgerrors.CodeStateConflict)
	if msg := pkgerrors.As(err).Message(); msg != "copy is not available" {
		t.Fatalf("expected the copy error to win, got %q", msg)
	}
}

func TestIssueConcurrentClaimsOneWinner(t *testing.T) {
	f := newLoansFixture(t)
	secondMember := uuid.New()
	f.members.members[secondMember] = &models.Member{ID: secondMember, Status: enums.MemberStatusActive}

	start := make(chan struct{})
	results := make(chan error, 2)
	for _, memberID := range []uuid.UUID{f.memberID, secondMember} {
		go func(id uuid.UUID) {
			<-start
			_, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: id})
			results <- err
		}(memberID)
	}
	close(start)

	var failures, successes int
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			assertCode(t, err, pkgerrors.CodeStateConflict)
			failures++
		} else {
			successes++
		}
	}
	if successes != 1 || failures != 1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d failures", successes, failures)
	}
	if len(f.repo.loans) != 1 {
		t.Fatalf("expected one loan record, got %d", len(f.repo.loans))
	}
}

func TestReturnOnTimeChargesNothing(t *testing.T) {
	f := newLoansFixture(t)
	loan, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	returned, err := f.service.Return(context.Background(), loan.ID, ReturnInput{})
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if returned.Status != enums.LoanStatusReturned {
		t.Fatalf("expected status returned, got %s", returned.Status)
	}
	if !returned.FineAmount.IsZero() {
		t.Fatalf("expected zero fine, got %s", returned.FineAmount)
	}
	if returned.ReturnDate == nil || !returned.ReturnDate.Equal(f.now) {
		t.Fatalf("expected return date %s, got %v", f.now, returned.ReturnDate)
	}
	if f.repo.copyStatus[f.copyID] != enums.CopyStatusAvailable {
		t.Fatalf("expected copy back to available, got %s", f.repo.copyStatus[f.copyID])
	}
}

func TestReturnLateAccruesFine(t *testing.T) {
	f := newLoansFixture(t)
	loan, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Three whole days past due at 1.00 per day.
	f.service.(*service).now = func() time.Time { return f.now.AddDate(0, 0, 17) }

	returned, err := f.service.Return(context.Background(), loan.ID, ReturnInput{})
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if want := decimal.NewFromInt(3); !returned.FineAmount.Equal(want) {
		t.Fatalf("expected fine %s, got %s", want, returned.FineAmount)
	}
}

func TestReturnFineOverride(t *testing.T) {
	f := newLoansFixture(t)
	loan, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	override := decimal.RequireFromString("2.50")
	returned, err := f.service.Return(context.Background(), loan.ID, ReturnInput{FineAmount: &override})
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if !returned.FineAmount.Equal(override) {
		t.Fatalf("expected fine %s, got %s", override, returned.FineAmount)
	}
}

func TestReturnRejectsNegativeFine(t *testing.T) {
	f := newLoansFixture(t)
	negative := decimal.NewFromInt(-1)

	_, err := f.service.Return(context.Background(), uuid.New(), ReturnInput{FineAmount: &negative})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestReturnClosedLoan(t *testing.T) {
	f := newLoansFixture(t)
	loan, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := f.service.Return(context.Background(), loan.ID, ReturnInput{}); err != nil {
		t.Fatalf("first Return: %v", err)
	}

	_, err = f.service.Return(context.Background(), loan.ID, ReturnInput{})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateRejectsEmptyInput(t *testing.T) {
	f := newLoansFixture(t)
	loan, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = f.service.Update(context.Background(), loan.ID, UpdateLoanInput{})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateMarksLoanLost(t *testing.T) {
	f := newLoansFixture(t)
	loan, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	lost := enums.LoanStatusLost
	updated, err := f.service.Update(context.Background(), loan.ID, UpdateLoanInput{Status: &lost})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != enums.LoanStatusLost {
		t.Fatalf("expected status lost, got %s", updated.Status)
	}
	if f.repo.copyStatus[f.copyID] != enums.CopyStatusLost {
		t.Fatalf("expected copy marked lost, got %s", f.repo.copyStatus[f.copyID])
	}
}

func TestUpdateCannotCloseLoan(t *testing.T) {
	f := newLoansFixture(t)
	loan, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	returned := enums.LoanStatusReturned
	_, err = f.service.Update(context.Background(), loan.ID, UpdateLoanInput{Status: &returned})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateOverdueFlagRoundTrip(t *testing.T) {
	f := newLoansFixture(t)
	loan, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	overdue := enums.LoanStatusOverdue
	updated, err := f.service.Update(context.Background(), loan.ID, UpdateLoanInput{Status: &overdue})
	if err != nil {
		t.Fatalf("Update to overdue: %v", err)
	}
	if updated.Status != enums.LoanStatusOverdue {
		t.Fatalf("expected status overdue, got %s", updated.Status)
	}

	issued := enums.LoanStatusIssued
	updated, err = f.service.Update(context.Background(), loan.ID, UpdateLoanInput{Status: &issued})
	if err != nil {
		t.Fatalf("Update back to issued: %v", err)
	}
	if updated.Status != enums.LoanStatusIssued {
		t.Fatalf("expected status issued, got %s", updated.Status)
	}
}

func TestUpdateDueDateOnClosedLoan(t *testing.T) {
	f := newLoansFixture(t)
	loan, err := f.service.Issue(context.Background(), IssueInput{CopyID: f.copyID, MemberID: f.memberID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := f.service.Return(context.Background(), loan.ID, ReturnInput{}); err != nil {
		t.Fatalf("Return: %v", err)
	}

	due := f.now.AddDate(0, 0, 60)
	_, err = f.service.Update(context.Background(), loan.ID, UpdateLoanInput{DueDate: &due})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestDaysLate(t *testing.T) {
	due := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		asOf time.Time
		want int
	}{
		{"before due", due.AddDate(0, 0, -1), 0},
		{"exactly due", due, 0},
		{"under one day", due.Add(12 * time.Hour), 0},
		{"three days", due.AddDate(0, 0, 3), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := daysLate(due, tc.asOf); got != tc.want {
				t.Fatalf("daysLate = %d, want %d", got, tc.want)
			}
		})
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

package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/librarian-backend/internal/auth"
	"github.com/angelmondragon/librarian-backend/internal/books"
	"github.com/angelmondragon/librarian-backend/internal/copies"
	"github.com/angelmondragon/librarian-backend/internal/loans"
	"github.com/angelmondragon/librarian-backend/internal/members"
	"github.com/angelmondragon/librarian-backend/internal/payments"
	"github.com/angelmondragon/librarian-backend/internal/racks"
	"github.com/angelmondragon/librarian-backend/internal/users"
	pkgauth "github.com/angelmondragon/librarian-backend/pkg/auth"
	"github.com/angelmondragon/librarian-backend/pkg/auth/session"
	"github.com/angelmondragon/librarian-backend/pkg/config"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/logger"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

type stubBooksService struct{}

func (stubBooksService) Create(ctx context.Context, input books.CreateBookInput) (*books.BookDTO, error) {
	panic("unimplemented")
}

func (stubBooksService) Get(ctx context.Context, id uuid.UUID) (*books.BookDTO, error) {
	panic("unimplemented")
}

func (stubBooksService) List(ctx context.Context, filter books.ListFilter, page pagination.Params) (*books.ListResult, error) {
	return &books.ListResult{}, nil
}

func (stubBooksService) Update(ctx context.Context, id uuid.UUID, input books.UpdateBookInput) (*books.BookDTO, error) {
	panic("unimplemented")
}

func (stubBooksService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubBooksService) Categories(ctx context.Context) ([]string, error) {
	return []string{"fiction"}, nil
}

func (stubBooksService) Languages(ctx context.Context) ([]string, error) {
	return []string{"English"}, nil
}

type stubCopiesService struct{}

func (stubCopiesService) Add(ctx context.Context, input copies.AddCopiesInput) ([]copies.CopyDTO, error) {
	panic("unimplemented")
}

func (stubCopiesService) Get(ctx context.Context, id uuid.UUID) (*copies.CopyDTO, error) {
	panic("unimplemented")
}

func (stubCopiesService) List(ctx context.Context, filter copies.ListFilter, page pagination.Params) (*copies.ListResult, error) {
	return &copies.ListResult{}, nil
}

func (stubCopiesService) Update(ctx context.Context, id uuid.UUID, input copies.UpdateCopyInput) (*copies.CopyDTO, error) {
	panic("unimplemented")
}

func (stubCopiesService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubMembersService struct{}

func (stubMembersService) Create(ctx context.Context, input members.CreateMemberInput) (*members.MemberDTO, error) {
	panic("unimplemented")
}

func (stubMembersService) Get(ctx context.Context, id uuid.UUID) (*members.MemberDTO, error) {
	panic("unimplemented")
}

func (stubMembersService) List(ctx context.Context, filter members.ListFilter, page pagination.Params) (*members.ListResult, error) {
	return &members.ListResult{}, nil
}

func (stubMembersService) Update(ctx context.Context, id uuid.UUID, input members.UpdateMemberInput) (*members.MemberDTO, error) {
	panic("unimplemented")
}

func (stubMembersService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubMembersService) Stats(ctx context.Context, id uuid.UUID) (*members.MemberStats, error) {
	panic("unimplemented")
}

type stubLoansService struct{}

func (stubLoansService) Issue(ctx context.Context, input loans.IssueInput) (*loans.LoanDTO, error) {
	panic("unimplemented")
}

func (stubLoansService) Return(ctx context.Context, loanID uuid.UUID, input loans.ReturnInput) (*loans.LoanDTO, error) {
	panic("unimplemented")
}

func (stubLoansService) Get(ctx context.Context, id uuid.UUID) (*loans.LoanDTO, error) {
	panic("unimplemented")
}

func (stubLoansService) List(ctx context.Context, filter loans.ListFilter, page pagination.Params) (*loans.ListResult, error) {
	return &loans.ListResult{}, nil
}

func (stubLoansService) Overdue(ctx context.Context, page pagination.Params) (*loans.ListResult, error) {
	return &loans.ListResult{}, nil
}

func (stubLoansService) Update(ctx context.Context, id uuid.UUID, input loans.UpdateLoanInput) (*loans.LoanDTO, error) {
	panic("unimplemented")
}

func (stubLoansService) Stats(ctx context.Context) (*loans.Stats, error) {
	return &loans.Stats{}, nil
}

type stubPaymentsService struct{}

func (stubPaymentsService) Record(ctx context.Context, input payments.RecordInput) (*payments.PaymentDTO, error) {
	panic("unimplemented")
}

func (stubPaymentsService) Get(ctx context.Context, id uuid.UUID) (*payments.PaymentDTO, error) {
	panic("unimplemented")
}

func (stubPaymentsService) List(ctx context.Context, filter payments.ListFilter, page pagination.Params) (*payments.ListResult, error) {
	return &payments.ListResult{}, nil
}

func (stubPaymentsService) Update(ctx context.Context, id uuid.UUID, input payments.UpdatePaymentInput) (*payments.PaymentDTO, error) {
	panic("unimplemented")
}

func (stubPaymentsService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubPaymentsService) MemberSummary(ctx context.Context, memberID uuid.UUID) (*payments.MemberSummary, error) {
	panic("unimplemented")
}

func (stubPaymentsService) Report(ctx context.Context, from, to time.Time) (*payments.Report, error) {
	return &payments.Report{From: from, To: to}, nil
}

type stubRacksService struct{}

func (stubRacksService) Create(ctx context.Context, input racks.CreateRackInput) (*racks.RackDTO, error) {
	panic("unimplemented")
}

func (stubRacksService) Get(ctx context.Context, id uuid.UUID) (*racks.RackDTO, error) {
	panic("unimplemented")
}

func (stubRacksService) List(ctx context.Context, page pagination.Params) (*racks.ListResult, error) {
	return &racks.ListResult{}, nil
}

func (stubRacksService) Update(ctx context.Context, id uuid.UUID, input racks.UpdateRackInput) (*racks.RackDTO, error) {
	panic("unimplemented")
}

func (stubRacksService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubRacksService) ShelfContents(ctx context.Context, id uuid.UUID) (*racks.ShelfListing, error) {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:          cfg,
		Logger:          logg,
		Sessions:        stubSessionChecker{},
		AuthService:     stubAuthService{},
		RegisterService: stubRegisterService{},
		Books:           stubBooksService{},
		Copies:          stubCopiesService{},
		Members:         stubMembersService{},
		Loans:           stubLoansService{},
		Payments:        stubPaymentsService{},
		Racks:           stubRacksService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestProtectedRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	paths := []string{"/api/v1/books", "/api/v1/loans", "/api/v1/members", "/api/v1/racks"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s without token got %d", path, resp.Code)
		}
	}
}

func TestProtectedRoutesSucceedWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg, enums.UserRoleLibrarian)

	paths := []string{"/api/v1/books", "/api/v1/loans", "/api/v1/loans/overdue", "/api/v1/loans/stats", "/api/v1/payments", "/api/v1/racks"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestRegisterRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	librarian := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil)
	librarian.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleLibrarian))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, librarian)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for librarian register got %d", resp.Code)
	}
}

func TestPaymentReportRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	librarian := httptest.NewRequest(http.MethodGet, "/api/v1/payments/report?from=2025-01-01&to=2025-02-01", nil)
	librarian.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleLibrarian))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, librarian)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for librarian report got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/payments/report?from=2025-01-01&to=2025-02-01", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin report got %d", resp.Code)
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

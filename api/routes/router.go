package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/librarian-backend/api/controllers"
	"github.com/angelmondragon/librarian-backend/api/middleware"
	"github.com/angelmondragon/librarian-backend/internal/auth"
	"github.com/angelmondragon/librarian-backend/internal/books"
	"github.com/angelmondragon/librarian-backend/internal/copies"
	"github.com/angelmondragon/librarian-backend/internal/loans"
	"github.com/angelmondragon/librarian-backend/internal/members"
	"github.com/angelmondragon/librarian-backend/internal/payments"
	"github.com/angelmondragon/librarian-backend/internal/racks"
	"github.com/angelmondragon/librarian-backend/pkg/auth/session"
	"github.com/angelmondragon/librarian-backend/pkg/config"
	"github.com/angelmondragon/librarian-backend/pkg/db"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/logger"
	"github.com/angelmondragon/librarian-backend/pkg/metrics"
	"github.com/angelmondragon/librarian-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Database *db.Client
	Cache    *redis.Client
	Sessions session.AccessSessionChecker

	AuthService     auth.Service
	RegisterService auth.RegisterService
	Books           books.Service
	Copies          copies.Service
	Members         members.Service
	Loans           loans.Service
	Payments        payments.Service
	Racks           racks.Service

	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(p.HTTPMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.Database, p.Cache))
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Cache, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
			r.Post("/logout", controllers.AuthLogout(p.AuthService, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).Post("/register", controllers.AuthRegister(p.RegisterService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

		r.Route("/books", func(r chi.Router) {
			r.Get("/", controllers.ListBooks(p.Books, logg))
			r.Post("/", controllers.CreateBook(p.Books, logg))
			r.Get("/categories", controllers.ListBookCategories(p.Books, logg))
			r.Get("/languages", controllers.ListBookLanguages(p.Books, logg))
			r.Get("/{id}", controllers.GetBook(p.Books, logg))
			r.Patch("/{id}", controllers.UpdateBook(p.Books, logg))
			r.Delete("/{id}", controllers.DeleteBook(p.Books, logg))
		})

		r.Route("/copies", func(r chi.Router) {
			r.Get("/", controllers.ListCopies(p.Copies, logg))
			r.Post("/", controllers.AddCopies(p.Copies, logg))
			r.Get("/{id}", controllers.GetCopy(p.Copies, logg))
			r.Patch("/{id}", controllers.UpdateCopy(p.Copies, logg))
			r.Delete("/{id}", controllers.DeleteCopy(p.Copies, logg))
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", controllers.ListMembers(p.Members, logg))
			r.Post("/", controllers.CreateMember(p.Members, logg))
			r.Get("/{id}", controllers.GetMember(p.Members, logg))
			r.Patch("/{id}", controllers.UpdateMember(p.Members, logg))
			r.Delete("/{id}", controllers.DeleteMember(p.Members, logg))
			r.Get("/{id}/stats", controllers.MemberStats(p.Members, logg))
			r.Get("/{id}/payments", controllers.MemberPaymentSummary(p.Payments, logg))
		})

		r.Route("/loans", func(r chi.Router) {
			r.Get("/", controllers.ListLoans(p.Loans, logg))
			r.Post("/", controllers.IssueLoan(p.Loans, logg))
			r.Get("/overdue", controllers.ListOverdueLoans(p.Loans, logg))
			r.Get("/stats", controllers.LoanStats(p.Loans, logg))
			r.Get("/{id}", controllers.GetLoan(p.Loans, logg))
			r.Patch("/{id}", controllers.UpdateLoan(p.Loans, logg))
			r.Post("/{id}/return", controllers.ReturnLoan(p.Loans, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.ListPayments(p.Payments, logg))
			r.Post("/", controllers.RecordPayment(p.Payments, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).Get("/report", controllers.PaymentReport(p.Payments, logg))
			r.Get("/{id}", controllers.GetPayment(p.Payments, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).Patch("/{id}", controllers.UpdatePayment(p.Payments, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).Delete("/{id}", controllers.DeletePayment(p.Payments, logg))
		})

		r.Route("/racks", func(r chi.Router) {
			r.Get("/", controllers.ListRacks(p.Racks, logg))
			r.Post("/", controllers.CreateRack(p.Racks, logg))
			r.Get("/{id}", controllers.GetRack(p.Racks, logg))
			r.Patch("/{id}", controllers.UpdateRack(p.Racks, logg))
			r.Delete("/{id}", controllers.DeleteRack(p.Racks, logg))
			r.Get("/{id}/shelves", controllers.RackShelfContents(p.Racks, logg))
		})
	})

	return r
}

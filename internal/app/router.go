package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
	"github.com/meridian-erp/meridian-erp/internal/auth"
	"github.com/meridian-erp/meridian-erp/internal/branches"
	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/customers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/taxes"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/vendors"
	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/payments"
	"github.com/meridian-erp/meridian-erp/internal/projects"
	"github.com/meridian-erp/meridian-erp/internal/rbac"
	"github.com/meridian-erp/meridian-erp/internal/users"
	"github.com/meridian-erp/meridian-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	TokenVerifier    auth.TokenVerifier
	AuthHandler      *auth.Handler
	BranchesHandler  *branches.Handler
	UsersHandler     *users.Handler
	AccountsHandler  *accounts.Handler
	TaxesHandler     *taxes.Handler
	CustomersHandler *customers.Handler
	VendorsHandler   *vendors.Handler
	NumberingHandler *numbering.Handler
	DocumentsHandler *documents.Handler
	PaymentsHandler  *payments.Handler
	LedgerHandler    *ledger.Handler
	ProjectsHandler  *projects.Handler
	JobHandler       *jobs.Handler
	RBACMiddleware   rbac.Middleware
}

// documentMounts maps each document family to its route prefix. Every family
// shares the same engine; only the numbering kind differs.
var documentMounts = []struct {
	Path   string
	Module string
	Kind   numbering.DocKind
}{
	{"/quotes", "quotes", numbering.KindQuote},
	{"/sale-orders", "sale_orders", numbering.KindSaleOrder},
	{"/purchase-orders", "purchase_orders", numbering.KindPurchaseOrder},
	{"/invoices", "invoices", numbering.KindInvoice},
	{"/bills", "bills", numbering.KindBill},
	{"/credit-notes", "credit_notes", numbering.KindCreditNote},
	{"/vendor-credits", "vendor_credits", numbering.KindVendorCredit},
	{"/expenses", "expenses", numbering.KindExpense},
}

// accountingPanel keys permission lookups for the money-moving endpoints.
const accountingPanel = "accounting"

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(params.TokenVerifier))

			if params.BranchesHandler != nil {
				r.Route("/branches", params.BranchesHandler.MountRoutes)
			}
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountRoutes)
			}
			if params.AccountsHandler != nil {
				r.Route("/accounts", params.AccountsHandler.MountRoutes)
				r.Route("/account-types", params.AccountsHandler.MountTypeRoutes)
			}
			if params.TaxesHandler != nil {
				r.Route("/taxes", params.TaxesHandler.MountRoutes)
			}
			if params.CustomersHandler != nil {
				r.Route("/customers", params.CustomersHandler.MountRoutes)
			}
			if params.VendorsHandler != nil {
				r.Route("/vendors", params.VendorsHandler.MountRoutes)
			}
			if params.ProjectsHandler != nil {
				r.Route("/projects", params.ProjectsHandler.MountRoutes)
			}
			if params.NumberingHandler != nil {
				r.Route("/settings/numbering", params.NumberingHandler.MountRoutes)
			}
			if params.DocumentsHandler != nil {
				for _, mount := range documentMounts {
					mount := mount
					r.Route(mount.Path, func(r chi.Router) {
						r.Use(params.RBACMiddleware.RequireForMethod(accountingPanel, mount.Module))
						params.DocumentsHandler.MountKind(mount.Kind)(r)
					})
				}
			}
			if params.PaymentsHandler != nil {
				r.Route("/payments", func(r chi.Router) {
					r.Use(params.RBACMiddleware.RequireForMethod(accountingPanel, "payments"))
					params.PaymentsHandler.MountRoutes(r)
				})
			}
			if params.LedgerHandler != nil {
				r.Route("/ledger", params.LedgerHandler.MountRoutes)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}

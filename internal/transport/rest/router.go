package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/payroll-engine/internal"
	"github.com/frahmantamala/payroll-engine/internal/auth"
	"github.com/frahmantamala/payroll-engine/internal/compensation"
	"github.com/frahmantamala/payroll-engine/internal/department"
	"github.com/frahmantamala/payroll-engine/internal/disbursement"
	"github.com/frahmantamala/payroll-engine/internal/employee"
	"github.com/frahmantamala/payroll-engine/internal/payroll"
	"github.com/frahmantamala/payroll-engine/internal/taxremittance"
	"github.com/frahmantamala/payroll-engine/internal/transport/middleware"
	"github.com/frahmantamala/payroll-engine/internal/transport/swagger"
	"github.com/frahmantamala/payroll-engine/internal/user"
	"github.com/frahmantamala/payroll-engine/internal/wallet"
)

// Handlers groups the HTTP handlers mounted under /api/v1. A nil handler
// leaves its routes unregistered.
type Handlers struct {
	Health        *HealthHandler
	Auth          *auth.Handler
	User          *user.Handler
	Employee      *employee.Handler
	Department    *department.Handler
	Deduction     *compensation.Handler
	ExtraEarning  *compensation.Handler
	Payroll       *payroll.Handler
	Disbursement  *disbursement.Handler
	Wallet        *wallet.Handler
	TaxRemittance *taxremittance.Handler
}

type RouterOptions struct {
	AllowedOrigins string
	OpenAPIPath    string
	// RequestValidator validates protected request bodies when set.
	RequestValidator func(http.Handler) http.Handler
}

func RegisterAllRoutes(router *chi.Mux, opts RouterOptions, h Handlers, logger *slog.Logger) {
	if h.Health == nil {
		h.Health = NewHealthHandler(nil)
	}

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.TraceID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	specPath := opts.OpenAPIPath
	if specPath == "" {
		specPath = "./api/openapi.yml"
	}
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, specPath)
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.healthCheckHandler)
		r.Get("/ping", h.Health.pingHandler)

		// The provider authenticates with a shared secret, not a bearer token.
		if h.Wallet != nil {
			r.Post("/wallet/webhook", h.Wallet.Webhook)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.ActorContext)
			if opts.RequestValidator != nil {
				pr.Use(opts.RequestValidator)
			}

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
				pr.Group(func(ar chi.Router) {
					ar.Use(h.Auth.RequireRole(internal.RoleAdmin))
					ar.Get("/users", h.User.List)
					ar.Post("/users", h.User.Create)
				})
			}

			// Everything below moves money or personal data.
			pr.Group(func(fr chi.Router) {
				fr.Use(h.Auth.RequireRole(internal.RoleAdmin, internal.RoleFinance))
				registerPeopleRoutes(fr, h)
				registerCompensationRoutes(fr, "/deductions", h.Deduction)
				registerCompensationRoutes(fr, "/extra-earnings", h.ExtraEarning)
				registerPayrollRoutes(fr, h)
				registerWalletRoutes(fr, h)
				registerTaxRoutes(fr, h)
			})
		})
	})
}

func registerPeopleRoutes(r chi.Router, h Handlers) {
	if h.Employee != nil {
		r.Route("/employees", func(er chi.Router) {
			er.Post("/", h.Employee.Create)
			er.Get("/", h.Employee.List)
			er.Get("/{employeeID}", h.Employee.Get)
			er.Put("/{employeeID}", h.Employee.Update)
			er.Delete("/{employeeID}", h.Employee.Delete)
		})
	}
	if h.Department != nil {
		r.Route("/departments", func(dr chi.Router) {
			dr.Get("/", h.Department.GetDepartments)
			dr.Post("/", h.Department.CreateDepartment)
			dr.Patch("/{departmentID}/deactivate", h.Department.DeactivateDepartment)
		})
	}
}

func registerCompensationRoutes(r chi.Router, prefix string, h *compensation.Handler) {
	if h == nil {
		return
	}
	r.Route(prefix, func(cr chi.Router) {
		cr.Post("/", h.Create)
		cr.Get("/", h.List)
		cr.Put("/{ruleID}", h.Update)
		cr.Delete("/{ruleID}", h.Delete)
		cr.Post("/{ruleID}/apply", h.Apply)
		cr.Delete("/{ruleID}/applications/{applicationID}", h.RemoveApplication)
	})
}

func registerPayrollRoutes(r chi.Router, h Handlers) {
	if h.Payroll == nil {
		return
	}
	r.Route("/payrolls", func(pr chi.Router) {
		pr.Post("/", h.Payroll.Schedule)
		pr.Get("/", h.Payroll.List)
		pr.Get("/summary", h.Payroll.Summary)
		pr.Get("/{payrollID}", h.Payroll.Get)
		pr.Put("/{payrollID}", h.Payroll.Update)
		pr.Delete("/{payrollID}", h.Payroll.Delete)
		pr.Delete("/{payrollID}/employees/{employeeID}", h.Payroll.RemoveEmployee)
		pr.Get("/{payrollID}/payslips/{payslipID}/pdf", h.Payroll.PayslipPDF)

		if h.Disbursement != nil {
			pr.Post("/{payrollID}/process", h.Disbursement.Process)
			pr.Post("/{payrollID}/payslips/{payslipID}/retry", h.Disbursement.RetryPayslip)
		}
	})
}

func registerWalletRoutes(r chi.Router, h Handlers) {
	if h.Wallet == nil {
		return
	}
	r.Get("/wallet", h.Wallet.GetBalance)
	r.Get("/wallet/transactions", h.Wallet.ListTransactions)
}

func registerTaxRoutes(r chi.Router, h Handlers) {
	if h.TaxRemittance == nil {
		return
	}
	r.Route("/tax-remittances", func(tr chi.Router) {
		tr.Post("/", h.TaxRemittance.Build)
		tr.Get("/", h.TaxRemittance.List)
		tr.Get("/{remittanceID}", h.TaxRemittance.Get)
		tr.Post("/{remittanceID}/process", h.TaxRemittance.Process)
		tr.Post("/{remittanceID}/employees/{employeeID}/retry", h.TaxRemittance.RetryLine)
	})
}

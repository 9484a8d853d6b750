package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/payroll-engine/internal/auth"
	"github.com/frahmantamala/payroll-engine/internal/compensation"
	compensationDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/compensation"
	"github.com/frahmantamala/payroll-engine/internal/department"
	"github.com/frahmantamala/payroll-engine/internal/disbursement"
	"github.com/frahmantamala/payroll-engine/internal/employee"
	"github.com/frahmantamala/payroll-engine/internal/payroll"
	"github.com/frahmantamala/payroll-engine/internal/taxremittance"
	"github.com/frahmantamala/payroll-engine/internal/transport"
	"github.com/frahmantamala/payroll-engine/internal/transport/middleware"
	"github.com/frahmantamala/payroll-engine/internal/transport/rest"
	"github.com/frahmantamala/payroll-engine/internal/user"
	"github.com/frahmantamala/payroll-engine/internal/wallet"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

const shutdownTimeout = 30 * time.Second

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	if err := setupRoutes(router, deps); err != nil {
		deps.Logger.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	cfg := deps.Config.Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			_ = deps.Close()
			os.Exit(1)
		}
	}

	if err := deps.Close(); err != nil {
		deps.Logger.Error("database close error", "error", err)
	}
	deps.Logger.Info("server stopped")
}

func setupRoutes(router *chi.Mux, deps *Dependencies) error {
	lg := deps.Logger
	base := transport.NewBaseHandler(lg)
	cfg := deps.Config

	opts := rest.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		OpenAPIPath:    cfg.Server.OpenAPIPath,
	}
	doc, err := middleware.LoadOpenAPI(context.Background(), cfg.Server.OpenAPIPath)
	if err != nil {
		lg.Warn("openapi document unavailable, request validation disabled", "path", cfg.Server.OpenAPIPath, "error", err)
	} else {
		validator, err := middleware.OpenAPIValidator(doc, lg)
		if err != nil {
			return fmt.Errorf("failed to build request validator: %w", err)
		}
		opts.RequestValidator = validator
	}

	handlers := rest.Handlers{
		Health:        rest.NewHealthHandler(deps.DB.DB),
		Auth:          auth.NewHandler(base, deps.Auth),
		User:          user.NewHandler(base, deps.Users),
		Employee:      employee.NewHandler(deps.Employees),
		Department:    department.NewHandler(base, deps.Departments),
		Deduction:     compensation.NewHandler(deps.Rules, compensationDatamodel.KindDeduction),
		ExtraEarning:  compensation.NewHandler(deps.Rules, compensationDatamodel.KindExtraEarning),
		Payroll:       payroll.NewHandler(deps.Payrolls),
		Disbursement:  disbursement.NewHandler(base, deps.Disbursement),
		Wallet:        wallet.NewHandler(base, deps.Wallets, cfg.WalletProvider.WebhookSecret),
		TaxRemittance: taxremittance.NewHandler(base, deps.TaxRemittance),
	}

	rest.RegisterAllRoutes(router, opts, handlers, lg)
	return nil
}

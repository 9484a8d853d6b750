package cmd

import (
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/payroll-engine/internal"
	"github.com/frahmantamala/payroll-engine/internal/auth"
	"github.com/frahmantamala/payroll-engine/internal/company"
	companyPostgres "github.com/frahmantamala/payroll-engine/internal/company/postgres"
	"github.com/frahmantamala/payroll-engine/internal/compensation"
	compensationPostgres "github.com/frahmantamala/payroll-engine/internal/compensation/postgres"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
	"github.com/frahmantamala/payroll-engine/internal/core/events"
	"github.com/frahmantamala/payroll-engine/internal/department"
	departmentPostgres "github.com/frahmantamala/payroll-engine/internal/department/postgres"
	"github.com/frahmantamala/payroll-engine/internal/disbursement"
	"github.com/frahmantamala/payroll-engine/internal/employee"
	employeePostgres "github.com/frahmantamala/payroll-engine/internal/employee/postgres"
	"github.com/frahmantamala/payroll-engine/internal/notification"
	"github.com/frahmantamala/payroll-engine/internal/payroll"
	payrollPostgres "github.com/frahmantamala/payroll-engine/internal/payroll/postgres"
	"github.com/frahmantamala/payroll-engine/internal/taxremittance"
	remittancePostgres "github.com/frahmantamala/payroll-engine/internal/taxremittance/postgres"
	"github.com/frahmantamala/payroll-engine/internal/user"
	userPostgres "github.com/frahmantamala/payroll-engine/internal/user/postgres"
	"github.com/frahmantamala/payroll-engine/internal/wallet"
	walletPostgres "github.com/frahmantamala/payroll-engine/internal/wallet/postgres"
	"github.com/frahmantamala/payroll-engine/internal/walletprovider"
	"github.com/frahmantamala/payroll-engine/pkg/logger"
)

// Dependencies is the fully wired service graph shared by every command.
type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Logger *slog.Logger
	Bus    *events.EventBus

	Tokens        *auth.JWTTokenGenerator
	Auth          *auth.Service
	Users         *user.Service
	Companies     *company.Service
	Departments   *department.Service
	Employees     *employee.Service
	Rules         *compensation.Service
	Payrolls      *payroll.Service
	Wallets       *wallet.Service
	Disbursement  *disbursement.Orchestrator
	TaxRemittance *taxremittance.Service
	Notifications *notification.Subscriber
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps, err := wire(cfg, db, gdb, logger.LoggerWrapper())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return deps, nil
}

// wire builds the service graph. Employees and payrolls reference each other,
// so the employee service gets its payroll exciser after both exist.
func wire(cfg *internal.Config, db *sqlx.DB, gdb *gorm.DB, lg *slog.Logger) (*Dependencies, error) {
	tx := database.NewTransactor(gdb)
	bus := events.NewEventBus(lg)
	provider := walletprovider.NewClient(walletprovider.ConfigFrom(cfg.WalletProvider), lg)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	userRepo := userPostgres.NewUserRepository(db)
	cost := cfg.Security.BCryptCost
	users := user.NewService(userRepo, func(password string) (string, error) {
		return auth.HashPassword(password, cost)
	}, lg)
	authService := auth.NewService(userRepo, tokens, lg)

	companies := company.NewService(companyPostgres.NewCompanyRepository(gdb), lg)
	departments := department.NewService(departmentPostgres.NewDepartmentRepository(gdb), lg)
	employees := employee.NewService(employeePostgres.NewEmployeeRepository(gdb), departments, tx, lg).
		WithAccountVerifier(provider)
	rules := compensation.NewService(compensationPostgres.NewRuleRepository(gdb), employees, lg)

	payrollRepo := payrollPostgres.NewPayrollRepository(gdb)
	assembler := payroll.NewAssembler(employees, rules, lg)
	payrolls := payroll.NewService(payrollRepo, payrollPostgres.NewReportRepository(db), assembler, tx, lg).
		WithDocuments(companies, employees, cfg.Payroll.PayslipDir)
	employees.WithPayrollExciser(payrolls)

	wallets := wallet.NewService(walletPostgres.NewWalletRepository(gdb), walletPostgres.NewTransactionQuery(db), provider, tx, lg).
		WithPublisher(bus)
	orchestrator := disbursement.NewOrchestrator(payrollRepo, employees, wallets, tx, bus, lg)

	remittances := taxremittance.NewService(
		remittancePostgres.NewRemittanceRepository(gdb),
		payrolls,
		employees,
		taxremittance.NewClient(cfg.TaxAuthority, lg),
		lg,
	).WithPublisher(bus)

	notifier, err := notification.NewNotifier(notification.NewMailer(cfg.Notification, lg), lg)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification templates: %w", err)
	}
	subscriber := notification.NewSubscriber(notifier, companies, employees, cfg.Payroll.LowBalanceRecipientFallback, lg)
	subscriber.Register(bus)

	return &Dependencies{
		Config:        cfg,
		DB:            db,
		Gorm:          gdb,
		Logger:        lg,
		Bus:           bus,
		Tokens:        tokens,
		Auth:          authService,
		Users:         users,
		Companies:     companies,
		Departments:   departments,
		Employees:     employees,
		Rules:         rules,
		Payrolls:      payrolls,
		Wallets:       wallets,
		Disbursement:  orchestrator,
		TaxRemittance: remittances,
		Notifications: subscriber,
	}, nil
}

// Close waits for in-flight event handlers before closing the pool.
func (d *Dependencies) Close() error {
	d.Bus.Wait()
	return d.DB.Close()
}

// initDB opens the pgx pool through sqlx and verifies it.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both see the same connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

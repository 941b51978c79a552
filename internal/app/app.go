package app

import (
	"context"
	"fmt"

	"github.com/mara/billdesk/internal/config"
	"github.com/mara/billdesk/internal/crypto"
	"github.com/mara/billdesk/internal/db"
	"github.com/mara/billdesk/internal/domain"
	"github.com/mara/billdesk/internal/repository"
	"github.com/mara/billdesk/internal/service"
)

// App is the dependency injection container for all application components
type App struct {
	Config *config.Config
	DB     *db.DB

	// Repositories
	UserRepo     repository.UserRepository
	BusinessRepo repository.BusinessRepository
	ClientRepo   repository.ClientRepository
	InvoiceRepo  repository.InvoiceRepository
	AccountRepo  repository.PaymentAccountRepository

	// Services
	InvoiceService   service.InvoiceService
	DashboardService service.DashboardService
}

// New creates a new App instance, initializing all dependencies
// It handles:
// 1. Loading config
// 2. Getting encryption key from keyring
// 3. Opening database
// 4. Running migrations
// 5. Creating repositories
// 6. Creating services
func New(ctx context.Context) (*App, error) {
	// Load config from default path
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates an App with a provided config (useful for testing)
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	// Ensure all necessary directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	// Get keyring for secure password storage
	keyring := crypto.NewKeyring()

	// Try to get existing encryption key
	password, err := keyring.GetKey()
	if err != nil {
		// No key exists, prompt user to set one
		fmt.Println("Setting up database encryption for the first time...")
		password, err = crypto.PromptNewPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to set password: %w", err)
		}

		// Store the key in keyring
		if err := keyring.SetKey(password); err != nil {
			return nil, fmt.Errorf("failed to store encryption key: %w", err)
		}
	}

	// Open the database with encryption
	database, err := db.Open(cfg.Database.Path, password)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations to ensure schema is up to date
	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create repositories
	userRepo := repository.NewUserRepo(database)
	businessRepo := repository.NewBusinessRepo(database)
	clientRepo := repository.NewClientRepo(database)
	invoiceRepo := repository.NewInvoiceRepo(database)
	accountRepo := repository.NewPaymentAccountRepo(database)

	// Create services with their dependencies
	invoiceService := service.NewInvoiceService(
		userRepo,
		clientRepo,
		invoiceRepo,
		accountRepo,
		cfg.Invoice.NumberPrefix,
		cfg.Invoice.DefaultDueDays,
	)
	dashboardService := service.NewDashboardService(userRepo, clientRepo, invoiceRepo)

	return &App{
		Config:           cfg,
		DB:               database,
		UserRepo:         userRepo,
		BusinessRepo:     businessRepo,
		ClientRepo:       clientRepo,
		InvoiceRepo:      invoiceRepo,
		AccountRepo:      accountRepo,
		InvoiceService:   invoiceService,
		DashboardService: dashboardService,
	}, nil
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// CurrentUser resolves the active account configured for CLI and TUI sessions.
// Callers get ErrUserNotFound until `billdesk business init` has run.
func (a *App) CurrentUser(ctx context.Context) (*domain.User, error) {
	if a.Config.User.Email == "" {
		return nil, domain.ErrUserNotFound
	}
	user, err := a.UserRepo.GetByEmail(ctx, a.Config.User.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up active user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// SaveConfig saves the current configuration to disk
func (a *App) SaveConfig() error {
	return a.Config.Save(config.DefaultConfigPath())
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stocklane/inventory-management/internal"
	"github.com/stocklane/inventory-management/internal/auth"
	authPostgres "github.com/stocklane/inventory-management/internal/auth/postgres"
	"github.com/stocklane/inventory-management/internal/product"
	productPostgres "github.com/stocklane/inventory-management/internal/product/postgres"
	"github.com/stocklane/inventory-management/internal/role"
	rolePostgres "github.com/stocklane/inventory-management/internal/role/postgres"
	"github.com/stocklane/inventory-management/internal/transport/rest"
	"github.com/stocklane/inventory-management/internal/user"
	userPostgres "github.com/stocklane/inventory-management/internal/user/postgres"
	"github.com/stocklane/inventory-management/pkg/logger"
	"github.com/stocklane/inventory-management/pkg/mailer"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

// setupRoutes builds the repository/service/handler graph and registers the
// HTTP routes on the router.
func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	log := deps.Logger

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: deps.DB.DB}), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to open gorm connection: %w", err)
	}

	userRepo := userPostgres.NewUserRepository(gormDB)
	authRepo := authPostgres.NewRepository(gormDB)
	roleRepo := rolePostgres.NewRoleRepository(gormDB)
	productRepo := productPostgres.NewProductRepository(gormDB)

	userService := user.NewService(userRepo, cfg.Security.BCryptCost, log)
	roleService := role.NewService(roleRepo, log)
	productService := product.NewService(productRepo, log)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.SessionSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	resetMailer := mailer.NewLogMailer(log, cfg.Mail.DefaultSender, cfg.Mail.SuppressSend)
	authService := auth.NewService(
		authRepo,
		userService,
		tokens,
		resetMailer,
		cfg.Server.BaseURL,
		cfg.Security.ResetTokenTTL(),
		cfg.Security.BCryptCost,
		log,
	)

	providers := auth.NewOAuthProviders(cfg.OAuth)

	authHandler := auth.NewHandler(authService, providers)
	userHandler := user.NewHandler(userService)
	roleHandler := role.NewHandler(roleService)
	productHandler := product.NewHandler(productService)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, authHandler, userHandler, roleHandler, productHandler, log)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: log,
		DB:     db,
		Router: chi.NewRouter(),
	}, nil
}

// initDB initializes the database connection
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

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

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

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/formbridge/mollie-gateway/internal"
	"github.com/formbridge/mollie-gateway/internal/core/events"
	"github.com/formbridge/mollie-gateway/internal/host"
	hostpostgres "github.com/formbridge/mollie-gateway/internal/host/postgres"
	"github.com/formbridge/mollie-gateway/internal/mollie"
	"github.com/formbridge/mollie-gateway/internal/payment"
	"github.com/formbridge/mollie-gateway/internal/transport/rest"
	"github.com/formbridge/mollie-gateway/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server handling form submissions and Mollie callbacks`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config            *internal.Config
	DB                *sqlx.DB
	GormDB            *gorm.DB
	Router            *chi.Mux
	MollieClient      *mollie.Client
	PaymentHandler    *payment.Handler
	WebhookHandler    *payment.WebhookHandler
	ConnectionHandler *mollie.ConnectionHandler
	Logger            *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.PaymentHandler, deps.WebhookHandler, deps.ConnectionHandler, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

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
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	tokenStore := hostpostgres.NewTokenRepository(gormDB)
	mollieClient := mollie.NewClient(mollie.Config{
		APIBaseURL:   config.Mollie.APIBaseURL,
		OAuthBaseURL: config.Mollie.OAuthBaseURL,
		ClientID:     config.Mollie.ClientID,
		ClientSecret: config.Mollie.ClientSecret,
		HTTPTimeout:  config.Mollie.HTTPTimeout,
	}, tokenStore, lg)

	methodsCache := newMethodsCache(config, lg)

	entryRepo := hostpostgres.NewEntryRepository(gormDB)
	feedRepo := hostpostgres.NewFeedRepository(gormDB)
	formRepo := hostpostgres.NewFormRepository(gormDB)
	actionLog := hostpostgres.NewActionLogRepository(gormDB)

	bus := events.NewEventBus(lg)
	feedRunner := host.NewFeedRunner(entryRepo, actionLog, bus, lg)

	methods := payment.NewMethodDirectory(mollieClient, methodsCache, config.Mollie.ProfileID, config.Mollie.IsTestMode(), lg)
	urls := payment.NewURLBuilder(config.Server.BaseURL, config.Mollie.SigningSecret)

	service := payment.NewService(
		mollieClient,
		entryRepo,
		feedRepo,
		formRepo,
		feedRunner,
		actionLog,
		methods,
		urls,
		bus,
		payment.Config{
			ProfileID: config.Mollie.ProfileID,
			Testmode:  config.Mollie.IsTestMode(),
			Locale:    config.Mollie.Locale,
		},
		lg,
	)

	return &Dependencies{
		Config:            config,
		DB:                db,
		GormDB:            gormDB,
		Router:            chi.NewRouter(),
		MollieClient:      mollieClient,
		PaymentHandler:    payment.NewHandler(service, lg),
		WebhookHandler:    payment.NewWebhookHandler(service, lg),
		ConnectionHandler: mollie.NewConnectionHandler(mollieClient, config.Server.BaseURL, lg),
		Logger:            lg,
	}, nil
}

// newMethodsCache picks the Redis-backed cache when configured, else
// the in-process one. Both share the 1h default TTL.
func newMethodsCache(config *internal.Config, lg *slog.Logger) mollie.MethodsCache {
	ttl := config.Mollie.MethodsCacheTTL
	if !config.Redis.Enabled {
		return mollie.NewMemoryMethodsCache(ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	lg.Info("methods cache backed by redis", "addr", config.Redis.Addr)
	return mollie.NewRedisMethodsCache(client, ttl)
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

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

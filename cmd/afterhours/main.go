package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/wireheat/afterhours/internal/api"
	"github.com/wireheat/afterhours/internal/flow"
	"github.com/wireheat/afterhours/internal/notify"
	"github.com/wireheat/afterhours/internal/session"
	"github.com/wireheat/afterhours/internal/store"
	"github.com/wireheat/afterhours/internal/workflow"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for after-hours agent state data
	DefaultStateDir = "/var/lib/afterhours"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "afterhours.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	repo, err := buildRepository(flags)
	if err != nil {
		slog.Error("Failed to initialize ticket repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	hub := notify.NewHub()
	notifier := buildNotifier(hub)

	engine, err := buildEngine(repo, notifier)
	if err != nil {
		// Workflow graph errors are programming errors; the process must
		// not take calls with a broken graph.
		slog.Error("Failed to build dialogue engine", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(engine, repo, hub, buildAPIOptions(flags)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping after-hours agent", "api_addr", *flags.apiAddr, "dsn_set", *flags.dbDSN != "")
	if err := server.Run(ctx); err != nil {
		slog.Error("After-hours agent failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("After-hours agent exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	APIAddr     string
	TokenSecret string
	CompanyName string
	PhoneNumber string
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDSN       *string
	apiAddr     *string
	tokenSecret *string
	companyName *string
	phoneNumber *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("AFTERHOURS_STATE_DIR"),
		APIAddr:     os.Getenv("API_ADDR"),
		TokenSecret: os.Getenv("TOKEN_SECRET"),
		CompanyName: os.Getenv("COMPANY_NAME"),
		PhoneNumber: os.Getenv("SERVICE_PHONE_NUMBER"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No AFTERHOURS_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"AFTERHOURS_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"TOKEN_SECRET_SET", config.TokenSecret != "",
		"COMPANY_NAME", config.CompanyName,
		"SERVICE_PHONE_NUMBER_SET", config.PhoneNumber != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for agent data (overrides $AFTERHOURS_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN for the ticket repository (overrides $DATABASE_URL)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		tokenSecret: flag.String("token-secret", config.TokenSecret, "signing secret for dashboard tokens (overrides $TOKEN_SECRET)"),
		companyName: flag.String("company-name", config.CompanyName, "company name shown on the dashboard (overrides $COMPANY_NAME)"),
		phoneNumber: flag.String("phone-number", config.PhoneNumber, "inbound service line shown on the dashboard (overrides $SERVICE_PHONE_NUMBER)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"tokenSecretSet", *flags.tokenSecret != "")

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		return nil
	}
	stateDir := filepath.Dir(*flags.dbDSN)
	slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
		return err
	}
	return nil
}

// buildRepository selects the ticket repository backend from the DSN
func buildRepository(flags Flags) (store.Repository, error) {
	if *flags.dbDSN == "" {
		slog.Debug("No database DSN provided, using in-memory repository")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL repository")
		return store.NewPostgresStore(store.WithPostgresDSN(*flags.dbDSN))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite repository", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithSQLiteDSN(*flags.dbDSN))
}

// buildNotifier assembles the event fanout: the websocket hub always, SMS
// dispatch paging only when Twilio credentials are configured.
func buildNotifier(hub *notify.Hub) notify.Service {
	sms, err := notify.NewSMSNotifier()
	if err != nil {
		slog.Info("SMS dispatch paging disabled", "reason", err)
		return hub
	}
	slog.Info("SMS dispatch paging enabled")
	return notify.NewFanout(hub, sms)
}

// buildEngine assembles the action registry, validates the workflow graph,
// and wires the dialogue engine
func buildEngine(repo store.Repository, notifier notify.Service) (*flow.Engine, error) {
	actions := append(flow.CollectionActions(), flow.NewConfirmAction(repo, notifier))
	registry := flow.NewRegistry(actions...)
	def, err := workflow.New(workflow.AfterHoursContexts(), registry.Names())
	if err != nil {
		return nil, err
	}
	return flow.NewEngine(def, registry, session.NewInMemoryStore()), nil
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.tokenSecret != "" {
		apiOpts = append(apiOpts, api.WithTokenSecret(*flags.tokenSecret))
	}
	if *flags.companyName != "" {
		apiOpts = append(apiOpts, api.WithCompanyName(*flags.companyName))
	}
	if *flags.phoneNumber != "" {
		apiOpts = append(apiOpts, api.WithPhoneNumber(*flags.phoneNumber))
	}
	return apiOpts
}

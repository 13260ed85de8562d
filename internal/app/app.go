// Package app wires configuration, storage, clients, and services into one
// application core.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/depotd/depotd/internal/clients/quotes"
	"github.com/depotd/depotd/internal/common"
	"github.com/depotd/depotd/internal/interfaces"
	"github.com/depotd/depotd/internal/services/depot"
	"github.com/depotd/depotd/internal/services/importer"
	"github.com/depotd/depotd/internal/services/isin"
	"github.com/depotd/depotd/internal/services/stats"
	"github.com/depotd/depotd/internal/services/trading"
	"github.com/depotd/depotd/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config *common.Config
	Logger *common.Logger
	Store  interfaces.Store

	QuoteClient    interfaces.QuoteClient
	TradingService interfaces.TradingService
	ImportService  interfaces.ImportService
	IsinService    interfaces.IsinService
	StatsService   interfaces.StatsService
	DepotService   interfaces.DepotService

	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services. configPath may be
// empty, in which case DEPOTD_CONFIG, the binary directory, and
// config/depotd.toml are tried in that order.
func NewApp(configPath string) (*App, error) {
	startupTime := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	if configPath == "" {
		configPath = os.Getenv("DEPOTD_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "depotd.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/depotd.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := storage.Open(config.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	quoteClient := quotes.NewClient(
		quotes.WithBaseURL(config.Clients.Quotes.BaseURL),
		quotes.WithRateLimit(config.Clients.Quotes.RateLimit),
		quotes.WithTimeout(config.Clients.Quotes.GetTimeout()),
		quotes.WithLogger(logger),
	)

	isinService := isin.NewService(store, logger)

	app := &App{
		Config:         config,
		Logger:         logger,
		Store:          store,
		QuoteClient:    quoteClient,
		TradingService: trading.NewService(store, quoteClient, logger),
		ImportService:  importer.NewService(store, quoteClient, isinService, logger),
		IsinService:    isinService,
		StatsService:   stats.NewService(store, logger),
		DepotService:   depot.NewService(store, logger),
		StartupTime:    startupTime,
	}

	logger.Info().
		Str("version", common.GetVersion()).
		Str("environment", config.Environment).
		Msg("Application initialized")
	return app, nil
}

// Close releases held resources.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

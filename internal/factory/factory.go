package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/cardtally/internal/dependencies/clock"
	"github.com/mcoot/cardtally/internal/dependencies/idgen"
	"github.com/mcoot/cardtally/internal/services/dealer"
	"github.com/mcoot/cardtally/internal/services/ledger"
	"github.com/mcoot/cardtally/internal/services/registry"
	"github.com/mcoot/cardtally/internal/services/report"
	"github.com/mcoot/cardtally/internal/storage"
	"github.com/mcoot/cardtally/internal/storage/memory"
	redisstorage "github.com/mcoot/cardtally/internal/storage/redis"
	"github.com/mcoot/cardtally/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeSQLite = "sqlite"
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App is one interactive session: the storage engine, opened once, and the
// services that share it
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	IDs   idgen.Generator

	// Services
	Registry *registry.Service
	Ledger   *ledger.Service
	Report   *report.Service
	Dealer   *dealer.Rotation

	Logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("sqlite", "memory" or "redis")
	// If empty, defaults to "sqlite"
	StorageType string
	// DBPath is the SQLite database file (required if StorageType is "sqlite")
	DBPath string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Location is used for calendar-day filters and display (optional)
	// If nil, time.Local is used
	Location *time.Location
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeSQLite
	}

	switch storageType {
	case StorageTypeSQLite:
		if cfg.DBPath == "" {
			return nil, errors.New("DBPath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		store = sqliteStore
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'sqlite', 'memory' or 'redis'")
	}

	logger.Debug("storage opened", slog.String("type", storageType))

	return newWithDependencies(store, clock.New(), idgen.New(), cfg.Location, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, ids idgen.Generator, loc *time.Location, logger *slog.Logger) *App {
	registryService := registry.New(store, clk, logger)
	ledgerService := ledger.New(store, registryService, clk, ids, logger)
	reportService := report.New(ledgerService, loc)

	return &App{
		Storage:  store,
		Clock:    clk,
		IDs:      ids,
		Registry: registryService,
		Ledger:   ledgerService,
		Report:   reportService,
		Dealer:   dealer.NewRotation(),
		Logger:   logger,
	}
}

// Close releases the storage engine
func (a *App) Close() error {
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/cardtally/internal/factory"
	redisstorage "github.com/mcoot/cardtally/internal/storage/redis"
)

// Config holds CLI configuration
type Config struct {
	Storage  string `env:"CARDTALLY_STORAGE"   envDefault:"sqlite"`
	DBPath   string `env:"CARDTALLY_DB_PATH"`
	RedisURL string `env:"CARDTALLY_REDIS_URL" envDefault:"redis://localhost:6379"`
	// TZ is an IANA zone name used for date filters and display
	TZ      string `env:"CARDTALLY_TZ"`
	Output  string `env:"CARDTALLY_OUTPUT"    envDefault:"text"`
	Verbose bool   `env:"CARDTALLY_VERBOSE"`
}

// LoadConfig reads the configuration from the environment, filling defaults
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath()
	}
	return cfg, nil
}

// Validate checks the values that flags and environment can get wrong
func (c *Config) Validate() error {
	switch c.Output {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output format %q: must be text or json", c.Output)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TZ, defaulting to the system zone
func (c *Config) Location() (*time.Location, error) {
	if c.TZ == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.TZ, err)
	}
	return loc, nil
}

// Logger builds the JSON logger, writing to w
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// FactoryConfig maps the CLI configuration onto the application factory
func (c *Config) FactoryConfig(logger *slog.Logger) (factory.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return factory.Config{}, err
	}

	fc := factory.Config{
		Logger:      logger,
		StorageType: c.Storage,
		DBPath:      c.DBPath,
		Location:    loc,
	}

	if c.Storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		fc.RedisConfig = &redisCfg
	}

	if c.Storage == factory.StorageTypeSQLite || c.Storage == "" {
		if err := os.MkdirAll(filepath.Dir(c.DBPath), 0o700); err != nil {
			return factory.Config{}, fmt.Errorf("create data dir: %w", err)
		}
	}

	return fc, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cardtally", "cardtally.db")
	}
	return filepath.Join(home, ".cardtally", "cardtally.db")
}

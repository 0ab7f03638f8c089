package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/comicverse/txgate/internal/gate"
	"github.com/comicverse/txgate/internal/ledger"
	"github.com/comicverse/txgate/internal/ledger/retry"
	"github.com/comicverse/txgate/internal/models"

	"github.com/caarlos0/env/v11"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	// Ledger JSON-RPC endpoint
	RPCURL string `env:"RPC_URL"`

	// Storage
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`

	// HTTP server
	APIPort         int           `env:"API_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Contracts Contracts `envPrefix:"CONTRACT_"`

	// Default receipt polling budget
	PollAttempts int           `env:"GATE_POLL_ATTEMPTS" envDefault:"10"`
	PollInterval time.Duration `env:"GATE_POLL_INTERVAL" envDefault:"3s"`

	// Per-kind overrides, unset fields fall back to the default budget
	CharacterPoll KindPoll `envPrefix:"GATE_CHARACTER_"`
	PropPoll      KindPoll `envPrefix:"GATE_PROP_"`
	ScenePoll     KindPoll `envPrefix:"GATE_SCENE_"`
	ComicPoll     KindPoll `envPrefix:"GATE_COMIC_"`
	StripPoll     KindPoll `envPrefix:"GATE_STRIP_"`
	PromptPoll    KindPoll `envPrefix:"GATE_PROMPT_"`

	// Retry policy of live contract reads
	Retry retry.Config `envPrefix:"RETRY_"`
}

// Contracts holds the deployed contract addresses
type Contracts struct {
	Characters string `env:"CHARACTERS"`
	Props      string `env:"PROPS"`
	Scenes     string `env:"SCENES"`
	Comics     string `env:"COMICS"`
	Prompts    string `env:"PROMPTS"`

	// Admin, when set, is asked for the comics address if Comics is empty
	Admin string `env:"ADMIN"`
}

// KindPoll is a per-kind polling budget override
type KindPoll struct {
	Attempts int           `env:"POLL_ATTEMPTS"`
	Interval time.Duration `env:"POLL_INTERVAL"`
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads the configuration from the given variables only
func Parse(environment map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT %d is out of range", c.APIPort)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	for name, addr := range map[string]string{
		"CONTRACT_CHARACTERS": c.Contracts.Characters,
		"CONTRACT_PROPS":      c.Contracts.Props,
		"CONTRACT_SCENES":     c.Contracts.Scenes,
		"CONTRACT_COMICS":     c.Contracts.Comics,
		"CONTRACT_PROMPTS":    c.Contracts.Prompts,
		"CONTRACT_ADMIN":      c.Contracts.Admin,
	} {
		if addr != "" && !models.IsAddress(addr) {
			return fmt.Errorf("%s %q is not a valid address", name, addr)
		}
	}

	if c.PollAttempts <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("GATE_POLL_ATTEMPTS and GATE_POLL_INTERVAL must be positive")
	}
	for kind, p := range c.kindPolls() {
		if p.Attempts < 0 || p.Interval < 0 {
			return fmt.Errorf("polling budget of %s must not be negative", kind)
		}
	}

	if err := c.Retry.Validate(); err != nil {
		return err
	}
	return nil
}

// Addresses returns the contract addresses known at startup
func (c *Config) Addresses() ledger.Addresses {
	return ledger.Addresses{
		Characters: c.Contracts.Characters,
		Props:      c.Contracts.Props,
		Scenes:     c.Contracts.Scenes,
		Comics:     c.Contracts.Comics,
		Prompts:    c.Contracts.Prompts,
	}
}

// DefaultBudget is the polling budget of kinds without an override
func (c *Config) DefaultBudget() gate.Budget {
	return gate.Budget{Attempts: c.PollAttempts, Interval: c.PollInterval}
}

// Budgets returns the effective polling budget of every kind
func (c *Config) Budgets() map[models.MutationKind]gate.Budget {
	budgets := make(map[models.MutationKind]gate.Budget, len(models.AllKinds))
	for kind, p := range c.kindPolls() {
		b := c.DefaultBudget()
		if p.Attempts > 0 {
			b.Attempts = p.Attempts
		}
		if p.Interval > 0 {
			b.Interval = p.Interval
		}
		budgets[kind] = b
	}
	return budgets
}

// BudgetFor returns the effective polling budget of kind
func (c *Config) BudgetFor(kind models.MutationKind) gate.Budget {
	if b, ok := c.Budgets()[kind]; ok {
		return b
	}
	return c.DefaultBudget()
}

func (c *Config) kindPolls() map[models.MutationKind]KindPoll {
	return map[models.MutationKind]KindPoll{
		models.CharacterMint:        c.CharacterPoll,
		models.PropMint:             c.PropPoll,
		models.SceneMint:            c.ScenePoll,
		models.ComicCreate:          c.ComicPoll,
		models.StripCandidateCreate: c.StripPoll,
		models.PromptPurchase:       c.PromptPoll,
	}
}

// RetryStrategy builds the contract read retry strategy
func (c *Config) RetryStrategy() retry.Strategy {
	return retry.NewStrategy(c.Retry)
}

// SlogLevel returns the configured log level
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", s)
}

package retry

import (
	"fmt"
	"time"
)

// Config holds the retry policy applied to live contract reads.
// Parsed from RETRY_* variables by the config package.
type Config struct {
	Enabled      bool          `env:"ENABLED" envDefault:"true"`       // Enable/disable retry mechanism
	MaxRetries   int           `env:"MAX_RETRIES" envDefault:"3"`      // Retries after the first attempt
	InitialDelay time.Duration `env:"INITIAL_DELAY" envDefault:"500ms"` // Delay before first retry
	MaxDelay     time.Duration `env:"MAX_DELAY" envDefault:"5s"`       // Cap on the delay between retries
}

// Validate checks the policy is usable
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("RETRY_MAX_RETRIES must be >= 0")
	}
	if c.InitialDelay <= 0 {
		return fmt.Errorf("RETRY_INITIAL_DELAY must be positive")
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("RETRY_MAX_DELAY must be >= RETRY_INITIAL_DELAY")
	}
	return nil
}

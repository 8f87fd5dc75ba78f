package types

import (
	"fmt"
	"time"
)

const (
	DefaultPollInterval        = time.Second
	DefaultEngineTimeout       = 30 * time.Second
	DefaultFeeWarningThreshold = Sats(1000)
)

// EngineConfig describes how to reach the wallet engine over JSON-RPC.
type EngineConfig struct {
	RPCURL    string  `json:"rpc_url" toml:"rpc_url" yaml:"rpc_url" validate:"omitempty,url"`
	AuthToken string  `json:"auth_token,omitempty" toml:"auth_token" yaml:"auth_token"`
	RateLimit float64 `json:"rate_limit,omitempty" toml:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `json:"burst,omitempty" toml:"burst" yaml:"burst" validate:"gte=0"`
}

// Config contains the settings for a receive controller. Durations are
// strings in time.ParseDuration form so every file format reads the same.
type Config struct {
	Network                  string       `json:"network" toml:"network" yaml:"network" validate:"required,oneof=bitcoin testnet signet regtest"`
	PollInterval             string       `json:"poll_interval,omitempty" toml:"poll_interval" yaml:"poll_interval"`
	EngineTimeout            string       `json:"engine_timeout,omitempty" toml:"engine_timeout" yaml:"engine_timeout"`
	FeeWarningThreshold      *Sats        `json:"fee_warning_threshold,omitempty" toml:"fee_warning_threshold" yaml:"fee_warning_threshold"`
	ResolveAllTags           bool         `json:"resolve_all_tags,omitempty" toml:"resolve_all_tags" yaml:"resolve_all_tags"`
	SkipMaterialVerification bool         `json:"skip_material_verification,omitempty" toml:"skip_material_verification" yaml:"skip_material_verification"`
	LogLevel                 string       `json:"log_level,omitempty" toml:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFile                  string       `json:"log_file,omitempty" toml:"log_file" yaml:"log_file"`
	EnableMetrics            bool         `json:"enable_metrics,omitempty" toml:"enable_metrics" yaml:"enable_metrics"`
	ExplorerBaseURL          string       `json:"explorer_base_url,omitempty" toml:"explorer_base_url" yaml:"explorer_base_url" validate:"omitempty,url"`
	Engine                   EngineConfig `json:"engine" toml:"engine" yaml:"engine"`

	pollInterval  time.Duration
	engineTimeout time.Duration
}

// ApplyDefaults fills unset fields and parses the duration strings.
func (c *Config) ApplyDefaults() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.FeeWarningThreshold == nil {
		threshold := DefaultFeeWarningThreshold
		c.FeeWarningThreshold = &threshold
	}

	var err error
	if c.pollInterval, err = parseDurationDefault(c.PollInterval, DefaultPollInterval); err != nil {
		return &ReceiveError{Code: ErrConfigError, Message: "invalid poll_interval", Err: err}
	}
	if c.engineTimeout, err = parseDurationDefault(c.EngineTimeout, DefaultEngineTimeout); err != nil {
		return &ReceiveError{Code: ErrConfigError, Message: "invalid engine_timeout", Err: err}
	}
	return nil
}

// PollEvery returns the parsed poll interval.
func (c *Config) PollEvery() time.Duration {
	if c.pollInterval <= 0 {
		return DefaultPollInterval
	}
	return c.pollInterval
}

// Timeout returns the parsed per-call engine timeout.
func (c *Config) Timeout() time.Duration {
	if c.engineTimeout <= 0 {
		return DefaultEngineTimeout
	}
	return c.engineTimeout
}

// NetworkID returns the configured network. Validation guarantees it parses.
func (c *Config) NetworkID() Network {
	n, err := ParseNetwork(c.Network)
	if err != nil {
		return NetworkBitcoin
	}
	return n
}

func parseDurationDefault(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", raw)
	}
	return d, nil
}

// Package config loads per-process configuration from the environment,
// following the teacher stack's caarlos0/env + environment-profile
// pattern: struct tags declare defaults, then a profile pass adjusts
// timing for development/testing/production, then validation runs.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"

	"github.com/fathomworks/multicar-elevator/internal/errs"
)

// Environment names recognised by the profile pass.
const (
	Development = "development"
	Testing     = "testing"
	Production  = "production"
)

// DispatcherConfig configures the controller process.
type DispatcherConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`

	ListenAddr string        `env:"DISPATCHER_LISTEN_ADDR" envDefault:"127.0.0.1:3000"`
	DebugAddr  string        `env:"DISPATCHER_DEBUG_ADDR" envDefault:"127.0.0.1:9100"`
	ReadTimeout time.Duration `env:"DISPATCHER_READ_TIMEOUT" envDefault:"5s"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	HealthEnabled  bool `env:"HEALTH_ENABLED" envDefault:"true"`

	DashboardStatusInterval time.Duration `env:"DASHBOARD_STATUS_INTERVAL" envDefault:"1s"`
	DashboardPingInterval   time.Duration `env:"DASHBOARD_PING_INTERVAL" envDefault:"20s"`
	DashboardWriteTimeout   time.Duration `env:"DASHBOARD_WRITE_TIMEOUT" envDefault:"5s"`
	DashboardReadTimeout    time.Duration `env:"DASHBOARD_READ_TIMEOUT" envDefault:"60s"`
}

// CarConfig configures a car process. The car's name/lowest/highest/
// delay_ms come from argv per §6; everything here is ambient tuning that
// argv does not cover.
type CarConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`

	DispatcherAddr     string        `env:"DISPATCHER_ADDR" envDefault:"127.0.0.1:3000"`
	IdleTimeout        time.Duration `env:"CAR_IDLE_TIMEOUT" envDefault:"50ms"`
	NetworkPollTimeout time.Duration `env:"CAR_NETWORK_POLL_TIMEOUT" envDefault:"100ms"`
	DialTimeout        time.Duration `env:"CAR_DIAL_TIMEOUT" envDefault:"2s"`
	SocketDir          string        `env:"CAR_SOCKET_DIR" envDefault:"/tmp"`
	DebugAddr          string        `env:"CAR_DEBUG_ADDR" envDefault:""`

	CircuitBreakerMaxFailures  int           `env:"CAR_CIRCUIT_BREAKER_MAX_FAILURES" envDefault:"5"`
	CircuitBreakerResetTimeout time.Duration `env:"CAR_CIRCUIT_BREAKER_RESET_TIMEOUT" envDefault:"30s"`
}

// SafetyConfig configures a safety monitor process.
type SafetyConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`

	SocketDir    string        `env:"CAR_SOCKET_DIR" envDefault:"/tmp"`
	CycleTimeout time.Duration `env:"SAFETY_CYCLE_TIMEOUT" envDefault:"1s"`
}

// InitDispatcherConfig loads DispatcherConfig and applies its profile; it
// runs no further validation.
func InitDispatcherConfig() (*DispatcherConfig, error) {
	cfg := DispatcherConfig{}
	if err := env.Parse(&cfg); err != nil {
		return nil, errs.NewInternal("failed to parse dispatcher environment variables", err)
	}
	applyDispatcherProfile(&cfg)
	return &cfg, nil
}

// InitCarConfig loads and validates CarConfig.
func InitCarConfig() (*CarConfig, error) {
	cfg := CarConfig{}
	if err := env.Parse(&cfg); err != nil {
		return nil, errs.NewInternal("failed to parse car environment variables", err)
	}
	applyCarProfile(&cfg)
	if err := validateCarConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InitSafetyConfig loads SafetyConfig and applies its profile; it runs no
// further validation.
func InitSafetyConfig() (*SafetyConfig, error) {
	cfg := SafetyConfig{}
	if err := env.Parse(&cfg); err != nil {
		return nil, errs.NewInternal("failed to parse safety environment variables", err)
	}
	applySafetyProfile(&cfg)
	return &cfg, nil
}

func applyDispatcherProfile(cfg *DispatcherConfig) {
	switch cfg.Environment {
	case Testing:
		cfg.LogLevel = "WARN"
		cfg.ReadTimeout = 500 * time.Millisecond
		cfg.MetricsEnabled = false
		cfg.DashboardStatusInterval = 50 * time.Millisecond
		cfg.DashboardPingInterval = 200 * time.Millisecond
	case Production:
		cfg.LogLevel = "WARN"
		cfg.ReadTimeout = 10 * time.Second
	}
}

func applyCarProfile(cfg *CarConfig) {
	switch cfg.Environment {
	case Testing:
		cfg.LogLevel = "WARN"
		cfg.IdleTimeout = 5 * time.Millisecond
		cfg.NetworkPollTimeout = 10 * time.Millisecond
		cfg.DialTimeout = 200 * time.Millisecond
		cfg.CircuitBreakerResetTimeout = 1 * time.Second
	case Production:
		cfg.LogLevel = "WARN"
	}
}

func applySafetyProfile(cfg *SafetyConfig) {
	switch cfg.Environment {
	case Testing:
		cfg.LogLevel = "WARN"
		cfg.CycleTimeout = 50 * time.Millisecond
	case Production:
		cfg.LogLevel = "WARN"
	}
}

func validateCarConfig(cfg *CarConfig) error {
	if cfg.DispatcherAddr == "" {
		return errs.NewValidation("DISPATCHER_ADDR must not be empty", nil)
	}
	if cfg.IdleTimeout <= 0 || cfg.NetworkPollTimeout <= 0 {
		return errs.NewValidation("car timeouts must be positive", nil).
			WithContext("idle_timeout", cfg.IdleTimeout.String()).
			WithContext("network_poll_timeout", cfg.NetworkPollTimeout.String())
	}
	return nil
}

// SocketPath returns the Unix domain socket path a car named name listens
// on for IPC from button clients and its safety monitor.
func SocketPath(dir, name string) string {
	return fmt.Sprintf("%s/elevator-car-%s.sock", dir, name)
}

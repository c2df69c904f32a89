// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Browser BrowserConfig `mapstructure:"browser"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// BrowserConfig configures the Chrome automation driver.
type BrowserConfig struct {
	// Enabled toggles real browser automation; when false a no-op driver is
	// wired and runs fail at the first navigation.
	Enabled       bool   `mapstructure:"enabled"`
	Visible       bool   `mapstructure:"visible"`
	NavTimeoutSec int    `mapstructure:"nav_timeout_seconds"`
	UserAgent     string `mapstructure:"user_agent"`
	TypePacingMs  int    `mapstructure:"type_pacing_ms"`
}

// RunnerConfig governs the pacing of the demo walk.
type RunnerConfig struct {
	// StepDelayMs is the inner observation-loop pause between ticks.
	StepDelayMs int `mapstructure:"step_delay_ms"`
	// LogDelayUnitMs scales the per-line delays attached to log emissions.
	LogDelayUnitMs int `mapstructure:"log_delay_unit_ms"`
	ObserveTicks   int `mapstructure:"observe_ticks"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SITEWALKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("browser.enabled", true)
	v.SetDefault("browser.visible", true)
	v.SetDefault("browser.nav_timeout_seconds", 25)
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.type_pacing_ms", 100)
	v.SetDefault("runner.step_delay_ms", 900)
	v.SetDefault("runner.log_delay_unit_ms", 100)
	v.SetDefault("runner.observe_ticks", 3)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Browser.Enabled && c.Browser.NavTimeoutSec <= 0 {
		return fmt.Errorf("browser.nav_timeout_seconds must be > 0 when browser is enabled")
	}
	if c.Runner.ObserveTicks <= 0 {
		return fmt.Errorf("runner.observe_ticks must be > 0")
	}
	if c.Runner.StepDelayMs < 0 || c.Runner.LogDelayUnitMs < 0 {
		return fmt.Errorf("runner delays must be >= 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// StepDelay converts the configured inner-loop pause to a duration.
func (c Config) StepDelay() time.Duration {
	return time.Duration(c.Runner.StepDelayMs) * time.Millisecond
}

// LogDelayUnit converts the log pacing unit to a duration.
func (c Config) LogDelayUnit() time.Duration {
	return time.Duration(c.Runner.LogDelayUnitMs) * time.Millisecond
}

// NavTimeout converts the navigation timeout to a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Browser.NavTimeoutSec) * time.Second
}

// TypePacing converts the keystroke pacing to a duration.
func (c Config) TypePacing() time.Duration {
	return time.Duration(c.Browser.TypePacingMs) * time.Millisecond
}

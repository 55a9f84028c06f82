package config

import (
	"fmt"
	"strings"
	"time"

	"cart-tracker/internal/types"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Detection DetectionConfig `mapstructure:"detection"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Observer  ObserverConfig  `mapstructure:"observer"`
}

// DetectionConfig gates the detection engine
type DetectionConfig struct {
	AutoDetect       bool `mapstructure:"auto_detect"`
	ShowConfirmation bool `mapstructure:"show_confirmation"`
}

// SyncConfig configures the backend sync collaborator
type SyncConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	APIEndpoint string `mapstructure:"api_endpoint"`
}

// FetchConfig configures page fetching
type FetchConfig struct {
	RequestDelay       time.Duration `mapstructure:"request_delay"`
	MaxRetries         int           `mapstructure:"max_retries"`
	Timeout            time.Duration `mapstructure:"timeout"`
	UseHeadlessBrowser bool          `mapstructure:"use_headless_browser"`
	UserAgent          string        `mapstructure:"user_agent"`
}

// ObserverConfig configures cart-count watching
type ObserverConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Load loads configuration from config files and environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cart-tracker/")

	v.SetEnvPrefix("CARTTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; environment variables and defaults apply
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("detection.auto_detect", true)
	v.SetDefault("detection.show_confirmation", true)

	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.api_endpoint", "")

	v.SetDefault("fetch.request_delay", "1s")
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.use_headless_browser", false)
	v.SetDefault("fetch.user_agent", types.DefaultConfig().UserAgent)

	v.SetDefault("observer.interval", "500ms")
}

func validate(config *Config) error {
	if config.Sync.Enabled && config.Sync.APIEndpoint == "" {
		return fmt.Errorf("sync.api_endpoint is required when sync is enabled (set CARTTRACKER_SYNC_API_ENDPOINT)")
	}
	if config.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative, got: %d", config.Fetch.MaxRetries)
	}
	return nil
}

// Settings converts to the detection settings consumed by the engine
func (c *Config) Settings() types.Settings {
	return types.Settings{
		AutoDetect:       c.Detection.AutoDetect,
		ShowConfirmation: c.Detection.ShowConfirmation,
		SyncEnabled:      c.Sync.Enabled,
		APIEndpoint:      c.Sync.APIEndpoint,
	}
}

// FetchSettings converts to the fetch configuration consumed by the
// HTTP and browser clients
func (c *Config) FetchSettings() *types.Config {
	return &types.Config{
		RequestDelay:       c.Fetch.RequestDelay,
		MaxRetries:         c.Fetch.MaxRetries,
		Timeout:            c.Fetch.Timeout,
		UseHeadlessBrowser: c.Fetch.UseHeadlessBrowser,
		UserAgent:          c.Fetch.UserAgent,
	}
}

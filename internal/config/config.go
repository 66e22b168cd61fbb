package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Cobalt    CobaltConfig    `yaml:"cobalt"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Ops       OpsConfig       `yaml:"ops"`
	Cookies   CookiesConfig   `yaml:"cookies"`
	History   HistoryConfig   `yaml:"history"`
}

// TelegramConfig holds bot credentials and intake behavior.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" envconfig:"BOT_TOKEN"`
	// BlockedThreads lists forum topic IDs whose messages are ignored outright.
	BlockedThreads []int         `yaml:"blocked_threads" envconfig:"TELEGRAM_BLOCKED_THREADS"`
	PollTimeout    time.Duration `yaml:"poll_timeout" envconfig:"TELEGRAM_POLL_TIMEOUT" default:"30s"`
}

// CobaltConfig holds extraction service configuration.
type CobaltConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"COBALT_API_URL" default:"http://cobalt-api:9000"`
	APIKey  string        `yaml:"api_key" envconfig:"COBALT_API_KEY"`
	Timeout time.Duration `yaml:"timeout" envconfig:"COBALT_TIMEOUT" default:"60s"`
}

// DeliveryConfig holds size thresholds and extraction quality settings.
type DeliveryConfig struct {
	MaxSingleFileSize int64  `yaml:"max_single_file_size" envconfig:"MAX_SINGLE_FILE_SIZE" default:"47185920"`  // 45 MB
	MaxTotalFileSize  int64  `yaml:"max_total_file_size" envconfig:"MAX_TOTAL_FILE_SIZE" default:"524288000"`   // 500 MB
	VideoQuality      string `yaml:"video_quality" envconfig:"VIDEO_QUALITY" default:"480"`
}

// WorkspaceConfig holds the per-request temporary directory root.
type WorkspaceConfig struct {
	// BasePath must be a directory dedicated to workspaces: Sweep removes
	// everything under it at boot.
	BasePath string `yaml:"base_path" envconfig:"WORKSPACE_PATH" default:"data/tmp"`
}

// OpsConfig holds the operational HTTP listener configuration.
type OpsConfig struct {
	Addr         string        `yaml:"addr" envconfig:"OPS_ADDR" default:":9845"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"OPS_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"OPS_WRITE_TIMEOUT" default:"30s"`
}

// CookiesConfig holds the synthetic cookie refresher configuration.
type CookiesConfig struct {
	Enabled         bool          `yaml:"enabled" envconfig:"COOKIES_ENABLED" default:"true"`
	Path            string        `yaml:"path" envconfig:"COOKIES_PATH" default:"data/cookies.json"`
	RefreshInterval time.Duration `yaml:"refresh_interval" envconfig:"COOKIES_REFRESH_INTERVAL" default:"12h"`
}

// HistoryConfig holds the delivery history database location.
type HistoryConfig struct {
	Path string `yaml:"path" envconfig:"HISTORY_PATH" default:"data/history.db"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and coherent.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.Cobalt.BaseURL == "" {
		return fmt.Errorf("COBALT_API_URL is required")
	}
	if c.Delivery.MaxSingleFileSize <= 0 {
		return fmt.Errorf("MAX_SINGLE_FILE_SIZE must be positive")
	}
	if c.Delivery.MaxTotalFileSize <= c.Delivery.MaxSingleFileSize {
		return fmt.Errorf("MAX_TOTAL_FILE_SIZE must exceed MAX_SINGLE_FILE_SIZE")
	}
	if c.Workspace.BasePath == "" {
		return fmt.Errorf("WORKSPACE_PATH is required")
	}
	return nil
}

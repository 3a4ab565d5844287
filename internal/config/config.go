// Package config loads the daemon configuration from a JSON file or
// from REFBACK_-prefixed environment variables, with an optional .env
// file for local runs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the top-level refback configuration.
type Config struct {
	Bot  BotConfig  `json:"bot"`
	Calc CalcConfig `json:"calc"`
	API  APIConfig  `json:"api"`
}

// BotConfig holds bot daemon settings.
type BotConfig struct {
	Token               string `json:"token"`
	InternalID          int    `json:"internal_id"`
	DataDir             string `json:"data_dir"`
	SupportContact      string `json:"support_contact"`
	OwnerChatID         int64  `json:"owner_chat_id,omitempty"`
	PayoffSweepSchedule string `json:"payoff_sweep_schedule,omitempty"` // cron expression, empty = disabled
	CoalesceDelayMS     int    `json:"coalesce_delay_ms,omitempty"`     // media group window, default 2000
}

// CalcConfig points the bot at the calculation service.
type CalcConfig struct {
	ServiceURL string `json:"service_url"`
}

// APIConfig holds the calculation service's listen settings.
type APIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv builds the config from REFBACK_-prefixed environment
// variables. A .env file in the working directory is read first, if
// present.
func LoadFromEnv() (*Config, error) {
	// Missing .env is fine; the variables may come from the real env.
	godotenv.Load()

	cfg := &Config{
		Bot: BotConfig{
			Token:               os.Getenv("REFBACK_TELEGRAM_TOKEN"),
			InternalID:          getenvInt("REFBACK_INTERNAL_ID", 1),
			DataDir:             getenv("REFBACK_DATA_DIR", "/data"),
			SupportContact:      os.Getenv("REFBACK_SUPPORT_CONTACT"),
			PayoffSweepSchedule: os.Getenv("REFBACK_PAYOFF_SWEEP_SCHEDULE"),
			CoalesceDelayMS:     getenvInt("REFBACK_COALESCE_DELAY_MS", 0),
		},
		Calc: CalcConfig{
			ServiceURL: os.Getenv("REFBACK_CALC_SERVICE_URL"),
		},
		API: APIConfig{
			Host: getenv("REFBACK_API_HOST", "0.0.0.0"),
			Port: getenvInt("REFBACK_API_PORT", 8080),
		},
	}

	if owner := os.Getenv("REFBACK_OWNER_CHAT_ID"); owner != "" {
		id, err := strconv.ParseInt(owner, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: REFBACK_OWNER_CHAT_ID: invalid integer %q", owner)
		}
		cfg.Bot.OwnerChatID = id
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Bot.InternalID == 0 {
		c.Bot.InternalID = 1
	}
	if c.Bot.CoalesceDelayMS == 0 {
		c.Bot.CoalesceDelayMS = 2000
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
}

// Validate checks for required fields.
func (c *Config) Validate() error {
	var errs []string

	if c.Bot.Token == "" {
		errs = append(errs, "bot.token is required")
	}
	if c.Bot.InternalID <= 0 {
		errs = append(errs, "bot.internal_id must be positive")
	}
	if c.Bot.DataDir == "" {
		errs = append(errs, "bot.data_dir is required")
	}
	if c.Bot.SupportContact == "" {
		errs = append(errs, "bot.support_contact is required")
	}
	if c.Bot.CoalesceDelayMS < 0 {
		errs = append(errs, "bot.coalesce_delay_ms must not be negative")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be a valid port")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ListenAddr returns the calculation service listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

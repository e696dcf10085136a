// Load envs from .env
// Load YAML config
// Validate config
// Provide default values

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// StealthConfig tunes the anti-detection posture of a browsing session.
type StealthConfig struct {
	MinDelayMs int  `yaml:"min_delay_ms"`
	MaxDelayMs int  `yaml:"max_delay_ms"`
	Headless   bool `yaml:"headless"`
	// Seed pins the jitter source for deterministic tests. 0 means random.
	Seed int64 `yaml:"seed"`
}

// SearchConfig bounds discovery so a misbehaving results page cannot loop
// forever.
type SearchConfig struct {
	MaxPages       int `yaml:"max_pages"`
	PageTimeoutMs  int `yaml:"page_timeout_ms"`
	LoginTimeoutMs int `yaml:"login_timeout_ms"`
}

// ScoringConfig exposes the engagement-score weights. The weights are a
// product decision, so they live in config rather than code.
type ScoringConfig struct {
	SeniorityWeight    float64 `yaml:"seniority_weight"`
	TitleMatchWeight   float64 `yaml:"title_match_weight"`
	CompletenessWeight float64 `yaml:"completeness_weight"`
	// DecisionMakerThreshold is the lowest seniority tag counted as a
	// decision maker.
	DecisionMakerThreshold string `yaml:"decision_maker_threshold"`
}

type Config struct {
	Port        string `yaml:"port" env:"PORT"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`

	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`

	Stealth StealthConfig `yaml:"stealth"`
	Search  SearchConfig  `yaml:"search"`
	Scoring ScoringConfig `yaml:"scoring"`

	//Paths
	ScreenshotDir string `yaml:"screenshot_dir"`
	ExportDir     string `yaml:"export_dir"`
}

// Load reads configs/config.yaml, applies env overrides, and fills defaults.
// Unlike the scraped-site credentials (which live in the store), everything
// here is operator configuration.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile("configs/config.yaml")
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config.yaml: %w", err)
		}
	}

	//Override with env vars
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	cfg.applyDefaults()

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Stealth.MinDelayMs == 0 {
		cfg.Stealth.MinDelayMs = 800
	}
	if cfg.Stealth.MaxDelayMs == 0 {
		cfg.Stealth.MaxDelayMs = 2600
	}
	if cfg.Search.MaxPages == 0 {
		cfg.Search.MaxPages = 20
	}
	if cfg.Search.PageTimeoutMs == 0 {
		cfg.Search.PageTimeoutMs = 30000
	}
	if cfg.Search.LoginTimeoutMs == 0 {
		cfg.Search.LoginTimeoutMs = 45000
	}
	if cfg.Scoring.SeniorityWeight == 0 {
		cfg.Scoring.SeniorityWeight = 4.0
	}
	if cfg.Scoring.TitleMatchWeight == 0 {
		cfg.Scoring.TitleMatchWeight = 4.0
	}
	if cfg.Scoring.CompletenessWeight == 0 {
		cfg.Scoring.CompletenessWeight = 2.0
	}
	if cfg.Scoring.DecisionMakerThreshold == "" {
		cfg.Scoring.DecisionMakerThreshold = "director"
	}
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = "logs/screenshots"
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "logs"
	}
}

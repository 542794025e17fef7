package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/engine"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/game"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/logging"
)

// Config is the yaml server configuration. Every field has a sensible
// default so the server runs with no config file at all.
type Config struct {
	Game struct {
		Ruleset                 string `yaml:"ruleset"` // classic or redemption
		BaseScore               int    `yaml:"base_score"`
		MaxTimeBonus            int    `yaml:"max_time_bonus"`
		QuestionDurationSeconds int    `yaml:"question_duration_seconds"`
		VoteWindowSeconds       int    `yaml:"vote_window_seconds"`
		SettleDelaySeconds      int    `yaml:"settle_delay_seconds"`
	} `yaml:"game"`

	Logging struct {
		Level     string `yaml:"level"`
		JSON      bool   `yaml:"json"`
		LogToFile bool   `yaml:"log_to_file"`
		FilePath  string `yaml:"file_path"`
	} `yaml:"logging"`

	NATS struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"nats"`

	Janitor struct {
		RetentionHours  int `yaml:"retention_hours"`
		IntervalMinutes int `yaml:"interval_minutes"`
	} `yaml:"janitor"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.Game.Ruleset = "classic"
	cfg.Game.BaseScore = 100
	cfg.Game.MaxTimeBonus = 50
	cfg.Game.QuestionDurationSeconds = 20
	cfg.Game.VoteWindowSeconds = 15
	cfg.Game.SettleDelaySeconds = 3
	cfg.Logging.Level = "info"
	cfg.Logging.FilePath = "server.log"
	cfg.NATS.URL = ""
	cfg.Janitor.RetentionHours = 24
	cfg.Janitor.IntervalMinutes = 60
	return &cfg
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides beat the file.
	cfg.Game.Ruleset = getEnv("GAME_RULESET", cfg.Game.Ruleset)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATS.Enabled = true
		cfg.NATS.URL = url
	}
	return cfg, nil
}

func (c *Config) ruleSet() (engine.RuleSet, error) {
	switch c.Game.Ruleset {
	case "classic":
		return engine.ClassicRules(c.Game.BaseScore), nil
	case "redemption":
		return engine.RedemptionRules(c.Game.BaseScore, c.Game.MaxTimeBonus), nil
	default:
		return engine.RuleSet{}, fmt.Errorf("unknown ruleset %q", c.Game.Ruleset)
	}
}

func (c *Config) engineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	if c.Game.QuestionDurationSeconds > 0 {
		cfg.QuestionDuration = time.Duration(c.Game.QuestionDurationSeconds) * time.Second
	}
	if c.Game.VoteWindowSeconds > 0 {
		cfg.VoteWindow = time.Duration(c.Game.VoteWindowSeconds) * time.Second
	}
	if c.Game.SettleDelaySeconds >= 0 {
		cfg.SettleDelay = time.Duration(c.Game.SettleDelaySeconds) * time.Second
	}
	return cfg
}

func (c *Config) loggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.JSON = c.Logging.JSON
	cfg.LogToFile = c.Logging.LogToFile
	if c.Logging.FilePath != "" {
		cfg.FilePath = c.Logging.FilePath
	}
	return cfg
}

func (c *Config) janitorConfig() game.JanitorConfig {
	cfg := game.DefaultJanitorConfig()
	if c.Janitor.RetentionHours > 0 {
		cfg.Retention = time.Duration(c.Janitor.RetentionHours) * time.Hour
	}
	if c.Janitor.IntervalMinutes > 0 {
		cfg.Interval = time.Duration(c.Janitor.IntervalMinutes) * time.Minute
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

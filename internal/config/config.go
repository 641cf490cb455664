package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the scheduler service.
type Config struct {
	DatabaseURL string
	HTTPAddr    string
	CronSecret  string

	WindowDays       int
	BatchWorkers     int
	BatchBudget      time.Duration
	WorkspaceTimeout time.Duration
	CronInterval     time.Duration
	BatchDailyAt     string // HH:MM; when set, replaces the interval trigger

	LogLevel string

	TelegramToken string
	OpsChatID     int64
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HTTPAddr:         strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		CronSecret:       strings.TrimSpace(os.Getenv("CRON_SECRET")),
		WindowDays:       parseInt(os.Getenv("WINDOW_DAYS"), 30),
		BatchWorkers:     parseInt(os.Getenv("BATCH_WORKERS"), 4),
		BatchBudget:      time.Duration(parseInt(os.Getenv("BATCH_BUDGET_MINUTES"), 45)) * time.Minute,
		WorkspaceTimeout: time.Duration(parseInt(os.Getenv("WORKSPACE_TIMEOUT_SECONDS"), 60)) * time.Second,
		CronInterval:     time.Duration(parseInt(os.Getenv("CRON_INTERVAL_HOURS"), 1)) * time.Hour,
		BatchDailyAt:     strings.TrimSpace(os.Getenv("BATCH_DAILY_AT")),
		LogLevel:         strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		TelegramToken:    strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		OpsChatID:        parseInt64(os.Getenv("OPS_CHAT_ID"), 0),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "scheduler.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.CronSecret == "" {
		return cfg, fmt.Errorf("CRON_SECRET is required")
	}

	return cfg, nil
}

func parseInt(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func parseInt64(raw string, def int64) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken string
	StaleDays   int
	PageSize    int
	PageDelay   time.Duration
	ListenAddr  string
	DBPath      string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// HasSMTP returns true when an outbound mail server is configured. The email
// notification channel is disabled otherwise.
func (c *Config) HasSMTP() bool {
	return c.SMTPHost != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// The GitHub token (BRANCHPULSE_GITHUB_TOKEN) is optional; a token supplied in the
// start-fetch request overrides it. Optional variables with defaults:
// BRANCHPULSE_STALE_DAYS (90), BRANCHPULSE_PAGE_SIZE (100),
// BRANCHPULSE_PAGE_DELAY (1s), BRANCHPULSE_LISTEN_ADDR (127.0.0.1:8080),
// BRANCHPULSE_DB_PATH (branchpulse.db).
func Load() (*Config, error) {
	token := os.Getenv("BRANCHPULSE_GITHUB_TOKEN")

	staleDays := 90
	if v, ok := os.LookupEnv("BRANCHPULSE_STALE_DAYS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("BRANCHPULSE_STALE_DAYS must be a positive integer, got %q", v)
		}
		staleDays = parsed
	}

	pageSize := 100
	if v, ok := os.LookupEnv("BRANCHPULSE_PAGE_SIZE"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			return nil, fmt.Errorf("BRANCHPULSE_PAGE_SIZE must be in 1..100, got %q", v)
		}
		pageSize = parsed
	}

	pageDelay := 1 * time.Second
	if v, ok := os.LookupEnv("BRANCHPULSE_PAGE_DELAY"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("BRANCHPULSE_PAGE_DELAY has invalid duration %q", v)
		}
		pageDelay = parsed
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("BRANCHPULSE_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "branchpulse.db"
	if v, ok := os.LookupEnv("BRANCHPULSE_DB_PATH"); ok {
		dbPath = v
	}

	smtpPort := 587
	if v, ok := os.LookupEnv("BRANCHPULSE_SMTP_PORT"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 65535 {
			return nil, fmt.Errorf("BRANCHPULSE_SMTP_PORT must be a valid port, got %q", v)
		}
		smtpPort = parsed
	}

	return &Config{
		GitHubToken:  token,
		StaleDays:    staleDays,
		PageSize:     pageSize,
		PageDelay:    pageDelay,
		ListenAddr:   listenAddr,
		DBPath:       dbPath,
		SMTPHost:     os.Getenv("BRANCHPULSE_SMTP_HOST"),
		SMTPPort:     smtpPort,
		SMTPUsername: os.Getenv("BRANCHPULSE_SMTP_USERNAME"),
		SMTPPassword: os.Getenv("BRANCHPULSE_SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("BRANCHPULSE_SMTP_FROM"),
	}, nil
}

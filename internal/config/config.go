// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Operating modes. Exactly one event source runs per process.
const (
	ModeWebhook = "webhook"
	ModePoll    = "poll"
)

const minPollInterval = time.Minute

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken   string
	Mode          string
	PollInterval  time.Duration
	PageSize      int
	ListenAddr    string
	WebhookPath   string
	WebhookSecret string
	DBPath        string
	ChatBridgeURL string
	CaseFold      bool
}

// Load reads configuration from environment variables and returns a validated
// Config. REPOWATCH_CHAT_BRIDGE_URL is required; everything else has a
// default. REPOWATCH_GITHUB_TOKEN is optional but strongly recommended, since
// unauthenticated API calls are rate-limited to 60 per hour.
// Optional variables with defaults: REPOWATCH_MODE (poll),
// REPOWATCH_POLL_INTERVAL (5m, floor 1m), REPOWATCH_PAGE_SIZE (20),
// REPOWATCH_LISTEN_ADDR (127.0.0.1:8080), REPOWATCH_WEBHOOK_PATH (/webhook),
// REPOWATCH_DB_PATH (repowatch.db), REPOWATCH_CASE_FOLD (true).
func Load() (*Config, error) {
	bridgeURL := os.Getenv("REPOWATCH_CHAT_BRIDGE_URL")
	if bridgeURL == "" {
		return nil, fmt.Errorf("REPOWATCH_CHAT_BRIDGE_URL is required")
	}

	mode := ModePoll
	if v, ok := os.LookupEnv("REPOWATCH_MODE"); ok {
		if v != ModeWebhook && v != ModePoll {
			return nil, fmt.Errorf("REPOWATCH_MODE must be %q or %q, got %q", ModeWebhook, ModePoll, v)
		}
		mode = v
	}

	pollInterval := 5 * time.Minute
	if v, ok := os.LookupEnv("REPOWATCH_POLL_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("REPOWATCH_POLL_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed < minPollInterval {
			return nil, fmt.Errorf("REPOWATCH_POLL_INTERVAL %s is below the %s floor", parsed, minPollInterval)
		}
		pollInterval = parsed
	}

	pageSize := 20
	if v, ok := os.LookupEnv("REPOWATCH_PAGE_SIZE"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			return nil, fmt.Errorf("REPOWATCH_PAGE_SIZE must be an integer in [1,100], got %q", v)
		}
		pageSize = parsed
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("REPOWATCH_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	webhookPath := "/webhook"
	if v, ok := os.LookupEnv("REPOWATCH_WEBHOOK_PATH"); ok {
		webhookPath = v
	}

	dbPath := "repowatch.db"
	if v, ok := os.LookupEnv("REPOWATCH_DB_PATH"); ok {
		dbPath = v
	}

	caseFold := true
	if v, ok := os.LookupEnv("REPOWATCH_CASE_FOLD"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("REPOWATCH_CASE_FOLD must be a boolean, got %q", v)
		}
		caseFold = parsed
	}

	return &Config{
		GitHubToken:   os.Getenv("REPOWATCH_GITHUB_TOKEN"),
		Mode:          mode,
		PollInterval:  pollInterval,
		PageSize:      pageSize,
		ListenAddr:    listenAddr,
		WebhookPath:   webhookPath,
		WebhookSecret: os.Getenv("REPOWATCH_WEBHOOK_SECRET"),
		DBPath:        dbPath,
		ChatBridgeURL: bridgeURL,
		CaseFold:      caseFold,
	}, nil
}

// Package config loads bot configuration from a YAML file with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/joinbot/core/database"
	"github.com/m3rciful/joinbot/core/logger"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// CommunityConfig identifies the chats the bot works against.
type CommunityConfig struct {
	// ChannelID is the public channel applicants must join before onboarding.
	ChannelID int64 `yaml:"channel_id" envconfig:"CHANNEL_ID"`
	// ChannelLink is the public join link shown to non-members.
	ChannelLink string `yaml:"channel_link" envconfig:"CHANNEL_LINK"`
	// ReviewGroupID is the group whose members may approve or reject.
	ReviewGroupID int64 `yaml:"review_group_id" envconfig:"REVIEW_GROUP_ID"`
	// MainGroupID is the group one-time invite links are created for.
	MainGroupID int64 `yaml:"main_group_id" envconfig:"MAIN_GROUP_ID"`
}

// ReviewConfig holds review workflow policy knobs.
type ReviewConfig struct {
	// ShowApprovalNote controls whether an approval reason is forwarded to
	// the applicant and the audit report. The literal "approve" keyword the
	// reason prompt suggests is always suppressed.
	ShowApprovalNote bool `yaml:"show_approval_note" envconfig:"REVIEW_SHOW_APPROVAL_NOTE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// RateLimitConfig holds settings for per-user rate limiting.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates all bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Community CommunityConfig `yaml:"community"`
	Review    ReviewConfig    `yaml:"review"`
	Database  database.Config `yaml:"database"`
	Logging   logger.Config   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	cfg := Config{
		Review: ReviewConfig{ShowApprovalNote: true},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Community.ChannelID == 0 {
		return fmt.Errorf("community.channel_id is required")
	}
	if cfg.Community.ReviewGroupID == 0 {
		return fmt.Errorf("community.review_group_id is required")
	}
	if cfg.Community.MainGroupID == 0 {
		return fmt.Errorf("community.main_group_id is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if err := database.Normalize(&cfg.Database); err != nil {
		return err
	}
	return nil
}

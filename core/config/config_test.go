package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m3rciful/joinbot/core/database"
)

const sampleYAML = `
telegram:
  token: "123:abc"
  run_mode: polling
community:
  channel_id: -100100
  channel_link: "https://t.me/community"
  review_group_id: -100200
  main_group_id: -100300
database:
  driver: sqlite
  path: /tmp/joinbot.db
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadNormalizesRunModeAlias(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run_mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.Database.Driver != database.DriverSQLite {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
}

func TestLoadDefaultsApprovalNoteOn(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Review.ShowApprovalNote {
		t.Error("review.show_approval_note should default to true")
	}
}

func TestNormalizeRejectsMissingChats(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Database.Driver = database.DriverSQLite
	cfg.Database.Path = "/tmp/x.db"

	if err := Normalize(cfg); err == nil {
		t.Error("expected error for missing community chat ids")
	}
}

func TestNormalizeWebhookRequiresEndpoint(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.RunMode = RunModeWebhook
	cfg.Community = CommunityConfig{ChannelID: 1, ReviewGroupID: 2, MainGroupID: 3}
	cfg.Database.Driver = database.DriverSQLite
	cfg.Database.Path = "/tmp/x.db"

	if err := Normalize(cfg); err == nil {
		t.Error("webhook mode without url/listen/port must fail")
	}
}

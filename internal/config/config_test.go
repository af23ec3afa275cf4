package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SLACK_BOT_TOKEN", "SLACK_API_URL", "CHANNEL_ID", "WEEKLY_POST_TO_CHANNEL_ID",
		"MONTHLY_POST_TO_CHANNEL_ID", "TYPEFORM_APP_ID", "TZ_NAME", "SCHEDULE_AT_LOCAL",
		"DAILY_WINDOW", "LOG_LEVEL", "LOG_FORMAT", "METRICS_ADDR", "JOURNAL_PATH",
		"SLACK_PAGE_SIZE", "TRACK_CONTRIBUTORS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesEnvAndDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("CHANNEL_ID", "C123")
	t.Setenv("TZ_NAME", "UTC")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Slack.BotToken != "xoxb-test" || cfg.Channels.Monitor != "C123" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Schedule.Timezone != "UTC" || cfg.Target.Name != "typeform" || cfg.Slack.PageSize != 200 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "recapbot.yaml")
	cfg := Default()
	cfg.Slack.BotToken = "xoxb-file"
	cfg.Channels.Monitor = "C1"
	cfg.Slack.RetryMargin = 2 * time.Second
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Slack.BotToken != "xoxb-file" || got.Slack.RetryMargin != 2*time.Second {
		t.Fatalf("round trip mismatch: %+v", got.Slack)
	}
}

func TestFileWinsOverEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHANNEL_ID", "CENV")
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("channels:\n  monitor: CFILE\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Channels.Monitor != "CFILE" {
		t.Fatalf("monitor=%s", cfg.Channels.Monitor)
	}
}

func TestValidateRejects(t *testing.T) {
	base := Default()
	base.Slack.BotToken = "xoxb"
	base.Channels.Monitor = "C1"
	if err := base.Validate(); err != nil {
		t.Fatalf("base invalid: %v", err)
	}
	cases := map[string]func(c *Config){
		"missing monitor": func(c *Config) { c.Channels.Monitor = "" },
		"missing token":   func(c *Config) { c.Slack.BotToken = "" },
		"bad hhmm":        func(c *Config) { c.Schedule.AtLocal = "25:00" },
		"bad window":      func(c *Config) { c.Schedule.DailyWindow = "tomorrow" },
		"bad tz":          func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" },
		"small margin":    func(c *Config) { c.Slack.RetryMargin = 100 * time.Millisecond },
		"lowercase chan":  func(c *Config) { c.Channels.Weekly = "general" },
	}
	for name, mutate := range cases {
		c := base
		mutate(&c)
		if err := c.Validate(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestChannelFallbacks(t *testing.T) {
	c := Config{Channels: ChannelsConfig{Monitor: "CMON"}}
	if c.WeeklyChannel() != "CMON" || c.MonthlyChannel() != "CMON" {
		t.Fatal("expected monitor fallback")
	}
	c.Channels.Weekly = "CWEEK"
	if c.MonthlyChannel() != "CWEEK" {
		t.Fatal("monthly should fall back to weekly")
	}
	c.Channels.Monthly = "CMONTH"
	if c.MonthlyChannel() != "CMONTH" {
		t.Fatal("monthly override ignored")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TYPEFORM_APP_ID=A999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// t.Setenv above registered cleanup; Unsetenv lets godotenv fill it.
	os.Unsetenv("TYPEFORM_APP_ID")
	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatal(err)
	}
	if os.Getenv("TYPEFORM_APP_ID") != "A999" {
		t.Fatalf("dotenv not loaded")
	}
}

func TestParseHHMM(t *testing.T) {
	h, m, err := ParseHHMM("09:05")
	if err != nil || h != 9 || m != 5 {
		t.Fatalf("got %d:%d %v", h, m, err)
	}
	if _, _, err := ParseHHMM("9am"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestDailyWindowIsCaseFolded(t *testing.T) {
	clearEnv(t)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("CHANNEL_ID", "C123")
	t.Setenv("DAILY_WINDOW", " TODAY ")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Schedule.DailyWindow != DailyToday {
		t.Fatalf("daily window=%q", cfg.Schedule.DailyWindow)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks configuration problems that must stop the process before any fetch.
var ErrInvalid = errors.New("invalid configuration")

// Daily window policies.
const (
	DailyYesterday = "yesterday"
	DailyToday     = "today"
)

// Config is the application's configuration model.
type Config struct {
	Slack    SlackConfig    `yaml:"slack"`
	Channels ChannelsConfig `yaml:"channels"`
	Target   TargetConfig   `yaml:"target"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Report   ReportConfig   `yaml:"report"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Storage  StorageConfig  `yaml:"storage"`
}

type SlackConfig struct {
	// Bot token (xoxb-...). If empty, read from env SLACK_BOT_TOKEN
	BotToken string  `yaml:"botToken" validate:"required"`
	BaseURL  string  `yaml:"baseURL" validate:"omitempty,url"`
	PageSize int     `yaml:"pageSize" validate:"gte=1,lte=999"`
	RPS      float64 `yaml:"rps" validate:"gt=0"`
	Burst    int     `yaml:"burst" validate:"gte=1"`
	// Added on top of Retry-After before retrying a rate-limited page.
	RetryMargin time.Duration `yaml:"retryMargin" validate:"gte=1s"`
}

type ChannelsConfig struct {
	// Channel analyzed; daily recaps post here. Env CHANNEL_ID
	Monitor string `yaml:"monitor" validate:"required,channelid"`
	Weekly  string `yaml:"weekly" validate:"omitempty,channelid"`
	Monthly string `yaml:"monthly" validate:"omitempty,channelid"`
}

type TargetConfig struct {
	// Optional hard match on bot_profile.app_id. Env TYPEFORM_APP_ID
	AppID string `yaml:"appID"`
	// Case-insensitive substring matched against bot names.
	Name string `yaml:"name" validate:"required"`
}

type ScheduleConfig struct {
	Timezone string `yaml:"timezone" validate:"required"`
	// Local HH:MM to schedule delivery today; empty posts immediately.
	AtLocal     string `yaml:"atLocal" validate:"omitempty,hhmm"`
	DailyWindow string `yaml:"dailyWindow" validate:"oneof=yesterday today"`
}

type ReportConfig struct {
	WeeklyHeader      string `yaml:"weeklyHeader"`
	TrackContributors bool   `yaml:"trackContributors"`
	TopN              int    `yaml:"topN" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type StorageConfig struct {
	// Optional SQLite delivery journal; empty disables it.
	JournalPath string `yaml:"journalPath"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Slack: SlackConfig{
			BaseURL:     "https://slack.com/api",
			PageSize:    200,
			RPS:         1,
			Burst:       3,
			RetryMargin: time.Second,
		},
		Target:   TargetConfig{Name: "typeform"},
		Schedule: ScheduleConfig{Timezone: "America/Denver", DailyWindow: DailyYesterday},
		Report:   ReportConfig{WeeklyHeader: "Weekly Recap as of 2pm Friday", TopN: 5},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
	}
}

// applyDefaults fills every still-empty field from Default().
func (c *Config) applyDefaults() {
	d := Default()
	if c.Slack.BaseURL == "" {
		c.Slack.BaseURL = d.Slack.BaseURL
	}
	if c.Slack.PageSize == 0 {
		c.Slack.PageSize = d.Slack.PageSize
	}
	if c.Slack.RPS == 0 {
		c.Slack.RPS = d.Slack.RPS
	}
	if c.Slack.Burst == 0 {
		c.Slack.Burst = d.Slack.Burst
	}
	if c.Slack.RetryMargin == 0 {
		c.Slack.RetryMargin = d.Slack.RetryMargin
	}
	if c.Target.Name == "" {
		c.Target.Name = d.Target.Name
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = d.Schedule.Timezone
	}
	if c.Schedule.DailyWindow == "" {
		c.Schedule.DailyWindow = d.Schedule.DailyWindow
	}
	if c.Report.WeeklyHeader == "" {
		c.Report.WeeklyHeader = d.Report.WeeklyHeader
	}
	if c.Report.TopN == 0 {
		c.Report.TopN = d.Report.TopN
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = strings.TrimSpace(os.Getenv(key))
		}
	}
	fill(&c.Slack.BotToken, "SLACK_BOT_TOKEN")
	fill(&c.Slack.BaseURL, "SLACK_API_URL")
	fill(&c.Channels.Monitor, "CHANNEL_ID")
	fill(&c.Channels.Weekly, "WEEKLY_POST_TO_CHANNEL_ID")
	fill(&c.Channels.Monthly, "MONTHLY_POST_TO_CHANNEL_ID")
	fill(&c.Target.AppID, "TYPEFORM_APP_ID")
	fill(&c.Schedule.Timezone, "TZ_NAME")
	fill(&c.Schedule.AtLocal, "SCHEDULE_AT_LOCAL")
	fill(&c.Schedule.DailyWindow, "DAILY_WINDOW")
	c.Schedule.DailyWindow = strings.ToLower(strings.TrimSpace(c.Schedule.DailyWindow))
	fill(&c.Logging.Level, "LOG_LEVEL")
	fill(&c.Logging.Format, "LOG_FORMAT")
	fill(&c.Metrics.Addr, "METRICS_ADDR")
	fill(&c.Storage.JournalPath, "JOURNAL_PATH")
	if c.Slack.PageSize == 0 {
		if n, err := strconv.Atoi(os.Getenv("SLACK_PAGE_SIZE")); err == nil && n > 0 {
			c.Slack.PageSize = n
		}
	}
	if !c.Report.TrackContributors {
		c.Report.TrackContributors, _ = strconv.ParseBool(os.Getenv("TRACK_CONTRIBUTORS"))
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env") into the
// process environment without overriding variables that are already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads YAML config from path. A missing file yields defaults plus env.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
		}
	}
	cfg.ResolveEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

var (
	hhmmRe      = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)
	channelIDRe = regexp.MustCompile(`^[A-Z0-9]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("channelid", func(fl validator.FieldLevel) bool {
		return channelIDRe.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks required fields and formats. Errors wrap ErrInvalid.
func (c Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(parts, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalid, c.Schedule.Timezone, err)
	}
	return nil
}

// Location loads the configured IANA timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Schedule.Timezone)
}

// WeeklyChannel is where weekly recaps go: weekly, else monitor.
func (c Config) WeeklyChannel() string {
	if c.Channels.Weekly != "" {
		return c.Channels.Weekly
	}
	return c.Channels.Monitor
}

// MonthlyChannel is where monthly recaps go: monthly, else weekly, else monitor.
func (c Config) MonthlyChannel() string {
	if c.Channels.Monthly != "" {
		return c.Channels.Monthly
	}
	return c.WeeklyChannel()
}

// LooksLikeChannel reports whether id has a public (C) or private (G) channel prefix.
func LooksLikeChannel(id string) bool {
	return strings.HasPrefix(id, "C") || strings.HasPrefix(id, "G")
}

// ParseHHMM splits a validated "HH:MM" string.
func ParseHHMM(s string) (hour, minute int, err error) {
	if !hhmmRe.MatchString(s) {
		return 0, 0, fmt.Errorf("%w: bad HH:MM %q", ErrInvalid, s)
	}
	h, m, _ := strings.Cut(s, ":")
	hour, _ = strconv.Atoi(h)
	minute, _ = strconv.Atoi(m)
	return hour, minute, nil
}

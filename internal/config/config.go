package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv     = "CONTENT_INGEST_CONFIG"
	feedURLEnv        = "RSS_FEED_URL"
	feedNameEnv       = "RSS_FEED_NAME"
	bucketEnv         = "S3_BUCKET"
	ledgerDSNEnv      = "LEDGER_DSN"
	redisAddrEnv      = "REDIS_ADDR"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	courtListenerEnv  = "COURTLISTENER_TOKEN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
)

// Backend names accepted in configuration.
const (
	BackendStatic  = "static"
	BackendHTTP    = "http"
	BackendKeyword = "keyword"
	BackendChatGPT = "chatgpt"
	BackendML      = "ml"
	BackendFS      = "fs"
	BackendRedis   = "redis"
	LedgerNone     = "none"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig       `yaml:"logging"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Feed          FeedConfig          `yaml:"feed"`
	CourtListener CourtListenerConfig `yaml:"courtListener"`
	Classifier    ClassifierConfig    `yaml:"classifier"`
	ChatGPT       ChatGPTConfig       `yaml:"chatgpt"`
	ML            MLConfig            `yaml:"ml"`
	Storage       StorageConfig       `yaml:"storage"`
	Ledger        LedgerConfig        `yaml:"ledger"`
	Notifications NotificationConfig  `yaml:"notifications"`
	Tracing       TracingConfig       `yaml:"tracing"`
}

// LoggingConfig selects verbosity and output encoding.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	// Format is text or json; empty picks text on a terminal and json otherwise.
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// SchedulerConfig defines when each trigger runs in schedule mode.
type SchedulerConfig struct {
	Jobs     []JobConfig    `yaml:"jobs" validate:"dive"`
	Timezone string         `yaml:"timezone" validate:"omitempty,timezone"`
	location *time.Location `yaml:"-"`
}

// JobConfig binds a trigger to a cron expression.
type JobConfig struct {
	Trigger string `yaml:"trigger" validate:"required,oneof=rss api proquest websearch all"`
	Cron    string `yaml:"cron" validate:"required,cron"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

// FeedConfig points the rss trigger at a feed.
type FeedConfig struct {
	Backend string        `yaml:"backend" validate:"oneof=static http"`
	URL     string        `yaml:"url" validate:"required,url"`
	Name    string        `yaml:"name" validate:"required"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// CourtListenerConfig wires the case-law API.
type CourtListenerConfig struct {
	Backend string `yaml:"backend" validate:"oneof=static http"`
	BaseURL string `yaml:"baseUrl" validate:"omitempty,url"`
	Token   string `yaml:"token"`
}

// ClassifierConfig selects the classification and concern backend.
type ClassifierConfig struct {
	Backend  string   `yaml:"backend" validate:"oneof=keyword chatgpt ml"`
	Keywords []string `yaml:"keywords"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string        `yaml:"endpoint" validate:"omitempty,url"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout" validate:"gte=0"`
}

// MLConfig describes the hosted inference service.
type MLConfig struct {
	InferenceURL string `yaml:"inferenceUrl" validate:"omitempty,url"`
	APIKey       string `yaml:"apiKey"`
}

// StorageConfig describes where classified documents are written.
type StorageConfig struct {
	Bucket   string      `yaml:"bucket" validate:"required,excludesall=/"`
	Backend  string      `yaml:"backend" validate:"oneof=fs redis"`
	Root     string      `yaml:"root"`
	Timezone string      `yaml:"timezone" validate:"omitempty,timezone"`
	Redis    RedisConfig `yaml:"redis"`
}

// RedisConfig holds the Redis object-store connection.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

// LedgerConfig selects the run ledger database.
type LedgerConfig struct {
	Driver string `yaml:"driver" validate:"oneof=postgres sqlite none"`
	DSN    string `yaml:"dsn"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// TracingConfig controls OTLP span export.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"serviceName"`
}

// Load reads the YAML file named by CONTENT_INGEST_CONFIG (if set) over the
// defaults, applies environment overrides and validates the result.
func Load() (Config, error) {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit path; an empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.bindTimezone()

	return cfg, nil
}

// StorageLocation resolves the zone used for storage key timestamps.
func (c Config) StorageLocation() *time.Location {
	loc, err := time.LoadLocation(c.Storage.Timezone)
	if err != nil || c.Storage.Timezone == "" {
		return time.UTC
	}
	return loc
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{feedURLEnv, &c.Feed.URL},
		{feedNameEnv, &c.Feed.Name},
		{bucketEnv, &c.Storage.Bucket},
		{ledgerDSNEnv, &c.Ledger.DSN},
		{redisAddrEnv, &c.Storage.Redis.Addr},
		{chatGPTAPIKeyEnv, &c.ChatGPT.APIKey},
		{chatGPTModelEnv, &c.ChatGPT.Model},
		{courtListenerEnv, &c.CourtListener.Token},
		{telegramTokenEnv, &c.Notifications.Telegram.BotToken},
		{telegramChatIDEnv, &c.Notifications.Telegram.ChatID},
		{logLevelEnv, &c.Logging.Level},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.target = v
		}
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

// Validate checks field constraints and the settings each selected backend needs.
func (c Config) Validate() error {
	v, err := newValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	var errs []error
	if c.Classifier.Backend == BackendChatGPT {
		if c.ChatGPT.APIKey == "" || c.ChatGPT.Endpoint == "" || c.ChatGPT.Model == "" {
			errs = append(errs, errors.New("classifier chatgpt needs chatgpt.endpoint, chatgpt.model and an API key"))
		}
	}
	if c.Classifier.Backend == BackendML && c.ML.InferenceURL == "" {
		errs = append(errs, errors.New("classifier ml needs ml.inferenceUrl"))
	}
	if c.Storage.Backend == BackendFS && c.Storage.Root == "" {
		errs = append(errs, errors.New("storage fs needs storage.root"))
	}
	if c.Storage.Backend == BackendRedis && c.Storage.Redis.Addr == "" {
		errs = append(errs, errors.New("storage redis needs storage.redis.addr"))
	}
	if c.Ledger.Driver != LedgerNone && c.Ledger.DSN == "" {
		errs = append(errs, fmt.Errorf("ledger %s needs ledger.dsn", c.Ledger.Driver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validate config: %w", errors.Join(errs...))
	}
	return nil
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})
	if err != nil {
		return nil, fmt.Errorf("register cron validation: %w", err)
	}
	return v, nil
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{
			Timezone: defaultTimezone,
			Jobs: []JobConfig{
				{Trigger: "rss", Cron: "0 * * * *"},
				{Trigger: "api", Cron: "0 6 * * *"},
			},
		},
		Feed: FeedConfig{
			Backend: BackendStatic,
			URL:     "https://example.com/feed.rss",
			Name:    "default-feed",
			Timeout: 20 * time.Second,
		},
		CourtListener: CourtListenerConfig{
			Backend: BackendStatic,
			BaseURL: "https://www.courtlistener.com",
		},
		Classifier: ClassifierConfig{Backend: BackendKeyword},
		ChatGPT: ChatGPTConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			SystemPrompt: "You are an analyst who screens news and court filings for insurance carriers.",
			Timeout:      30 * time.Second,
		},
		Storage: StorageConfig{
			Bucket:   "content-ingest",
			Backend:  BackendFS,
			Root:     "./data/objects",
			Timezone: defaultTimezone,
			Redis:    RedisConfig{Addr: "localhost:6379"},
		},
		Ledger: LedgerConfig{
			Driver: "sqlite",
			DSN:    "./data/ledger.db",
		},
		Tracing: TracingConfig{ServiceName: "contentingest"},
	}
}

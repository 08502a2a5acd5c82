package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, BackendStatic, cfg.Feed.Backend)
	assert.Equal(t, "https://example.com/feed.rss", cfg.Feed.URL)
	assert.Equal(t, "default-feed", cfg.Feed.Name)
	assert.Equal(t, BackendKeyword, cfg.Classifier.Backend)
	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
	assert.Len(t, cfg.Scheduler.Jobs, 2)
	assert.Equal(t, time.UTC, cfg.Scheduler.Location())
}

func TestLoadFileMergesYAML(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: DEBUG
  format: json
scheduler:
  timezone: Europe/Berlin
  jobs:
    - trigger: all
      cron: "*/15 * * * *"
feed:
  backend: http
  url: https://news.example.org/rss
chatgpt:
  timeout: 45s
storage:
  bucket: filings
ledger:
  driver: none
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, BackendHTTP, cfg.Feed.Backend)
	assert.Equal(t, "https://news.example.org/rss", cfg.Feed.URL)
	assert.Equal(t, "default-feed", cfg.Feed.Name, "unset keys keep defaults")
	assert.Equal(t, 45*time.Second, cfg.ChatGPT.Timeout)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatGPT.Model)
	assert.Equal(t, "filings", cfg.Storage.Bucket)
	assert.Equal(t, LedgerNone, cfg.Ledger.Driver)
	require.Len(t, cfg.Scheduler.Jobs, 1)
	assert.Equal(t, "all", cfg.Scheduler.Jobs[0].Trigger)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(feedURLEnv, "https://env.example.com/feed")
	t.Setenv(feedNameEnv, "env-feed")
	t.Setenv(bucketEnv, "env-bucket")
	t.Setenv(chatGPTAPIKeyEnv, "sk-test")
	t.Setenv(logLevelEnv, "WARN")
	t.Setenv(telegramTokenEnv, "tok")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/feed", cfg.Feed.URL)
	assert.Equal(t, "env-feed", cfg.Feed.Name)
	assert.Equal(t, "env-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "sk-test", cfg.ChatGPT.APIKey)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "tok", cfg.Notifications.Telegram.BotToken)
}

func TestLoadFileRejects(t *testing.T) {
	cases := map[string]string{
		"bad cron":         "scheduler:\n  jobs:\n    - trigger: rss\n      cron: \"every day\"\n",
		"bad trigger":      "scheduler:\n  jobs:\n    - trigger: fax\n      cron: \"0 6 * * *\"\n",
		"bad timezone":     "scheduler:\n  timezone: Mars/Olympus\n",
		"bad level":        "logging:\n  level: loud\n",
		"bad feed url":     "feed:\n  url: not-a-url\n",
		"bucket with path": "storage:\n  bucket: a/b\n",
		"chatgpt no key":   "classifier:\n  backend: chatgpt\n",
		"ml no url":        "classifier:\n  backend: ml\n",
		"redis no addr":    "storage:\n  backend: redis\n  redis:\n    addr: \"\"\n",
		"ledger no dsn":    "ledger:\n  driver: postgres\n  dsn: \"\"\n",
		"unknown driver":   "ledger:\n  driver: mysql\n",
		"malformed yaml":   "logging: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestCronValidation(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Var("0 6 * * *", "cron"))
	assert.NoError(t, v.Var("@hourly", "cron"))
	assert.Error(t, v.Var("every day", "cron"))
	assert.Error(t, v.Var("61 * * * *", "cron"))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestStorageLocation(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, time.UTC, cfg.StorageLocation())

	cfg.Storage.Timezone = "America/New_York"
	loc := cfg.StorageLocation()
	if loc == time.UTC {
		t.Skip("tzdata unavailable")
	}
	assert.Equal(t, "America/New_York", loc.String())
}

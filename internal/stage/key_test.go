package stage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFolder(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"court_listener": "Court-Listener",
		"rss-feed":       "Rss-Feed",
		"proquest":       "Proquest",
		"WEB_search":     "Web-Search",
		"":               "Unknown",
	}
	for in, want := range cases {
		assert.Equal(t, want, SourceFolder(in), in)
	}
}

func TestStorageKeyRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, time.November, 8, 23, 59, 1, 0, time.UTC)
	for _, source := range []string{"rss-feed", "court_listener"} {
		key := BuildStorageKey(source, at)

		parsed, err := ParseStorageKey(key)
		require.NoError(t, err, key)

		assert.True(t, parsed.MatchesSource(source), key)
		assert.Equal(t, SourceFolder(source), parsed.Folder)
		assert.Equal(t, "2025-11-08", parsed.Date.Format("2006-01-02"))
		assert.Equal(t, at.Truncate(24*time.Hour), parsed.Date)
		assert.Equal(t, at, parsed.Stamp)
		assert.Equal(t, "UTC", parsed.Zone)
	}
}

func TestParseStorageKeyRejects(t *testing.T) {
	t.Parallel()

	bad := []string{
		"",
		"Rss-Feed/2025-11-08",
		"Rss-Feed/2025-13-08/Rss-Feed-2025-13-08-10-00-00-UTC.json",
		"Rss-Feed/2025-11-08/Other-2025-11-08-10-00-00-UTC.json",
		"Rss-Feed/2025-11-08/Rss-Feed-2025-11-07-10-00-00-UTC.json",
		"Rss-Feed/2025-11-08/Rss-Feed-2025-11-08.json",
		"Rss-Feed/2025-11-08/Rss-Feed-2025-11-08-10-00-00-UTC.txt",
	}
	for _, key := range bad {
		_, err := ParseStorageKey(key)
		assert.Error(t, err, key)
	}
}

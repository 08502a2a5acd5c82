package stage

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	keyDateLayout  = "2006-01-02"
	keyStampLayout = "2006-01-02-15-04-05"
	keyExt         = ".json"
)

// SourceFolder turns a source tag into the storage folder name:
// underscores become hyphens and each hyphen-delimited word is title-cased.
func SourceFolder(source string) string {
	if source == "" {
		source = "unknown"
	}
	// A Caser keeps state between calls, so each call gets its own.
	caser := cases.Title(language.Und)
	words := strings.Split(strings.ReplaceAll(source, "_", "-"), "-")
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, "-")
}

// BuildStorageKey derives <Folder>/<date>/<Folder>-<date-time-zone>.json.
func BuildStorageKey(source string, at time.Time) string {
	folder := SourceFolder(source)
	stamp := at.Format(keyStampLayout) + "-" + at.Format("MST")
	return folder + "/" + at.Format(keyDateLayout) + "/" + folder + "-" + stamp + keyExt
}

// StorageKey is a parsed object key.
type StorageKey struct {
	Folder string
	Date   time.Time
	// Stamp is the wall-clock time embedded in the file name, without zone.
	Stamp time.Time
	Zone  string
}

// MatchesSource reports whether the key was built for source.
func (k StorageKey) MatchesSource(source string) bool {
	return k.Folder == SourceFolder(source)
}

// ParseStorageKey splits a key produced by BuildStorageKey.
func ParseStorageKey(key string) (StorageKey, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 {
		return StorageKey{}, fmt.Errorf("storage key %q: expected 3 segments, got %d", key, len(parts))
	}
	folder, dateDir, file := parts[0], parts[1], parts[2]

	date, err := time.Parse(keyDateLayout, dateDir)
	if err != nil {
		return StorageKey{}, fmt.Errorf("storage key %q: date segment: %w", key, err)
	}

	prefix := folder + "-"
	if !strings.HasPrefix(file, prefix) || !strings.HasSuffix(file, keyExt) {
		return StorageKey{}, fmt.Errorf("storage key %q: file name does not match folder", key)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(file, prefix), keyExt)
	if len(stamp) < len(keyStampLayout)+2 || stamp[len(keyStampLayout)] != '-' {
		return StorageKey{}, fmt.Errorf("storage key %q: malformed timestamp %q", key, stamp)
	}
	if !strings.HasPrefix(stamp, dateDir) {
		return StorageKey{}, fmt.Errorf("storage key %q: timestamp does not match date folder", key)
	}

	wall, err := time.Parse(keyStampLayout, stamp[:len(keyStampLayout)])
	if err != nil {
		return StorageKey{}, fmt.Errorf("storage key %q: timestamp: %w", key, err)
	}

	return StorageKey{
		Folder: folder,
		Date:   date,
		Stamp:  wall,
		Zone:   stamp[len(keyStampLayout)+1:],
	}, nil
}

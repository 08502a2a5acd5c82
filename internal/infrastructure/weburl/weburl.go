// Package weburl holds the URL checks used while vetting feed entries.
package weburl

import (
	"net/url"
	"strings"

	"ContentIngest/internal/ports"
)

// UnknownDomain is returned for links without a parseable host.
const UnknownDomain = "unknown"

// Validator accepts absolute URLs with a scheme and a host.
type Validator struct{}

var _ ports.URLValidator = Validator{}

// IsValidURL never fails; malformed input is simply not valid.
func (Validator) IsValidURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// Extractor returns the host part of a link.
type Extractor struct{}

var _ ports.DomainExtractor = Extractor{}

// ExtractDomain returns host[:port] or UnknownDomain.
func (Extractor) ExtractDomain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return UnknownDomain
	}
	return u.Host
}

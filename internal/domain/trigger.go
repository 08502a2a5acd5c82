package domain

import "strings"

// TriggerType selects which source-fetch stage a run uses.
type TriggerType string

const (
	TriggerRSS       TriggerType = "rss"
	TriggerAPI       TriggerType = "api"
	TriggerProQuest  TriggerType = "proquest"
	TriggerWebSearch TriggerType = "websearch"
	TriggerInvalid   TriggerType = "invalid"
)

// ParseTriggerType normalizes raw input; unknown values map to TriggerInvalid.
func ParseTriggerType(raw string) TriggerType {
	switch TriggerType(strings.ToLower(strings.TrimSpace(raw))) {
	case TriggerRSS:
		return TriggerRSS
	case TriggerAPI:
		return TriggerAPI
	case TriggerProQuest:
		return TriggerProQuest
	case TriggerWebSearch:
		return TriggerWebSearch
	default:
		return TriggerInvalid
	}
}

// Implemented reports whether a fetch stage exists for the trigger.
func (t TriggerType) Implemented() bool {
	return t == TriggerRSS || t == TriggerAPI
}

func (t TriggerType) String() string {
	return string(t)
}

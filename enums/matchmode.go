package enums

import "strings"

type MatchMode string

const (
	MatchModeInvalid MatchMode = ""

	// MatchModeBroad allows partial matches within words.
	// For example, the keyword "cat" will match "cat", "catalog", and "concatenate".
	MatchModeBroad MatchMode = "broad"

	// MatchModeExact requires an exact match of the whole word.
	// For example, the keyword "cat" will match "cat" but not "catalog" or "concatenate".
	MatchModeExact MatchMode = "exact"
)

func ParseMatchMode(s string) MatchMode {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case MatchModeBroad:
		return MatchModeBroad
	case MatchModeExact:
		return MatchModeExact
	default:
		return MatchModeInvalid
	}
}

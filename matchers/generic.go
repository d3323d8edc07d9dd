package matchers

import (
	"strings"
	"unicode"

	"github.com/kova98/yars/enums"
)

// MatchesWholeWord returns true if the keyword appears as a complete word in the text.
// Word boundaries are defined by non-alphanumeric characters or start/end of string.
func MatchesWholeWord(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	idx := 0
	for {
		pos := strings.Index(text[idx:], keyword)
		if pos == -1 {
			return false
		}
		pos += idx

		leftOk := pos == 0 || !isWordChar(rune(text[pos-1]))

		endPos := pos + len(keyword)
		rightOk := endPos == len(text) || !isWordChar(rune(text[endPos]))

		if leftOk && rightOk {
			return true
		}

		idx = pos + 1
		if idx >= len(text) {
			return false
		}
	}
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func MatchesPartially(text, keyword string) bool {
	return strings.Contains(text, keyword)
}

// MatchesAnyKeyword reports whether text contains at least one keyword,
// case-insensitively. An empty keyword list matches everything.
func MatchesAnyKeyword(text string, keywords []string, mode enums.MatchMode) bool {
	if len(keywords) == 0 {
		return true
	}

	textLower := strings.ToLower(text)
	for _, keyword := range keywords {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if kw == "" {
			continue
		}
		switch mode {
		case enums.MatchModeBroad:
			if MatchesPartially(textLower, kw) {
				return true
			}
		default:
			if MatchesWholeWord(textLower, kw) {
				return true
			}
		}
	}
	return false
}

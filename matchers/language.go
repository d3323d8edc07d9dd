package matchers

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

var detectedLanguages = []lingua.Language{
	lingua.English,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Polish,
	lingua.Russian,
	lingua.Croatian,
}

type LanguageDetector struct {
	detector lingua.LanguageDetector
}

func NewLanguageDetector() *LanguageDetector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(detectedLanguages...).
		WithLowAccuracyMode().
		Build()
	return &LanguageDetector{detector: detector}
}

// Detect returns the lower case ISO 639-1 code of the text's language, or ""
// when the language cannot be determined reliably.
func (d *LanguageDetector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}

// MatchesLanguage reports whether code is in the allow-list. An empty list
// allows every language, including undetected ones.
func MatchesLanguage(allow []string, code string) bool {
	if len(allow) == 0 {
		return true
	}
	for _, allowed := range allow {
		if strings.EqualFold(strings.TrimSpace(allowed), code) {
			return true
		}
	}
	return false
}

// Package lang detects the language of vendor utterances from their script
// and maps them onto the set of languages the negotiation agent supports.
package lang

import (
	"unicode"

	"golang.org/x/text/language"
)

// DefaultLanguage is the fallback when detection confidence is too low.
const DefaultLanguage = "hi"

// PivotLanguage is the language extraction prompts operate in.
const PivotLanguage = "en"

// ConfidenceThreshold is the minimum detection confidence before the
// default language kicks in.
const ConfidenceThreshold = 0.5

// supported is the matcher set for the languages the agent speaks. The
// first entry is the matcher's fallback.
var supported = []language.Tag{
	language.Hindi,
	language.Tamil,
	language.Telugu,
	language.Bengali,
	language.Marathi,
	language.Gujarati,
	language.English,
}

var matcher = language.NewMatcher(supported)

// scriptLanguages maps Unicode script ranges to the language spoken in
// that script on the mandi floor. Devanagari is ambiguous between Hindi
// and Marathi; Hindi wins unless the caller says otherwise.
var scriptLanguages = []struct {
	ranges *unicode.RangeTable
	code   string
}{
	{unicode.Devanagari, "hi"},
	{unicode.Tamil, "ta"},
	{unicode.Telugu, "te"},
	{unicode.Bengali, "bn"},
	{unicode.Gujarati, "gu"},
	{unicode.Latin, "en"},
}

// Supported reports whether code names a language the agent can respond in.
func Supported(code string) bool {
	tag, err := language.Parse(code)
	if err != nil {
		return false
	}
	_, _, conf := matcher.Match(tag)
	return conf >= language.High
}

// Detect returns the most likely language code for the text together with
// a confidence in [0, 1]. Confidence is the share of letters written in
// the winning script.
func Detect(text string) (string, float64) {
	counts := make(map[string]int, len(scriptLanguages))
	letters := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		for _, sl := range scriptLanguages {
			if unicode.Is(sl.ranges, r) {
				counts[sl.code]++
				break
			}
		}
	}
	if letters == 0 {
		return "", 0
	}

	best, bestCount := "", 0
	for _, sl := range scriptLanguages {
		if counts[sl.code] > bestCount {
			best, bestCount = sl.code, counts[sl.code]
		}
	}
	if best == "" {
		return "", 0
	}
	return canonical(best), float64(bestCount) / float64(letters)
}

// DetectWithFallback detects the language and substitutes the default when
// confidence falls below the threshold. The fallback flag tells the caller
// the substitution happened so it can be surfaced in the turn result.
func DetectWithFallback(text string) (code string, confidence float64, fallback bool) {
	code, confidence = Detect(text)
	if code == "" || confidence < ConfidenceThreshold {
		return DefaultLanguage, confidence, true
	}
	return code, confidence, false
}

// canonical normalizes a detected code through the matcher so callers
// always see the supported set's spelling.
func canonical(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return DefaultLanguage
	}
	_, idx, _ := matcher.Match(tag)
	base, _ := supported[idx].Base()
	return base.String()
}

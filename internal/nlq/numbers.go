package nlq

import (
	"regexp"
	"strconv"
	"strings"
)

// Grouped digits ("100 000", "100_000" after the underscore fold) followed
// by an optional magnitude suffix. Longer suffix alternatives come first:
// Go regexp alternation is leftmost-first, so "тысяч" must win over "тыс"
// and "млн" over the bare "м".
var intPattern = regexp.MustCompile(`(\d(?:[\d ]*\d)?)\s*(тысяч|тыс\.?|к|k|миллионов|миллиона|миллион|млн\.?|м)?`)

var magnitudeFactors = map[string]int64{
	"к": 1_000, "k": 1_000, "тыс": 1_000, "тыс.": 1_000, "тысяч": 1_000,
	"м": 1_000_000, "млн": 1_000_000, "млн.": 1_000_000,
	"миллион": 1_000_000, "миллиона": 1_000_000, "миллионов": 1_000_000,
}

// ExtractInt finds the first integer literal in text and returns it scaled
// by its magnitude suffix, if any. Digit groups may be separated by spaces
// or underscores. Returns ok=false when no integer is present.
func ExtractInt(text string) (int64, bool) {
	folded := strings.ReplaceAll(strings.ToLower(text), "_", " ")

	match := intPattern.FindStringSubmatch(folded)
	if match == nil {
		return 0, false
	}

	raw := strings.ReplaceAll(match[1], " ", "")
	base, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	if factor, ok := magnitudeFactors[match[2]]; ok {
		return base * factor, true
	}
	return base, true
}

package nlq

import "regexp"

// Identifier shapes are purely lexical; no checksum or existence validation
// happens at extraction time.
var (
	hexTokenPattern = regexp.MustCompile(`\b[a-f0-9]{32}\b`)
	uuidPattern     = regexp.MustCompile(`\b[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}\b`)
)

// ExtractCreatorID returns the first substring shaped like a creator id:
// a bare 32-hex-digit token or a dashed UUID, whichever occurs first.
func ExtractCreatorID(text string) (string, bool) {
	hexLoc := hexTokenPattern.FindStringIndex(text)
	uuidLoc := uuidPattern.FindStringIndex(text)

	switch {
	case hexLoc == nil && uuidLoc == nil:
		return "", false
	case hexLoc == nil:
		return text[uuidLoc[0]:uuidLoc[1]], true
	case uuidLoc == nil:
		return text[hexLoc[0]:hexLoc[1]], true
	case hexLoc[0] <= uuidLoc[0]:
		return text[hexLoc[0]:hexLoc[1]], true
	default:
		return text[uuidLoc[0]:uuidLoc[1]], true
	}
}

// ExtractVideoID returns the first dashed-UUID substring.
func ExtractVideoID(text string) (string, bool) {
	if m := uuidPattern.FindString(text); m != "" {
		return m, true
	}
	return "", false
}

package worldname

import (
	"regexp"
	"strings"
	"unicode"
)

// Candidate filters are tuned against real save metadata: the payload is a
// soup of settings enums ("NoTombstone", "Easy") with the actual world
// title somewhere in between.
var settingsBlacklist = map[string]bool{
	"easy":          true,
	"normal":        true,
	"veryeasy":      true,
	"extreme":       true,
	"custom":        true,
	"notombstone":   true,
	"keepprogress":  true,
	"disabled":      true,
	"many":          true,
	"few":           true,
	"value":         true,
	"version":       true,
	"progress":      true,
	"progresslevel": true,
	"playtime":      true,
	"seed":          true,
	"difficulty":    true,
	"settings":      true,
}

const naturalMarkers = "()-:,"

var (
	wordCharsOnly  = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	plainAlnumOnly = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

func isBlacklistedExact(value string) bool {
	return settingsBlacklist[strings.ToLower(strings.TrimSpace(value))]
}

func hasVowel(value string) bool {
	return strings.ContainsAny(value, "aeiouäöüAEIOUÄÖÜ")
}

func hasUmlaut(value string) bool {
	return strings.ContainsAny(value, "äöüÄÖÜß")
}

func hasLetter(value string) bool {
	return strings.ContainsFunc(value, unicode.IsLetter)
}

func isAllDigits(value string) bool {
	return value != "" && !strings.ContainsFunc(value, func(r rune) bool { return !unicode.IsDigit(r) })
}

func isAlnum(value string) bool {
	return value != "" && !strings.ContainsFunc(value, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// looksLikeEnumOrCamelCase flags single tokens such as "NoTombstone" that
// are settings values rather than titles.
func looksLikeEnumOrCamelCase(value string) bool {
	stripped := strings.TrimSpace(value)
	if stripped == "" || strings.Contains(stripped, " ") {
		return false
	}
	if !isAlnum(stripped) {
		return false
	}

	runes := []rune(stripped)
	transitions := 0
	for i := 1; i < len(runes); i++ {
		if unicode.IsLower(runes[i-1]) && unicode.IsUpper(runes[i]) {
			transitions++
		}
	}

	hasLower := strings.ContainsFunc(stripped, unicode.IsLower)
	hasUpper := strings.ContainsFunc(stripped, unicode.IsUpper)
	return hasLower && hasUpper && transitions >= 1
}

// looksLikeNaturalTitle accepts strings shaped like a human-chosen name,
// e.g. "Meine Welt (Solo)".
func looksLikeNaturalTitle(value string) bool {
	stripped := strings.TrimSpace(value)
	length := len([]rune(stripped))
	if length < 3 || length > 48 {
		return false
	}
	if !hasLetter(stripped) {
		return false
	}

	return strings.Contains(stripped, " ") ||
		hasUmlaut(stripped) ||
		strings.ContainsAny(stripped, naturalMarkers)
}

// isShortGibberish rejects short vowel-less or mostly-uppercase tokens
// such as "yMH" that the decompressor produces in quantity.
func isShortGibberish(value string) bool {
	stripped := strings.TrimSpace(value)
	length := len([]rune(stripped))

	if length < 3 || length > 5 {
		return false
	}
	if strings.Contains(stripped, " ") || strings.Contains(stripped, "-") {
		return false
	}
	if hasUmlaut(stripped) || strings.ContainsAny(stripped, naturalMarkers) {
		return false
	}

	letters := 0
	uppercase := 0
	for _, r := range stripped {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppercase++
			}
		}
	}

	uppercaseRatio := 0.0
	if letters > 0 {
		uppercaseRatio = float64(uppercase) / float64(letters)
	}

	return !hasVowel(stripped) || uppercaseRatio >= 0.6
}

// isPlausibleWorldName is the hard filter; scoring only ranks what passes
// this gate.
func isPlausibleWorldName(value string) bool {
	stripped := strings.TrimSpace(value)
	length := len([]rune(stripped))

	if length < 3 || length > 48 {
		return false
	}
	if isShortGibberish(stripped) {
		return false
	}
	if isBlacklistedExact(stripped) {
		return false
	}
	if isAllDigits(stripped) {
		return false
	}
	if !hasLetter(stripped) {
		return false
	}
	if looksLikeEnumOrCamelCase(stripped) {
		return false
	}
	if wordCharsOnly.MatchString(stripped) && length <= 4 {
		return false
	}
	return true
}

func scoreCandidate(value string) float64 {
	stripped := strings.TrimSpace(value)
	if isBlacklistedExact(stripped) {
		return -999.0
	}

	score := 0.0
	if looksLikeNaturalTitle(stripped) {
		score += 2.0
	}
	if looksLikeEnumOrCamelCase(stripped) {
		score -= 2.0
	}
	if !strings.Contains(stripped, " ") && plainAlnumOnly.MatchString(stripped) {
		score -= 3.0
	}
	return score
}

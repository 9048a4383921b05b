package worldname

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	asciiRunPattern = regexp.MustCompile(`[\x20-\x7E]{4,}`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// extractASCIIStrings returns every printable-ASCII run of at least four
// bytes in the payload.
func extractASCIIStrings(payload []byte) []string {
	matches := asciiRunPattern.FindAll(payload, -1)
	results := make([]string, 0, len(matches))
	for _, match := range matches {
		results = append(results, string(match))
	}
	return results
}

// extractUTF8Strings returns printable rune runs of at least four runes,
// skipping over invalid byte sequences.
func extractUTF8Strings(payload []byte, minLen int) []string {
	var results []string
	var current []rune

	flush := func() {
		if len(current) >= minLen {
			results = append(results, string(current))
		}
		current = current[:0]
	}

	for i := 0; i < len(payload); {
		r, size := utf8.DecodeRune(payload[i:])
		i += size
		if r == utf8.RuneError && size == 1 {
			flush()
			continue
		}
		if unicode.IsPrint(r) && r != '\x00' && r != '\v' && r != '\f' {
			current = append(current, r)
			continue
		}
		flush()
	}
	flush()

	return results
}

// sanitizeString collapses NULs and runs of whitespace into single spaces
func sanitizeString(value string) string {
	text := strings.TrimSpace(strings.ReplaceAll(value, "\x00", " "))
	return whitespaceRuns.ReplaceAllString(text, " ")
}

// dedupeCaseInsensitive keeps the first spelling of each candidate
func dedupeCaseInsensitive(values []string) []string {
	seen := make(map[string]bool, len(values))
	deduped := make([]string, 0, len(values))
	for _, value := range values {
		key := strings.ToLower(value)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, value)
	}
	return deduped
}

package worldname

import (
	"math"
	"os"
	"sort"
	"strings"
)

// MaxDecompressedBytes caps each embedded frame's output. Info files hold
// settings plus the title; a frame expanding past this is not metadata.
const MaxDecompressedBytes = 8 * 1024 * 1024

const topCandidates = 5

// extractWorldNameFromInfoFile scans a binary metadata file for embedded
// compressed frames, pulls printable strings out of them and ranks the
// plausible ones. Returns the best guess plus the ranked shortlist.
func extractWorldNameFromInfoFile(path string) (string, []string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil
	}

	offsets := findMagicOffsets(raw)
	if len(offsets) == 0 {
		return "", nil
	}

	var candidates []string
	for _, offset := range offsets {
		payload := tryDecompressFromOffset(raw, offset, MaxDecompressedBytes)
		if payload == nil {
			continue
		}

		values := extractASCIIStrings(payload)
		values = append(values, extractUTF8Strings(payload, 4)...)
		for _, value := range values {
			if cleaned := sanitizeString(value); cleaned != "" {
				candidates = append(candidates, cleaned)
			}
		}
	}

	occurrences := make(map[string]int, len(candidates))
	for _, value := range candidates {
		occurrences[strings.ToLower(value)]++
	}

	var plausible []string
	for _, value := range dedupeCaseInsensitive(candidates) {
		if isPlausibleWorldName(value) {
			plausible = append(plausible, value)
		}
	}
	if len(plausible) == 0 {
		return "", nil
	}

	// A name repeated across frames is more likely the real title; the
	// boost is logarithmic and capped so frequency never outvotes shape.
	scores := make(map[string]float64, len(plausible))
	for _, value := range plausible {
		count := occurrences[strings.ToLower(value)]
		scores[value] = scoreCandidate(value) + math.Min(2.0, math.Log2(float64(count+1))*0.5)
	}

	sort.SliceStable(plausible, func(i, j int) bool {
		return scores[plausible[i]] > scores[plausible[j]]
	})

	top := plausible
	if len(top) > topCandidates {
		top = top[:topCandidates]
	}
	return top[0], top
}

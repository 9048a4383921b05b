package worldname

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlacklistedSettingsValuesAreRejected(t *testing.T) {
	for _, value := range []string{"Easy", "easy", "  Difficulty ", "KeepProgress"} {
		assert.Falsef(t, isPlausibleWorldName(value), "%q must be rejected", value)
	}
	assert.Equal(t, -999.0, scoreCandidate("Easy"))
}

func TestCamelCaseTokensAreRejected(t *testing.T) {
	assert.True(t, looksLikeEnumOrCamelCase("NoTombstone"))
	assert.False(t, isPlausibleWorldName("NoTombstone"))

	assert.False(t, looksLikeEnumOrCamelCase("Meine Welt"))
	assert.False(t, looksLikeEnumOrCamelCase("lowercase"))
	assert.False(t, looksLikeEnumOrCamelCase("UPPERCASE"))
}

func TestNaturalTitlesAreAccepted(t *testing.T) {
	for _, value := range []string{"Meine Welt (Solo)", "New Home", "Outpost-7", "Schöne Aussicht"} {
		assert.Truef(t, isPlausibleWorldName(value), "%q must be plausible", value)
		assert.Truef(t, looksLikeNaturalTitle(value), "%q must look natural", value)
	}
}

func TestShortGibberishIsRejected(t *testing.T) {
	assert.True(t, isShortGibberish("yMH"))
	assert.True(t, isShortGibberish("XKCD"))
	assert.False(t, isShortGibberish("Welt"))
	assert.False(t, isPlausibleWorldName("yMH"))
}

func TestDigitsAndShortTokensAreRejected(t *testing.T) {
	assert.False(t, isPlausibleWorldName("12345"))
	assert.False(t, isPlausibleWorldName("ab"))
	assert.False(t, isPlausibleWorldName("seed"))
	assert.False(t, isPlausibleWorldName("ab_1"))
}

func TestNaturalTitleOutscoresPlainToken(t *testing.T) {
	assert.Greater(t, scoreCandidate("Meine Welt (Solo)"), scoreCandidate("Wildnis"))
}

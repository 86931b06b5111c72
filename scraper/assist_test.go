package scraper

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func Test_truncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "lon", truncate("longer", 3))
}

func Test_truncate_keeps_runes_whole(t *testing.T) {
	// "Zürich" repeated; ü is two bytes, so naive byte cuts land mid-rune
	s := strings.Repeat("Zürich ", 10)

	for max := 1; max < len(s); max++ {
		cut := truncate(s, max)
		assert.LessOrEqual(t, len(cut), max)
		assert.True(t, utf8.ValidString(cut), "cut at %d produced invalid UTF-8", max)
	}
}

package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextCleanerNormalizesWhitespace(t *testing.T) {
	cleaner := NewTextCleaner()

	assert.Equal(t, "one two three", cleaner.Clean("one \t two\t\tthree"))
}

func TestTextCleanerRepairsHyphenBreaks(t *testing.T) {
	cleaner := NewTextCleaner()

	assert.Equal(t, "engineering department",
		cleaner.Clean("engineer- ing department"))
}

func TestTextCleanerRemovesSpacedPunctuation(t *testing.T) {
	cleaner := NewTextCleaner()

	assert.Equal(t, "The deadline is June 30.",
		cleaner.Clean("The deadline is June 30 ."))
}

func TestTextCleanerCollapsesBlankLines(t *testing.T) {
	cleaner := NewTextCleaner()

	assert.Equal(t, "first\n\nsecond", cleaner.Clean("first\n\n\n\n\nsecond"))
}

func TestTextCleanerEmptyInput(t *testing.T) {
	cleaner := NewTextCleaner()

	assert.Equal(t, "", cleaner.Clean(""))
	assert.Equal(t, "", cleaner.Clean("   \n \t "))
}

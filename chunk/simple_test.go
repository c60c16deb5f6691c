package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleRespectsMaxChunkSize(t *testing.T) {
	text := strings.Repeat("word ", 500)
	cfg := DefaultSimpleConfig()

	chunks := Simple(text, cfg)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), cfg.MaxChunkSize)
	}
}

func TestSimplePrefersEarliestPreferenceSplit(t *testing.T) {
	cfg := SimpleConfig{MaxChunkSize: 20, TextOverlap: 0, SplitCharacters: []string{"\n\n", "\n", ". "}}
	text := "first paragraph here\n\nsecond paragraph follows after that"

	chunks := Simple(text, cfg)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "first paragraph here", chunks[0].Text)
}

func TestSimpleMakesForwardProgressWithoutSplitMatch(t *testing.T) {
	cfg := SimpleConfig{MaxChunkSize: 5, TextOverlap: 4, SplitCharacters: []string{"|"}}
	text := strings.Repeat("x", 50)

	chunks := Simple(text, cfg)
	require.NotEmpty(t, chunks)
	total := 0
	for _, c := range chunks {
		total += len(c.Text)
	}
	assert.Less(t, len(chunks), 50)
}

func TestSimpleEmptyTextYieldsNoChunks(t *testing.T) {
	assert.Empty(t, Simple("", DefaultSimpleConfig()))
}

func TestSimpleSkipsEmptyTrimmedPieces(t *testing.T) {
	cfg := SimpleConfig{MaxChunkSize: 3, TextOverlap: 0, SplitCharacters: []string{"\n"}}
	text := "a\n\n\nb"

	chunks := Simple(text, cfg)
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c.Text))
	}
}

package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemanticSplitsOnMarkdownHeadings(t *testing.T) {
	text := "# Title\n\nintro text\n\n## Section One\n\nbody one\n\n## Section Two\n\nbody two\n"
	cfg := DefaultSemanticConfig()
	cfg.TitleLevelThreshold = 1

	chunks := Semantic(text, cfg)
	require.NotEmpty(t, chunks)

	var titles []string
	for _, c := range chunks {
		titles = append(titles, c.Title)
	}
	assert.Contains(t, titles, "Title")
}

func TestSemanticNoHeadingsFallsBackToParagraphs(t *testing.T) {
	text := "paragraph one text here.\n\nparagraph two text here.\n\nparagraph three text here."
	cfg := DefaultSemanticConfig()

	chunks := Semantic(text, cfg)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, "", c.Title)
	}
}

func TestSemanticTitleHierarchyFillsMissingLevels(t *testing.T) {
	text := "# Top\n\nintro\n\n#### Deep\n\ndeep body\n"
	cfg := DefaultSemanticConfig()
	cfg.TitleLevelThreshold = 4

	chunks := Semantic(text, cfg)
	require.NotEmpty(t, chunks)

	found := false
	for _, c := range chunks {
		if c.Title == "Deep" {
			found = true
			assert.Equal(t, []string{"Top", "Untitled Section", "Untitled Section", "Deep"}, c.TitleHierarchy)
		}
	}
	assert.True(t, found, "expected a chunk titled Deep")
}

func TestSemanticDeepHeadingContinuesCurrentChunk(t *testing.T) {
	text := "# Top\n\nintro body\n\n### Sub\n\nsub body\n"
	cfg := DefaultSemanticConfig()
	cfg.TitleLevelThreshold = 2

	chunks := Semantic(text, cfg)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "intro body")
	assert.Contains(t, chunks[0].Text, "sub body")
}

func TestSemanticFiltersBelowMinChunkSizeButKeepsLargest(t *testing.T) {
	cfg := SemanticConfig{MaxChunkSize: 2000, MinChunkSize: 5000, TitleLevelThreshold: 1, IncludeTitleContext: true}
	text := "# A\n\nshort\n\n# B\n\nalso short\n"

	chunks := Semantic(text, cfg)
	require.Len(t, chunks, 1)
}

func TestSemanticForceSplitsOversizedParagraphOnWords(t *testing.T) {
	cfg := SemanticConfig{MaxChunkSize: 30, MinChunkSize: 1, TitleLevelThreshold: 1, IncludeTitleContext: true}
	text := "# Heading\n\n" + strings.Repeat("wordword ", 20)

	chunks := Semantic(text, cfg)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), cfg.MaxChunkSize+len("wordword"))
	}
}

func TestSemanticEmptyTextYieldsNoChunks(t *testing.T) {
	assert.Empty(t, Semantic("   \n\n  ", DefaultSemanticConfig()))
}

func TestSemanticTwoSecondLevelHeadingsYieldThreeChunks(t *testing.T) {
	cfg := SemanticConfig{MaxChunkSize: 2000, MinChunkSize: 1, TitleLevelThreshold: 2, IncludeTitleContext: true}
	text := "# T\n\nI.\n\n## A\n\nAlpha.\n\n## B\n\nBeta."

	chunks := Semantic(text, cfg)
	require.Len(t, chunks, 3)
	assert.Equal(t, "T", chunks[0].Title)
	assert.Equal(t, "A", chunks[1].Title)
	assert.Equal(t, "B", chunks[2].Title)
}

func TestSemanticParagraphOverflowSplitsOnBoundaries(t *testing.T) {
	cfg := SemanticConfig{MaxChunkSize: 1000, MinChunkSize: 100, TitleLevelThreshold: 2, IncludeTitleContext: true}
	paragraph := strings.Repeat("Sentence text continues. ", 20) // ~500 chars
	text := strings.Join([]string{paragraph, paragraph, paragraph, paragraph, paragraph}, "\n\n")

	chunks := Semantic(text, cfg)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), cfg.MaxChunkSize)
	}
}

func TestSemanticUnderlineHeadingDetected(t *testing.T) {
	text := "Main Title\n==========\n\nbody text here\n"
	cfg := DefaultSemanticConfig()
	cfg.TitleLevelThreshold = 1

	chunks := Semantic(text, cfg)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "Main Title", chunks[0].Title)
}

package chunk

import "strings"

// SimpleConfig configures the fixed-window chunker.
type SimpleConfig struct {
	MaxChunkSize int
	TextOverlap  int
	// SplitCharacters is tried in order; the earliest-preference match
	// found when searching backward from the target end wins.
	SplitCharacters []string
}

// DefaultSimpleConfig matches the default window: 1000-char chunks,
// 100-char overlap, paragraph/line/sentence boundary preference.
func DefaultSimpleConfig() SimpleConfig {
	return SimpleConfig{
		MaxChunkSize:    1000,
		TextOverlap:     100,
		SplitCharacters: []string{"\n\n", "\n", ". ", "! ", "? "},
	}
}

// maxBackSearch bounds how far back from the target end the chunker
// looks for a split character before giving up and cutting at the
// target end verbatim.
const maxBackSearch = 200

// Simple splits text into a sequence of overlapping, size-bounded
// windows, preferring to break at the earliest-preference split
// character found near the window boundary.
func Simple(text string, cfg SimpleConfig) []Chunk {
	if text == "" {
		return nil
	}
	if cfg.MaxChunkSize <= 0 {
		cfg = DefaultSimpleConfig()
	}

	runes := []rune(text)
	n := len(runes)

	var chunks []Chunk
	pos := 0
	for pos < n {
		end := pos + cfg.MaxChunkSize
		if end > n {
			end = n
		}
		if end < n {
			if split, ok := backwardSplit(runes, pos, end, cfg.SplitCharacters); ok {
				end = split
			}
		}

		piece := strings.TrimSpace(string(runes[pos:end]))
		if piece != "" {
			chunks = append(chunks, Chunk{Text: piece})
		}
		if end >= n {
			break
		}

		next := end - cfg.TextOverlap
		if next < pos+1 {
			next = pos + 1
		}
		pos = next
	}
	return chunks
}

// backwardSplit searches runes[max(pos, end-maxBackSearch):end] for the
// earliest-preference split character in splitChars and returns the
// offset just after it.
func backwardSplit(runes []rune, pos, end int, splitChars []string) (int, bool) {
	searchStart := end - maxBackSearch
	if searchStart < pos {
		searchStart = pos
	}
	window := runes[searchStart:end]

	for _, sep := range splitChars {
		sepRunes := []rune(sep)
		idx := lastIndexRunes(window, sepRunes)
		if idx < 0 {
			continue
		}
		return searchStart + idx + len(sepRunes), true
	}
	return 0, false
}

// lastIndexRunes returns the rune offset of the last occurrence of sep
// within s, or -1 if sep does not occur.
func lastIndexRunes(s, sep []rune) int {
	if len(sep) == 0 || len(sep) > len(s) {
		return -1
	}
	for i := len(s) - len(sep); i >= 0; i-- {
		if runesEqual(s[i:i+len(sep)], sep) {
			return i
		}
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

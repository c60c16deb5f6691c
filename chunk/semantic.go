package chunk

import (
	"regexp"
	"sort"
	"strings"
)

// SemanticConfig configures the heading-aware chunker.
type SemanticConfig struct {
	MaxChunkSize        int
	MinChunkSize        int
	TitleLevelThreshold int
	IncludeTitleContext bool
}

// DefaultSemanticConfig matches the default heading-aware window.
func DefaultSemanticConfig() SemanticConfig {
	return SemanticConfig{
		MaxChunkSize:        2000,
		MinChunkSize:        100,
		TitleLevelThreshold: 2,
		IncludeTitleContext: true,
	}
}

var (
	markdownHeadingRe = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	numberedHeadingRe = regexp.MustCompile(`(?m)^((?:\d+\.)+)\s+(.+)$`)
)

// heading is one detected title line, positioned by rune offset into
// the source text.
type heading struct {
	pos   int
	level int
	title string
}

// Semantic splits text along detected headings, maintaining a title
// hierarchy stack and packing each heading's section into the current
// or a new chunk depending on heading depth and size. Falls back to
// paragraph splitting when no headings are found.
func Semantic(text string, cfg SemanticConfig) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if cfg.MaxChunkSize <= 0 {
		cfg = DefaultSemanticConfig()
	}

	headings := detectHeadings(text)
	if len(headings) == 0 {
		return filterChunks(packParagraphs(text, cfg, nil), cfg)
	}

	var chunks []Chunk
	var stack []string
	var current *Chunk

	emit := func(section string, hierarchy []string, title string, level int) {
		section = strings.TrimSpace(section)
		if section == "" {
			return
		}
		packed := packParagraphs(section, cfg, hierarchy)
		for i := range packed {
			if packed[i].Title == "" {
				packed[i].Title = title
				packed[i].TitleLevel = level
			}
		}
		chunks = append(chunks, packed...)
	}

	for i, h := range headings {
		stack = updateTitleStack(stack, h.level, h.title)
		hierarchy := append([]string(nil), stack...)

		sectionStart := h.pos
		sectionEnd := len(runeSlice(text))
		if i+1 < len(headings) {
			sectionEnd = headings[i+1].pos
		}
		section := string(runeSlice(text)[sectionStart:sectionEnd])

		startsNewChunk := h.level <= cfg.TitleLevelThreshold
		if startsNewChunk {
			current = nil
			emit(section, hierarchy, h.title, h.level)
			if n := len(chunks); n > 0 {
				current = &chunks[n-1]
			}
			continue
		}

		if current != nil && len(current.Text)+len(section)+2 <= cfg.MaxChunkSize {
			current.Text = current.Text + "\n\n" + strings.TrimSpace(section)
			continue
		}

		emit(section, hierarchy, h.title, h.level)
		if n := len(chunks); n > 0 {
			current = &chunks[n-1]
		}
	}

	return filterChunks(chunks, cfg)
}

// detectHeadings scans text for each of the three heading families and
// returns the matches merged and sorted by position.
func detectHeadings(text string) []heading {
	var found []heading

	for _, m := range markdownHeadingRe.FindAllStringSubmatchIndex(text, -1) {
		hashes := text[m[2]:m[3]]
		title := strings.TrimSpace(text[m[4]:m[5]])
		found = append(found, heading{pos: byteToRune(text, m[0]), level: len(hashes), title: title})
	}

	for _, m := range numberedHeadingRe.FindAllStringSubmatchIndex(text, -1) {
		prefix := text[m[2]:m[3]]
		title := strings.TrimSpace(text[m[4]:m[5]])
		found = append(found, heading{pos: byteToRune(text, m[0]), level: strings.Count(prefix, "."), title: title})
	}

	found = append(found, detectUnderlineHeadings(text)...)

	sort.Slice(found, func(i, j int) bool { return found[i].pos < found[j].pos })
	return found
}

// detectUnderlineHeadings finds a title line immediately followed by a
// line of three or more '=' (level 1) or '-' (level 2) characters.
func detectUnderlineHeadings(text string) []heading {
	lines := strings.Split(text, "\n")
	var found []heading

	byteOffset := 0
	offsets := make([]int, len(lines))
	for i, l := range lines {
		offsets[i] = byteOffset
		byteOffset += len(l) + 1
	}

	for i := 0; i+1 < len(lines); i++ {
		title := strings.TrimSpace(lines[i])
		underline := strings.TrimSpace(lines[i+1])
		if title == "" || len(underline) < 3 {
			continue
		}
		switch {
		case isAllRune(underline, '='):
			found = append(found, heading{pos: byteToRune(text, offsets[i]), level: 1, title: title})
		case isAllRune(underline, '-'):
			found = append(found, heading{pos: byteToRune(text, offsets[i]), level: 2, title: title})
		}
	}
	return found
}

func isAllRune(s string, r rune) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != r {
			return false
		}
	}
	return true
}

// updateTitleStack applies the hierarchy maintenance rule for a newly
// seen heading at level, returning the updated stack with title pushed.
func updateTitleStack(stack []string, level int, title string) []string {
	if level-1 < len(stack) {
		stack = stack[:level-1]
	}
	for len(stack) < level-1 {
		stack = append(stack, "Untitled Section")
	}
	return append(stack, title)
}

// packParagraphs applies the size-enforcement rule to one section,
// splitting on paragraph boundaries (then sentence, then word) and
// greedily packing into chunks no larger than cfg.MaxChunkSize.
func packParagraphs(section string, cfg SemanticConfig, hierarchy []string) []Chunk {
	section = strings.TrimSpace(section)
	if section == "" {
		return nil
	}
	if len(section) <= cfg.MaxChunkSize {
		return []Chunk{{Text: section, TitleHierarchy: hierarchy}}
	}

	paragraphs := strings.Split(section, "\n\n")
	if len(paragraphs) == 1 {
		paragraphs = splitSentences(section)
	}

	var out []Chunk
	var buf strings.Builder
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, Chunk{Text: strings.TrimSpace(buf.String()), TitleHierarchy: hierarchy})
		buf.Reset()
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(p) > cfg.MaxChunkSize {
			flush()
			out = append(out, splitWords(p, cfg.MaxChunkSize, hierarchy)...)
			continue
		}
		if buf.Len() > 0 && buf.Len()+2+len(p) > cfg.MaxChunkSize {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(p)
	}
	flush()
	return out
}

var sentenceSplitRe = regexp.MustCompile(`(?:\. |\.\n)`)

// splitSentences splits text into sentences on ". " and ".\n",
// re-appending the terminating period each split consumed.
func splitSentences(text string) []string {
	idxs := sentenceSplitRe.FindAllStringIndex(text, -1)
	if len(idxs) == 0 {
		return []string{text}
	}
	var out []string
	last := 0
	for _, m := range idxs {
		out = append(out, text[last:m[0]]+".")
		last = m[1]
	}
	if last < len(text) {
		out = append(out, text[last:])
	}
	return out
}

// splitWords force-splits text on word boundaries into pieces no
// larger than maxSize, used when a single paragraph or sentence alone
// exceeds the chunk size.
func splitWords(text string, maxSize int, hierarchy []string) []Chunk {
	words := strings.Fields(text)
	var out []Chunk
	var buf strings.Builder
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, Chunk{Text: buf.String(), TitleHierarchy: hierarchy})
		buf.Reset()
	}
	for _, w := range words {
		if buf.Len() > 0 && buf.Len()+1+len(w) > maxSize {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(w)
	}
	flush()
	return out
}

// filterChunks drops chunks shorter than cfg.MinChunkSize, keeping the
// single largest chunk if that would empty the result entirely.
func filterChunks(chunks []Chunk, cfg SemanticConfig) []Chunk {
	if len(chunks) == 0 {
		return nil
	}
	var kept []Chunk
	largest := 0
	for i, c := range chunks {
		if len(c.Text) > len(chunks[largest].Text) {
			largest = i
		}
		if len(c.Text) >= cfg.MinChunkSize {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return []Chunk{chunks[largest]}
	}
	return kept
}

func runeSlice(s string) []rune { return []rune(s) }

// byteToRune converts a byte offset into text to a rune offset.
func byteToRune(text string, byteOffset int) int {
	return len([]rune(text[:byteOffset]))
}

package prompt

import (
	"embed"
	"strings"
)

//go:embed embedded/*.tmpl
var embeddedFS embed.FS

var _ Provider = (*EmbeddedProvider)(nil)

// EmbeddedProvider serves prompts baked into the binary via embed.FS,
// one file per prompt under embedded/, named after the prompt in lower
// snake case ("AskWithFacts" is read from "ask_with_facts.tmpl").
type EmbeddedProvider struct {
	fs     embed.FS
	prefix string
}

// NewEmbeddedProvider builds a provider over the module's compiled-in
// prompt.
func NewEmbeddedProvider() *EmbeddedProvider {
	return &EmbeddedProvider{fs: embeddedFS, prefix: "embedded"}
}

func (p *EmbeddedProvider) ReadPrompt(name string) (string, error) {
	path := p.prefix + "/" + fileNameFor(name)
	raw, err := p.fs.ReadFile(path)
	if err != nil {
		return "", &NotFoundError{Name: name}
	}
	return string(raw), nil
}

func fileNameFor(name string) string {
	return strings.ToLower(camelToSnake(name)) + ".tmpl"
}

// camelToSnake inserts an underscore before every upper-case letter
// after the first, so "AskWithFacts" becomes "Ask_With_Facts";
// fileNameFor lowercases the result to match the embedded/*.tmpl names.
func camelToSnake(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Package handlers implements the default pipeline.Handler steps:
// extraction, chunking (simple and semantic), embedding, and
// persistence.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/outpostai/memoryflow/artifact"
	"github.com/outpostai/memoryflow/extract"
	"github.com/outpostai/memoryflow/pipeline"
)

// ExtractionStepName is the default step name registered for
// Extraction.
const ExtractionStepName = "text-extraction"

// Extraction converts every queued upload into an ExtractedText
// artifact, preferring the external extractor and falling back to a
// local decode (or a synthetic stub for binary content) when the
// extractor is unavailable or rejects a file. A single file's failure
// never fails the step: only an inability to enumerate FilesToUpload
// would, and that cannot happen against the in-memory slice this
// handler is given.
type Extraction struct {
	Client *extract.Client
	Logger *slog.Logger
}

// NewExtraction builds an Extraction handler. A nil logger selects
// slog.Default().
func NewExtraction(client *extract.Client, logger *slog.Logger) *Extraction {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extraction{Client: client, Logger: logger}
}

func (h *Extraction) StepName() string { return ExtractionStepName }

func (h *Extraction) Invoke(ctx context.Context, state *pipeline.State) (pipeline.Outcome, *pipeline.State, error) {
	healthy := h.Client != nil && h.Client.Health(ctx)

	extracted := 0
	fellBack := 0
	for i, upload := range state.FilesToUpload {
		id := stepArtifactID(state, "extracted", strconv.Itoa(i), upload.FileName)
		if hasArtifact(state, id) {
			continue
		}
		file := artifact.NewFile(id, upload.FileName, int64(len(upload.Raw)), upload.ContentType, artifact.KindExtractedText)

		var markdown string
		converted := false
		if healthy {
			md, err := h.Client.Convert(ctx, upload.FileName, upload.ContentType, upload.Raw)
			if err != nil {
				h.Logger.WarnContext(ctx, "extractor rejected file, falling back", "file", upload.FileName, "error", err)
			} else {
				markdown = md
				converted = true
			}
		}
		if !converted {
			markdown = fallbackMarkdown(upload)
			fellBack++
		}

		state.Context.ExtractedText[id] = markdown
		file.Attach("extracted.txt", id, "", []byte(markdown))
		state.Files = append(state.Files, file)
		extracted++
	}

	state.FilesToUpload = nil
	state.UploadComplete = true
	state.AppendLog(ExtractionStepName, fmt.Sprintf("extracted %d file(s), %d fell back to local decode", extracted, fellBack))

	return pipeline.Success, state, nil
}

// fallbackMarkdown implements the declared-content-type fallback rule:
// textual content is decoded as UTF-8 verbatim, anything else becomes a
// synthetic markdown stub describing what could not be extracted.
func fallbackMarkdown(upload *artifact.Upload) string {
	if isTextualContentType(upload.ContentType) {
		return string(upload.Raw)
	}
	return fmt.Sprintf(
		"# %s\n\n**File Type:** %s\n**File Size:** %d bytes\n**Note:** Binary content could not be extracted.",
		upload.FileName, upload.ContentType, len(upload.Raw),
	)
}

func isTextualContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "text/"):
		return true
	case ct == "application/json", ct == "application/xml", ct == "application/javascript":
		return true
	case strings.Contains(ct, "xml"):
		return true
	default:
		return false
	}
}

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/outpostai/memoryflow/artifact"
	"github.com/outpostai/memoryflow/chunk"
	"github.com/outpostai/memoryflow/pipeline"
)

// ChunkingStepName is the step name both chunking strategies register
// under; a pipeline wires exactly one of SimpleChunking or
// SemanticChunking for this step.
const ChunkingStepName = "text-chunking"

// fallbackSampleText is substituted when an ExtractedText artifact has
// no corresponding Context entry, keeping the pipeline executable in a
// degraded mode rather than failing the step outright.
func fallbackSampleText(name string) string {
	return fmt.Sprintf("Sample text content for %s", name)
}

// stemOf strips the file extension from name, the way both chunk
// naming schemes derive their {stem} prefix.
func stemOf(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext)
}

// SimpleChunking implements pipeline.Handler using chunk.Simple.
type SimpleChunking struct {
	Config chunk.SimpleConfig
	Logger *slog.Logger
}

// NewSimpleChunking builds a SimpleChunking handler with cfg (zero
// value selects chunk.DefaultSimpleConfig).
func NewSimpleChunking(cfg chunk.SimpleConfig, logger *slog.Logger) *SimpleChunking {
	if cfg.MaxChunkSize <= 0 {
		cfg = chunk.DefaultSimpleConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SimpleChunking{Config: cfg, Logger: logger}
}

func (h *SimpleChunking) StepName() string { return ChunkingStepName }

func (h *SimpleChunking) Invoke(ctx context.Context, state *pipeline.State) (pipeline.Outcome, *pipeline.State, error) {
	produced := 0
	for _, parent := range state.ArtifactsOfKind(artifact.KindExtractedText) {
		text, ok := state.Context.ExtractedText[parent.ID]
		if !ok {
			h.Logger.WarnContext(ctx, "no extracted text for artifact, using fallback sample", "artifact", parent.ID, "name", parent.Name)
			text = fallbackSampleText(parent.Name)
		}

		chunks := chunk.Simple(text, h.Config)
		stem := stemOf(parent.Name)
		for i, c := range chunks {
			id := stepArtifactID(state, "chunk", parent.ID, strconv.Itoa(i))
			state.Context.ChunkText[id] = c.Text
			if hasArtifact(state, id) {
				continue
			}

			name := fmt.Sprintf("%s.chunk%03d.txt", stem, i)
			file := artifact.NewFile(id, name, int64(len(c.Text)), "text/plain", artifact.KindTextPartition)
			file.PartitionNumber = i
			file.SectionNumber = parent.SectionNumber
			file.Attach("chunk.txt", id, parent.ID, []byte(c.Text))

			state.Files = append(state.Files, file)
			produced++
		}
	}

	state.AppendLog(ChunkingStepName, fmt.Sprintf("produced %d partition(s) via simple chunking", produced))
	return pipeline.Success, state, nil
}

// SemanticChunking implements pipeline.Handler using chunk.Semantic.
type SemanticChunking struct {
	Config chunk.SemanticConfig
	Logger *slog.Logger
}

// NewSemanticChunking builds a SemanticChunking handler with cfg (zero
// value selects chunk.DefaultSemanticConfig).
func NewSemanticChunking(cfg chunk.SemanticConfig, logger *slog.Logger) *SemanticChunking {
	if cfg.MaxChunkSize <= 0 {
		cfg = chunk.DefaultSemanticConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SemanticChunking{Config: cfg, Logger: logger}
}

func (h *SemanticChunking) StepName() string { return ChunkingStepName }

func (h *SemanticChunking) Invoke(ctx context.Context, state *pipeline.State) (pipeline.Outcome, *pipeline.State, error) {
	produced := 0
	for _, parent := range state.ArtifactsOfKind(artifact.KindExtractedText) {
		text, ok := state.Context.ExtractedText[parent.ID]
		if !ok {
			h.Logger.WarnContext(ctx, "no extracted text for artifact, using fallback sample", "artifact", parent.ID, "name", parent.Name)
			text = fallbackSampleText(parent.Name)
		}

		chunks := chunk.Semantic(text, h.Config)
		stem := stemOf(parent.Name)
		for i, c := range chunks {
			id := stepArtifactID(state, "semantic-chunk", parent.ID, strconv.Itoa(i))

			title := c.Title
			if !h.Config.IncludeTitleContext {
				title = ""
			}
			state.Context.ChunkText[id] = c.Text
			state.Context.ChunkMetadata[id] = pipeline.ChunkMeta{
				Title:          title,
				TitleLevel:     c.TitleLevel,
				TitleHierarchy: c.TitleHierarchy,
			}
			if hasArtifact(state, id) {
				continue
			}

			name := fmt.Sprintf("%s.semantic-chunk%03d.txt", stem, i)
			file := artifact.NewFile(id, name, int64(len(c.Text)), "text/plain", artifact.KindTextPartition)
			file.PartitionNumber = i
			file.SectionNumber = parent.SectionNumber
			file.Attach("chunk.txt", id, parent.ID, []byte(c.Text))

			state.Files = append(state.Files, file)
			produced++
		}
	}

	state.AppendLog(ChunkingStepName, fmt.Sprintf("produced %d partition(s) via semantic chunking", produced))
	return pipeline.Success, state, nil
}

package handlers

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/outpostai/memoryflow/artifact"
	"github.com/outpostai/memoryflow/embedding"
	"github.com/outpostai/memoryflow/pipeline"
)

// EmbeddingStepName is the default step name registered for Embedding.
const EmbeddingStepName = "generate-embeddings"

// maxConcurrentEmbeddings bounds how many embedding calls this handler
// keeps in flight at once.
const maxConcurrentEmbeddings = 8

// Embedding generates a vector for every TextPartition artifact,
// overwriting any vector a prior attempt stored, fanning the
// per-partition calls out across a bounded worker pool.
type Embedding struct {
	Model  embedding.Model
	Logger *slog.Logger
}

// NewEmbedding builds an Embedding handler. A nil logger selects
// slog.Default().
func NewEmbedding(model embedding.Model, logger *slog.Logger) *Embedding {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedding{Model: model, Logger: logger}
}

func (h *Embedding) StepName() string { return EmbeddingStepName }

func (h *Embedding) Invoke(ctx context.Context, state *pipeline.State) (pipeline.Outcome, *pipeline.State, error) {
	partitions := state.ArtifactsOfKind(artifact.KindTextPartition)
	if len(partitions) == 0 {
		state.AppendLog(EmbeddingStepName, "no text partitions to embed")
		return pipeline.Success, state, nil
	}

	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentEmbeddings)

	for _, p := range partitions {
		p := p
		group.Go(func() error {
			text, ok := state.Context.ChunkText[p.ID]
			if !ok {
				h.Logger.WarnContext(gctx, "no chunk text for partition, using fallback sample", "artifact", p.ID, "name", p.Name)
				text = fallbackSampleText(p.Name)
			}

			vectors, err := h.Model.Embed(gctx, []string{text})
			if err != nil {
				return fmt.Errorf("embedding partition %s: %w", p.ID, err)
			}
			if len(vectors) == 0 {
				return fmt.Errorf("embedding partition %s: model returned no vector", p.ID)
			}
			vector := vectors[0]

			mu.Lock()
			state.Context.Embeddings[p.ID] = vector
			p.Attach("embedding.vec", p.ID, "", vectorBytes(vector))
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		state.AppendLog(EmbeddingStepName, fmt.Sprintf("embedding generation failed: %v", err))
		return pipeline.TransientError, state, err
	}

	state.AppendLog(EmbeddingStepName, fmt.Sprintf("generated embeddings for %d partition(s)", len(partitions)))
	return pipeline.Success, state, nil
}

// vectorBytes renders a float32 vector as raw little-endian bytes, the
// representation SHA-256'd for the embedding.vec derived-file hash.
func vectorBytes(vector []float32) []byte {
	out := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

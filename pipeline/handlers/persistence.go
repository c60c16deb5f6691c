package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/outpostai/memoryflow/artifact"
	"github.com/outpostai/memoryflow/pipeline"
	"github.com/outpostai/memoryflow/vectorstore"
)

// PersistenceStepName is the default step name registered for
// Persistence.
const PersistenceStepName = "save-records"

// defaultIndex is used when a pipeline's Index is empty.
const defaultIndex = "memory"

// Persistence writes one vectorstore.Record per embedded TextPartition
// artifact, ensuring the target collection exists with the chosen
// vector's dimensionality before upserting.
type Persistence struct {
	Store  vectorstore.Store
	Logger *slog.Logger
}

// NewPersistence builds a Persistence handler. A nil logger selects
// slog.Default().
func NewPersistence(store vectorstore.Store, logger *slog.Logger) *Persistence {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persistence{Store: store, Logger: logger}
}

func (h *Persistence) StepName() string { return PersistenceStepName }

func (h *Persistence) Invoke(ctx context.Context, state *pipeline.State) (pipeline.Outcome, *pipeline.State, error) {
	partitions := state.ArtifactsOfKind(artifact.KindTextPartition)

	embedded := lo.Filter(partitions, func(p *artifact.File, _ int) bool {
		return p.Has("embedding.vec")
	})
	if len(embedded) == 0 {
		state.AppendLog(PersistenceStepName, "no embedded partitions to persist")
		return pipeline.Success, state, nil
	}

	dimensions := 0
	for _, p := range embedded {
		if v, ok := state.Context.Embeddings[p.ID]; ok && len(v) > 0 {
			dimensions = len(v)
			break
		}
	}
	if dimensions == 0 {
		err := fmt.Errorf("no embedding vectors available to determine dimensionality")
		state.AppendLog(PersistenceStepName, err.Error())
		return pipeline.TransientError, state, err
	}

	index := state.Index
	if index == "" {
		index = defaultIndex
	}

	if err := h.Store.EnsureCollection(ctx, index, dimensions); err != nil {
		state.AppendLog(PersistenceStepName, fmt.Sprintf("ensure collection failed: %v", err))
		return pipeline.TransientError, state, err
	}

	now := time.Now().UTC()
	records := lo.Map(embedded, func(p *artifact.File, _ int) vectorstore.Record {
		return vectorstore.Record{
			ID:              p.ID,
			DocumentID:      state.DocumentID,
			ExecutionID:     state.ExecutionID,
			Index:           index,
			FileName:        p.Name,
			ArtifactType:    artifact.KindTextPartition.String(),
			Text:            state.Context.ChunkText[p.ID],
			Tags:            state.Tags,
			PartitionNumber: p.PartitionNumber,
			SectionNumber:   p.SectionNumber,
			CreatedAt:       now,
			Embedding:       state.Context.Embeddings[p.ID],
		}
	})

	if err := h.Store.Upsert(ctx, index, records); err != nil {
		state.AppendLog(PersistenceStepName, fmt.Sprintf("upsert failed: %v", err))
		return pipeline.TransientError, state, err
	}

	state.AppendLog(PersistenceStepName, fmt.Sprintf("persisted %d record(s) to %q", len(records), index))
	return pipeline.Success, state, nil
}

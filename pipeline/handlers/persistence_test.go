package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpostai/memoryflow/artifact"
	"github.com/outpostai/memoryflow/pipeline"
	"github.com/outpostai/memoryflow/vectorstore"
)

// stubStore is an in-memory vectorstore.Store stand-in for exercising
// the persistence handler without a real backend.
type stubStore struct {
	ensureErr    error
	upsertErr    error
	ensuredDims  int
	ensuredIndex string
	upserted     []vectorstore.Record
}

func (s *stubStore) EnsureCollection(ctx context.Context, index string, dimensions int) error {
	s.ensuredIndex = index
	s.ensuredDims = dimensions
	return s.ensureErr
}

func (s *stubStore) Upsert(ctx context.Context, index string, records []vectorstore.Record) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, records...)
	return nil
}

func (s *stubStore) Search(ctx context.Context, req vectorstore.SearchRequest) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func (s *stubStore) ListCollections(ctx context.Context) ([]string, error) { return nil, nil }
func (s *stubStore) Close() error                                          { return nil }

var _ vectorstore.Store = (*stubStore)(nil)

func newEmbeddedPartitionState(index string) (*pipeline.State, *artifact.File) {
	state := pipeline.New(index, nil)
	f := artifact.NewFile("p1", "doc.chunk000.txt", 10, "text/plain", artifact.KindTextPartition)
	state.Files = append(state.Files, f)
	state.Context.ChunkText[f.ID] = "some chunk text"
	state.Context.Embeddings[f.ID] = []float32{0.1, 0.2, 0.3}
	f.Attach("embedding.vec", f.ID, "", []byte{1, 2, 3})
	return state, f
}

func TestPersistenceEnsuresCollectionAndUpserts(t *testing.T) {
	store := &stubStore{}
	h := NewPersistence(store, nil)

	state, f := newEmbeddedPartitionState("memory")
	state.Tags = map[string]string{"team": "rag"}

	outcome, _, err := h.Invoke(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Success, outcome)

	assert.Equal(t, "memory", store.ensuredIndex)
	assert.Equal(t, 3, store.ensuredDims)
	require.Len(t, store.upserted, 1)
	assert.Equal(t, f.ID, store.upserted[0].ID)
	assert.Equal(t, "some chunk text", store.upserted[0].Text)
	assert.Equal(t, map[string]string{"team": "rag"}, store.upserted[0].Tags)
}

func TestPersistenceDefaultsEmptyIndex(t *testing.T) {
	store := &stubStore{}
	h := NewPersistence(store, nil)

	state, _ := newEmbeddedPartitionState("")

	_, _, err := h.Invoke(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, defaultIndex, store.ensuredIndex)
}

func TestPersistenceNoEmbeddedPartitionsIsSuccess(t *testing.T) {
	store := &stubStore{}
	h := NewPersistence(store, nil)

	state := pipeline.New("memory", nil)
	f := artifact.NewFile("p1", "doc.chunk000.txt", 10, "text/plain", artifact.KindTextPartition)
	state.Files = append(state.Files, f)

	outcome, _, err := h.Invoke(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Success, outcome)
	assert.Empty(t, store.upserted)
}

func TestPersistenceReturnsTransientErrorOnEnsureFailure(t *testing.T) {
	store := &stubStore{ensureErr: fmt.Errorf("connection refused")}
	h := NewPersistence(store, nil)

	state, _ := newEmbeddedPartitionState("memory")

	outcome, _, err := h.Invoke(context.Background(), state)
	require.Error(t, err)
	assert.Equal(t, pipeline.TransientError, outcome)
}

func TestPersistenceReturnsTransientErrorOnUpsertFailure(t *testing.T) {
	store := &stubStore{upsertErr: fmt.Errorf("write timeout")}
	h := NewPersistence(store, nil)

	state, _ := newEmbeddedPartitionState("memory")

	outcome, _, err := h.Invoke(context.Background(), state)
	require.Error(t, err)
	assert.Equal(t, pipeline.TransientError, outcome)
}

// Package vectorstore defines the collection-level API the persistence
// handler and search engine share, independent of which backend
// actually stores the vectors.
package vectorstore

import (
	"context"
	"time"

	"github.com/outpostai/memoryflow/vectorstore/filter"
)

// Record is one persisted memory row: the id equals the producing
// artifact's id, so upserting is idempotent under pipeline retry.
type Record struct {
	ID              string
	DocumentID      string
	ExecutionID     string
	Index           string
	FileName        string
	ArtifactType    string
	Text            string
	Tags            map[string]string
	PartitionNumber int
	SectionNumber   int
	CreatedAt       time.Time
	Embedding       []float32
}

// SearchRequest describes a top-k nearest-neighbour query against one
// collection.
type SearchRequest struct {
	Index     string
	Vector    []float32
	TopK      int
	Predicate filter.Predicate
}

// SearchResult pairs a stored Record with its similarity score, where
// higher means more similar. Both backends score by cosine similarity,
// which lies in [-1, 1].
type SearchResult struct {
	Record Record
	Score  float64
}

// Store is the collection API every backend implements: ensure-exists,
// batch upsert keyed by id, vector search with an optional predicate,
// and collection enumeration.
type Store interface {
	// EnsureCollection creates the named collection if it does not
	// already exist, sized for vectors of the given dimensionality. It
	// is a no-op if the collection already exists with a compatible
	// dimensionality.
	EnsureCollection(ctx context.Context, index string, dimensions int) error

	// Upsert writes records keyed by Record.ID, overwriting any
	// existing row with the same id.
	Upsert(ctx context.Context, index string, records []Record) error

	// Search returns up to req.TopK nearest neighbours to req.Vector in
	// req.Index matching req.Predicate, ranked by descending score.
	Search(ctx context.Context, req SearchRequest) ([]SearchResult, error)

	// ListCollections returns every collection name known to the store.
	ListCollections(ctx context.Context) ([]string, error)

	// Close releases any resources (connections, clients) the store
	// holds.
	Close() error
}

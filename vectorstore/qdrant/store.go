// Package qdrant is the primary vectorstore.Store backend. The schema
// is the fixed memory-record shape, not an arbitrary document/metadata
// pair, so there is no filter-expression converter, document batcher,
// or embedding client plumbed through: the persistence handler and
// search engine already did the embedding and only need puts and gets.
package qdrant

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"github.com/samber/lo"
	"google.golang.org/grpc"

	"github.com/outpostai/memoryflow/vectorstore"
	"github.com/outpostai/memoryflow/vectorstore/filter"
)

// Provider names this backend in logs and StoreInfo-style diagnostics.
const Provider = "Qdrant"

var _ vectorstore.Store = (*Store)(nil)

// Store adapts a *qdrant.Client to vectorstore.Store.
type Store struct {
	client *qdrant.Client
}

// NewStore wraps an already-configured Qdrant client.
func NewStore(client *qdrant.Client) *Store {
	return &Store{client: client}
}

// Config describes how to reach a Qdrant server when the caller does
// not hand in an already-built client.
type Config struct {
	Host        string
	Port        int
	APIKey      string
	UseTLS      bool
	GrpcOptions []grpc.DialOption
}

// NewStoreFromConfig dials Qdrant over gRPC and wraps the resulting
// client.
func NewStoreFromConfig(cfg Config) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		APIKey:      cfg.APIKey,
		UseTLS:      cfg.UseTLS,
		GrpcOptions: cfg.GrpcOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: creating client: %w", err)
	}
	return NewStore(client), nil
}

func (s *Store) EnsureCollection(ctx context.Context, index string, dimensions int) error {
	exists, err := s.client.CollectionExists(ctx, index)
	if err != nil {
		return fmt.Errorf("qdrant: checking collection %q: %w", index, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: index,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: creating collection %q: %w", index, err)
	}

	return s.createPayloadIndexes(ctx, index)
}

// createPayloadIndexes indexes the scalar fields the filter predicate
// may target as keywords and the record text for full-text matching.
// PartitionNumber, SectionNumber, and CreatedAt stay unindexed.
func (s *Store) createPayloadIndexes(ctx context.Context, index string) error {
	keyword := []string{"DocumentId", "ExecutionId", "Index", "FileName", "ArtifactType", "Tags"}
	for _, field := range keyword {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: index,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("qdrant: indexing field %q on %q: %w", field, index, err)
		}
	}

	_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: index,
		FieldName:      "Text",
		FieldType:      qdrant.FieldType_FieldTypeText.Enum(),
	})
	if err != nil {
		return fmt.Errorf("qdrant: indexing field \"Text\" on %q: %w", index, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, index string, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := lo.Map(records, func(r vectorstore.Record, _ int) *qdrant.PointStruct {
		return &qdrant.PointStruct{
			Id:      qdrant.NewID(r.ID),
			Vectors: qdrant.NewVectors(r.Embedding...),
			Payload: recordPayload(r),
		}
	})

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: index,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upserting %d point(s) to %q: %w", len(points), index, err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, req vectorstore.SearchRequest) ([]vectorstore.SearchResult, error) {
	query := &qdrant.QueryPoints{
		CollectionName: req.Index,
		Query:          qdrant.NewQuery(req.Vector...),
		Limit:          lo.ToPtr(uint64(req.TopK)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if len(req.Predicate.Conditions) > 0 {
		query.Filter = toQdrantFilter(req.Predicate)
	}

	scored, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant: querying %q: %w", req.Index, err)
	}

	results := make([]vectorstore.SearchResult, 0, len(scored))
	for _, point := range scored {
		results = append(results, vectorstore.SearchResult{
			Record: recordFromPayload(point.GetId().GetUuid(), point.GetPayload()),
			Score:  float64(point.GetScore()),
		})
	}
	return results, nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("qdrant: listing collections: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// recordPayload flattens a Record into the Qdrant payload map. Tags are
// joined into a single indexed keyword string ("k=v,k=v", keys sorted)
// rather than a nested struct. An equals filter on "Tags" matches that
// whole joined string; a filter on an individual tag key targets a
// payload field of that name, which records do not carry.
func recordPayload(r vectorstore.Record) map[string]*qdrant.Value {
	// TryValueMap never fails on the plain scalar map built here (string
	// and int64 values only), so the error is safe to discard.
	payload, _ := qdrant.TryValueMap(map[string]any{
		"DocumentId":      r.DocumentID,
		"ExecutionId":     r.ExecutionID,
		"Index":           r.Index,
		"FileName":        r.FileName,
		"ArtifactType":    r.ArtifactType,
		"Tags":            joinTags(r.Tags),
		"Text":            r.Text,
		"PartitionNumber": int64(r.PartitionNumber),
		"SectionNumber":   int64(r.SectionNumber),
		"CreatedAt":       r.CreatedAt.Format(timeLayout),
	})
	return payload
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func recordFromPayload(id string, payload map[string]*qdrant.Value) vectorstore.Record {
	r := vectorstore.Record{ID: id}
	if payload == nil {
		return r
	}
	r.DocumentID = payload["DocumentId"].GetStringValue()
	r.ExecutionID = payload["ExecutionId"].GetStringValue()
	r.Index = payload["Index"].GetStringValue()
	r.FileName = payload["FileName"].GetStringValue()
	r.ArtifactType = payload["ArtifactType"].GetStringValue()
	r.Tags = splitTags(payload["Tags"].GetStringValue())
	r.Text = payload["Text"].GetStringValue()
	r.PartitionNumber = int(payload["PartitionNumber"].GetIntegerValue())
	r.SectionNumber = int(payload["SectionNumber"].GetIntegerValue())
	return r
}

func joinTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+tags[k])
	}
	return strings.Join(parts, ",")
}

func splitTags(joined string) map[string]string {
	if joined == "" {
		return nil
	}
	tags := make(map[string]string)
	for _, part := range strings.Split(joined, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			tags[kv[0]] = kv[1]
		}
	}
	return tags
}

// toQdrantFilter AND-combines every condition in p as a keyword match,
// matching the equals-only contract filter.Predicate already enforced.
func toQdrantFilter(p filter.Predicate) *qdrant.Filter {
	conditions := make([]*qdrant.Condition, 0, len(p.Conditions))
	for _, c := range p.Conditions {
		conditions = append(conditions, qdrant.NewMatchKeyword(c.Field, c.Value))
	}
	return &qdrant.Filter{Must: conditions}
}

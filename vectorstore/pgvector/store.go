// Package pgvector is the secondary vectorstore.Store backend: Postgres
// plus the pgvector extension. One table per collection is created on
// demand (EnsureCollection), named after the index, since the
// persistence handler's schema already names "collection" as the unit
// the store keys all reads and writes by.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/outpostai/memoryflow/vectorstore"
	"github.com/outpostai/memoryflow/vectorstore/filter"
)

// Provider names this backend in logs and diagnostics.
const Provider = "Postgres/pgvector"

var _ vectorstore.Store = (*Store)(nil)

// Store adapts a *pgxpool.Pool to vectorstore.Store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an already-configured pgxpool.Pool. EnsureCollection
// enables the "vector" extension and creates each collection's table on
// demand; ListCollections finds collections by their memoryflow_ table
// prefix.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// tableName derives a safe Postgres identifier from a collection name.
// Index values come from pipeline configuration, not end-user input,
// but the check guards against accidental SQL injection via a
// misconfigured index name all the same.
func tableName(index string) (string, error) {
	if index == "" {
		return "", fmt.Errorf("pgvector: invalid collection name %q", index)
	}
	name := "memoryflow_" + index
	if !identifierRe.MatchString(name) {
		return "", fmt.Errorf("pgvector: invalid collection name %q", index)
	}
	return name, nil
}

func (s *Store) EnsureCollection(ctx context.Context, index string, dimensions int) error {
	table, err := tableName(index)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`)
	if err != nil {
		return fmt.Errorf("pgvector: enabling vector extension: %w", err)
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id text PRIMARY KEY,
			document_id text NOT NULL,
			execution_id text NOT NULL,
			index_name text NOT NULL,
			file_name text NOT NULL,
			artifact_type text NOT NULL,
			tags jsonb NOT NULL DEFAULT '{}',
			text text NOT NULL,
			partition_number integer NOT NULL,
			section_number integer NOT NULL,
			created_at timestamptz NOT NULL,
			embedding vector(%d) NOT NULL
		)`, table, dimensions)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("pgvector: creating table %q: %w", table, err)
	}

	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING ivfflat (embedding vector_cosine_ops)`, table, table)
	if _, err := s.pool.Exec(ctx, idx); err != nil {
		return fmt.Errorf("pgvector: creating vector index on %q: %w", table, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, index string, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	table, err := tableName(index)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		query := fmt.Sprintf(`
			INSERT INTO %s (id, document_id, execution_id, index_name, file_name, artifact_type, tags, text, partition_number, section_number, created_at, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				document_id = EXCLUDED.document_id,
				execution_id = EXCLUDED.execution_id,
				index_name = EXCLUDED.index_name,
				file_name = EXCLUDED.file_name,
				artifact_type = EXCLUDED.artifact_type,
				tags = EXCLUDED.tags,
				text = EXCLUDED.text,
				partition_number = EXCLUDED.partition_number,
				section_number = EXCLUDED.section_number,
				created_at = EXCLUDED.created_at,
				embedding = EXCLUDED.embedding`, table)
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		batch.Queue(query,
			r.ID, r.DocumentID, r.ExecutionID, r.Index, r.FileName, r.ArtifactType,
			tagsJSON(r.Tags), r.Text, r.PartitionNumber, r.SectionNumber, createdAt,
			pgv.NewVector(r.Embedding),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < len(records); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("pgvector: upserting record %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, req vectorstore.SearchRequest) ([]vectorstore.SearchResult, error) {
	table, err := tableName(req.Index)
	if err != nil {
		return nil, err
	}

	where, args := buildWhere(req.Predicate)
	args = append([]any{pgv.NewVector(req.Vector)}, args...)
	args = append(args, req.TopK)

	query := fmt.Sprintf(`
		SELECT id, document_id, execution_id, index_name, file_name, artifact_type, tags, text,
			partition_number, section_number, created_at,
			1 - (embedding <=> $1::vector) AS score
		FROM %s
		%s
		ORDER BY embedding <=> $1::vector
		LIMIT $%d`, table, where, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector: searching %q: %w", table, err)
	}
	defer rows.Close()

	var results []vectorstore.SearchResult
	for rows.Next() {
		var r vectorstore.Record
		var tagsRaw []byte
		var score float64
		if err := rows.Scan(
			&r.ID, &r.DocumentID, &r.ExecutionID, &r.Index, &r.FileName, &r.ArtifactType,
			&tagsRaw, &r.Text, &r.PartitionNumber, &r.SectionNumber, &r.CreatedAt, &score,
		); err != nil {
			return nil, fmt.Errorf("pgvector: scanning row: %w", err)
		}
		r.Tags = tagsFromJSON(tagsRaw)
		results = append(results, vectorstore.SearchResult{Record: r, Score: score})
	}
	return results, nil
}

// buildWhere AND-combines every predicate condition into a parameterized
// WHERE clause. Parameter placeholders start at $2 since $1 is always
// the query vector.
func buildWhere(p filter.Predicate) (string, []any) {
	if len(p.Conditions) == 0 {
		return "", nil
	}
	columns := map[string]string{
		"DocumentId":   "document_id",
		"ExecutionId":  "execution_id",
		"Index":        "index_name",
		"FileName":     "file_name",
		"ArtifactType": "artifact_type",
	}

	var clauses []string
	var args []any
	for i, c := range p.Conditions {
		column, ok := columns[c.Field]
		if !ok {
			column = "tags ->> " + pgQuoteLiteral(c.Field)
		}
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, i+2))
		args = append(args, c.Value)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// pgQuoteLiteral quotes an identifier used as a jsonb key lookup; field
// names here come from the caller's filter map, never raw SQL text.
func pgQuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename LIKE 'memoryflow_%'`)
	if err != nil {
		return nil, fmt.Errorf("pgvector: listing collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, fmt.Errorf("pgvector: scanning collection name: %w", err)
		}
		names = append(names, strings.TrimPrefix(table, "memoryflow_"))
	}
	return names, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func tagsJSON(tags map[string]string) string {
	if len(tags) == 0 {
		return "{}"
	}
	raw, _ := json.Marshal(tags)
	return string(raw)
}

func tagsFromJSON(raw []byte) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var tags map[string]string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil
	}
	return tags
}

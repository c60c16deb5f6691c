// Package search implements similarity search and grounded
// question-answering over a vectorstore.Store: embed a query, fetch
// top-k candidates, optionally rerank, and (for Ask/AskStream) stream a
// citation-backed answer from a chat model.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/outpostai/memoryflow/embedding"
	"github.com/outpostai/memoryflow/vectorstore"
	"github.com/outpostai/memoryflow/vectorstore/filter"
)

// Citation is one search result exposed to a caller.
type Citation struct {
	ID             string
	Content        string
	Source         string
	RelevanceScore float64
}

// Result is the response to one Search call.
type Result struct {
	Query   string
	Results []Citation
}

// ErrInvalidArgument is returned when index or query is empty.
var ErrInvalidArgument = errors.New("search: index and query must be non-empty")

// Engine embeds queries, searches a vectorstore.Store, and optionally
// reranks the results.
type Engine struct {
	Store    vectorstore.Store
	Model    embedding.Model
	Reranker Reranker
	Config   Config
	Logger   *slog.Logger
}

// NewEngine builds a search Engine. A nil reranker selects the no-op
// passthrough; a nil logger selects slog.Default().
func NewEngine(store vectorstore.Store, model embedding.Model, reranker Reranker, cfg Config, logger *slog.Logger) *Engine {
	if reranker == nil {
		reranker = NoopReranker{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Store: store, Model: model, Reranker: reranker, Config: cfg, Logger: logger}
}

// Search embeds query, fetches up to top-k neighbours from index
// (applying filters and minRelevance), reranks them, and returns
// Citations ordered by descending relevance. Any failure past
// validation is swallowed into an empty Result — callers distinguish
// "no knowledge" from a system error only through logs.
func (e *Engine) Search(ctx context.Context, index, query string, filters map[string]any, minRelevance float64, limit int) (Result, error) {
	if index == "" || query == "" {
		return Result{}, ErrInvalidArgument
	}

	vectors, err := e.Model.Embed(ctx, []string{query})
	if err != nil {
		e.Logger.ErrorContext(ctx, "search: embedding query failed", "error", err)
		return Result{Query: query}, nil
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return Result{Query: query}, nil
	}
	vector := vectors[0]

	if err := e.Store.EnsureCollection(ctx, index, len(vector)); err != nil {
		e.Logger.ErrorContext(ctx, "search: ensure collection failed", "index", index, "error", err)
		return Result{Query: query}, nil
	}

	top := limit
	if top <= 0 {
		top = e.Config.MaxMatchesCount
	}

	results, err := e.Store.Search(ctx, vectorstore.SearchRequest{
		Index:     index,
		Vector:    vector,
		TopK:      top,
		Predicate: filter.Translate(filters),
	})
	if err != nil {
		e.Logger.ErrorContext(ctx, "search: store search failed", "index", index, "error", err)
		return Result{Query: query}, nil
	}

	results = e.Reranker.Rerank(query, results)

	citations := make([]Citation, 0, len(results))
	for _, r := range results {
		if r.Score < minRelevance {
			continue
		}
		citations = append(citations, toCitation(r))
	}

	return Result{Query: query, Results: citations}, nil
}

func toCitation(r vectorstore.SearchResult) Citation {
	source := r.Record.FileName
	if source == "" {
		source = r.Record.DocumentID
	}
	return Citation{
		ID:             r.Record.ID,
		Content:        r.Record.Text,
		Source:         source,
		RelevanceScore: r.Score,
	}
}

// formatRelevance renders a score to the three-decimal precision the
// fact template expects.
func formatRelevance(score float64) string {
	return fmt.Sprintf("%.3f", score)
}

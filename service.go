// Package memoryflow is the library's single exported entry point: it
// wires the pipeline orchestrator, chunker, embedding/chat models,
// vector store, and prompt provider into the five operations a caller
// needs — Ingest, Search, Ask, AskStream, ListIndexes.
package memoryflow

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/outpostai/memoryflow/artifact"
	"github.com/outpostai/memoryflow/chatmodel"
	"github.com/outpostai/memoryflow/chunk"
	"github.com/outpostai/memoryflow/embedding"
	"github.com/outpostai/memoryflow/extract"
	"github.com/outpostai/memoryflow/pipeline"
	"github.com/outpostai/memoryflow/pipeline/handlers"
	"github.com/outpostai/memoryflow/prompt"
	"github.com/outpostai/memoryflow/search"
	"github.com/outpostai/memoryflow/vectorstore"
)

// ChunkerKind selects which chunking handler a Service's pipeline runs.
type ChunkerKind int

const (
	// SimpleChunker runs a size-bounded sliding window over raw text.
	SimpleChunker ChunkerKind = iota
	// SemanticChunker runs the heading-aware structural splitter.
	SemanticChunker
)

// ServiceConfig wires every collaborator a Service needs. Fields left
// zero fall back to the package defaults noted per field.
type ServiceConfig struct {
	Extractor      *extract.Client
	EmbeddingModel embedding.Model
	ChatModel      chatmodel.Model
	Store          vectorstore.Store
	Prompts        prompt.Provider // nil selects prompt.NewEmbeddedProvider()

	Chunker        ChunkerKind
	SimpleConfig   chunk.SimpleConfig   // zero selects chunk.DefaultSimpleConfig()
	SemanticConfig chunk.SemanticConfig // zero selects chunk.DefaultSemanticConfig()

	Reranker     search.Reranker // nil selects search.NoopReranker{}
	SearchConfig search.Config   // zero selects search.DefaultConfig()
	AskParams    chatmodel.Params

	MaxRetries int // <= 0 selects pipeline.DefaultMaxRetries
	Logger     *slog.Logger
}

// Service exposes the memory pipeline's ingest, search, and ask
// operations as a single composed unit.
type Service struct {
	orchestrator *pipeline.Orchestrator
	search       *search.Engine
	ask          *search.AskEngine
	store        vectorstore.Store
	chunker      ChunkerKind
	logger       *slog.Logger
}

// New builds a Service from cfg. The default step list is always
// text-extraction, text-chunking, generate-embeddings, save-records —
// one chunking handler is selected by cfg.Chunker.
func New(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prompts := cfg.Prompts
	if prompts == nil {
		prompts = prompt.NewEmbeddedProvider()
	}
	if cfg.SearchConfig == (search.Config{}) {
		cfg.SearchConfig = search.DefaultConfig()
	}

	var chunkHandler pipeline.Handler
	switch cfg.Chunker {
	case SemanticChunker:
		chunkHandler = handlers.NewSemanticChunking(cfg.SemanticConfig, logger)
	default:
		chunkHandler = handlers.NewSimpleChunking(cfg.SimpleConfig, logger)
	}

	orchestrator := pipeline.NewOrchestrator(logger,
		handlers.NewExtraction(cfg.Extractor, logger),
		chunkHandler,
		handlers.NewEmbedding(cfg.EmbeddingModel, logger),
		handlers.NewPersistence(cfg.Store, logger),
	)
	if cfg.MaxRetries > 0 {
		orchestrator = orchestrator.WithMaxRetries(cfg.MaxRetries)
	}

	searchEngine := search.NewEngine(cfg.Store, cfg.EmbeddingModel, cfg.Reranker, cfg.SearchConfig, logger)
	askEngine := search.NewAskEngine(searchEngine, cfg.ChatModel, prompts, cfg.SearchConfig, cfg.AskParams, logger)

	return &Service{
		orchestrator: orchestrator,
		search:       searchEngine,
		ask:          askEngine,
		store:        cfg.Store,
		chunker:      cfg.Chunker,
		logger:       logger,
	}
}

// Ingest runs the full extract/chunk/embed/save pipeline for uploads
// against index synchronously, returning the completed pipeline state's
// document id once every step has succeeded.
func (s *Service) Ingest(ctx context.Context, index string, uploads []*artifact.Upload) (string, error) {
	state := pipeline.New(index, uploads).
		Then(handlers.ExtractionStepName).
		Then(handlers.ChunkingStepName).
		Then(handlers.EmbeddingStepName).
		Then(handlers.PersistenceStepName)

	final, err := s.orchestrator.Run(ctx, state)
	if err != nil {
		return "", fmt.Errorf("memoryflow: ingest failed: %w", err)
	}
	return final.DocumentID, nil
}

// Search embeds query and returns the top matching citations from
// index.
func (s *Service) Search(ctx context.Context, index, query string, filters map[string]any, minRelevance float64, limit int) (search.Result, error) {
	return s.search.Search(ctx, index, query, filters, minRelevance, limit)
}

// Ask answers question against index, grounded on the top citations,
// draining the streamed response to its final state.
func (s *Service) Ask(ctx context.Context, index, question string, filters map[string]any, minRelevance float64) *search.Answer {
	return s.ask.Ask(ctx, index, question, filters, minRelevance)
}

// AskStream answers question against index as a lazy sequence of
// progressively-complete Answers.
func (s *Service) AskStream(ctx context.Context, index, question string, filters map[string]any, minRelevance float64) iter.Seq[*search.Answer] {
	return s.ask.AskStream(ctx, index, question, filters, minRelevance)
}

// ListIndexes returns every collection name known to the underlying
// vector store.
func (s *Service) ListIndexes(ctx context.Context) ([]string, error) {
	return s.store.ListCollections(ctx)
}

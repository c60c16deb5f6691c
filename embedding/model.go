// Package embedding defines the embedding-model contract the pipeline
// and search engine call against, plus an OpenAI-backed implementation.
package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Model turns one or more strings into one fixed-length float32 vector
// per input. Dimensionality is model-defined; callers learn it from the
// first vector they receive.
type Model interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIModel implements Model against the OpenAI embeddings endpoint.
type OpenAIModel struct {
	client    *openai.Client
	modelName openai.EmbeddingModel
}

// NewOpenAIModel builds an OpenAIModel. An empty modelName selects
// openai.SmallEmbedding3.
func NewOpenAIModel(apiKey, modelName string) *OpenAIModel {
	name := openai.SmallEmbedding3
	if modelName != "" {
		name = openai.EmbeddingModel(modelName)
	}
	return &OpenAIModel{
		client:    openai.NewClient(apiKey),
		modelName: name,
	}
}

func (m *OpenAIModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := m.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: m.modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: create embeddings: %w", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

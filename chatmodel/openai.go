package chatmodel

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

var _ Model = (*OpenAIModel)(nil)

// OpenAIModel implements Model against the OpenAI chat-completions
// streaming endpoint.
type OpenAIModel struct {
	client    *openai.Client
	modelName string
}

// NewOpenAIModel builds an OpenAIModel. An empty modelName selects
// openai.GPT4oMini.
func NewOpenAIModel(apiKey, modelName string) *OpenAIModel {
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	return &OpenAIModel{
		client:    openai.NewClient(apiKey),
		modelName: modelName,
	}
}

func (m *OpenAIModel) Stream(ctx context.Context, messages []Message, params Params, yield func(Chunk) error) error {
	req := openai.ChatCompletionRequest{
		Model:            m.modelName,
		Messages:         toOpenAIMessages(messages),
		Stream:           true,
		StreamOptions:    &openai.StreamOptions{IncludeUsage: true},
		Temperature:      params.Temperature,
		TopP:             params.TopP,
		PresencePenalty:  params.PresencePenalty,
		FrequencyPenalty: params.FrequencyPenalty,
		Stop:             params.StopSequences,
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = params.MaxTokens
	}

	stream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("chatmodel: create stream: %w", err)
	}
	defer func() { _ = stream.Close() }()

	for {
		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("chatmodel: receiving stream chunk: %w", err)
		}

		chunk := Chunk{}
		if len(resp.Choices) > 0 {
			chunk.ContentDelta = resp.Choices[0].Delta.Content
		}
		if resp.Usage != nil {
			chunk.Usage = &Usage{
				InputTokens:  resp.Usage.PromptTokens,
				OutputTokens: resp.Usage.CompletionTokens,
				TotalTokens:  resp.Usage.TotalTokens,
				Model:        resp.Model,
			}
		}

		if chunk.ContentDelta == "" && chunk.Usage == nil {
			continue
		}
		if err := yield(chunk); err != nil {
			return err
		}
	}
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

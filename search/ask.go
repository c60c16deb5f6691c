package search

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"

	"github.com/outpostai/memoryflow/chatmodel"
	"github.com/outpostai/memoryflow/prompt"
)

// noResponseMessage is the terminal text yielded when the chat stream
// produced no content at all.
const noResponseMessage = "No response received from chat completion service."

// errStopIteration signals that AskStream's caller stopped consuming
// early (range loop break); it is never surfaced to callers.
var errStopIteration = errors.New("search: ask stream stopped")

// Answer is one yielded step of an AskStream sequence: the accumulated
// text so far, whether it already constitutes a usable answer, the
// grounding citations (attached on the first yield only), and the
// latest token-usage snapshot if the provider reported one. Usage that
// arrives in a frame after the last content is attached to the last
// Answer already yielded.
type Answer struct {
	Question   string
	Result     string
	HasResult  bool
	Sources    []Citation
	TokenUsage *chatmodel.Usage
}

// AskEngine drives the grounded question-answering flow: search for
// supporting citations, build a facts-grounded prompt, and stream a
// chat completion back as a sequence of progressively-complete Answers.
type AskEngine struct {
	Search  *Engine
	Chat    chatmodel.Model
	Prompts prompt.Provider
	Config  Config
	Params  chatmodel.Params
	Logger  *slog.Logger
}

// NewAskEngine builds an AskEngine. A nil logger selects slog.Default().
func NewAskEngine(search *Engine, chat chatmodel.Model, prompts prompt.Provider, cfg Config, params chatmodel.Params, logger *slog.Logger) *AskEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &AskEngine{Search: search, Chat: chat, Prompts: prompts, Config: cfg, Params: params, Logger: logger}
}

// AskStream returns a lazy sequence of progressively-complete Answers.
// Ranging over it until it stops naturally drains the whole chat
// stream; breaking early stops the underlying request.
func (e *AskEngine) AskStream(ctx context.Context, index, question string, filters map[string]any, minRelevance float64) iter.Seq[*Answer] {
	return func(yield func(*Answer) bool) {
		result, err := e.Search.Search(ctx, index, question, filters, minRelevance, e.Config.MaxMatchesCount)
		if err != nil || len(result.Results) == 0 {
			yield(&Answer{Question: question, Result: e.Config.EmptyAnswer, HasResult: false, Sources: nil})
			return
		}

		tmpl, err := e.Prompts.ReadPrompt(prompt.AskWithFacts)
		if err != nil {
			e.Logger.ErrorContext(ctx, "ask: reading prompt failed", "error", err)
			yield(&Answer{Question: question, Result: e.Config.EmptyAnswer, HasResult: false, Sources: nil})
			return
		}

		facts := e.buildFacts(result.Results)
		text := prompt.Substitute(tmpl, map[string]string{
			"facts":    facts,
			"input":    question,
			"notFound": e.Config.EmptyAnswer,
		})

		sources := make([]Citation, len(result.Results))
		copy(sources, result.Results)

		params := e.Params
		if e.Config.MaxAskPromptSize > 0 {
			params.MaxTokens = e.Config.AnswerTokens
		}

		messages := []chatmodel.Message{{Role: chatmodel.RoleUser, Content: text}}

		var accumulated strings.Builder
		var lastUsage *chatmodel.Usage
		var lastAnswer *Answer
		first := true
		stopped := false

		streamErr := e.Chat.Stream(ctx, messages, params, func(c chatmodel.Chunk) error {
			if c.Usage != nil {
				lastUsage = c.Usage
				if lastAnswer != nil {
					lastAnswer.TokenUsage = lastUsage
				}
			}
			if c.ContentDelta == "" {
				return nil
			}
			accumulated.WriteString(c.ContentDelta)

			answerText := accumulated.String()
			answer := &Answer{
				Question:   question,
				Result:     answerText,
				HasResult:  answerText != "" && !strings.EqualFold(answerText, e.Config.EmptyAnswer),
				TokenUsage: lastUsage,
			}
			if first {
				answer.Sources = sources
				first = false
			}
			lastAnswer = answer
			if !yield(answer) {
				stopped = true
				return errStopIteration
			}
			return nil
		})
		if stopped {
			return
		}
		if streamErr != nil {
			e.Logger.ErrorContext(ctx, "ask: chat stream failed", "error", streamErr)
		}

		if accumulated.Len() == 0 {
			yield(&Answer{
				Question:   question,
				Result:     noResponseMessage,
				HasResult:  false,
				Sources:    sources,
				TokenUsage: lastUsage,
			})
		}
	}
}

// Ask drains AskStream to completion, returning the last yielded answer
// with the sources captured from the first chunk merged back in.
func (e *AskEngine) Ask(ctx context.Context, index, question string, filters map[string]any, minRelevance float64) *Answer {
	var last *Answer
	var firstSources []Citation

	for answer := range e.AskStream(ctx, index, question, filters, minRelevance) {
		if firstSources == nil && len(answer.Sources) > 0 {
			firstSources = answer.Sources
		}
		last = answer
	}

	if last == nil {
		return &Answer{Question: question, Result: e.Config.EmptyAnswer, HasResult: false}
	}
	if len(last.Sources) == 0 {
		last.Sources = firstSources
	}
	return last
}

func (e *AskEngine) buildFacts(citations []Citation) string {
	parts := make([]string, 0, len(citations))
	for _, c := range citations {
		parts = append(parts, prompt.Substitute(e.Config.FactTemplate, map[string]string{
			"content":   c.Content,
			"source":    c.Source,
			"relevance": formatRelevance(c.RelevanceScore),
			"memoryId":  c.ID,
		}))
	}
	return strings.Join(parts, "\n\n")
}

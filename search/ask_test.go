package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpostai/memoryflow/chatmodel"
	"github.com/outpostai/memoryflow/vectorstore"
)

type scriptedChatModel struct {
	chunks []chatmodel.Chunk
	err    error
}

func (m *scriptedChatModel) Stream(ctx context.Context, messages []chatmodel.Message, params chatmodel.Params, yield func(chatmodel.Chunk) error) error {
	for _, c := range m.chunks {
		if err := yield(c); err != nil {
			return err
		}
	}
	return m.err
}

type fakePromptProvider struct {
	text string
	err  error
}

func (p *fakePromptProvider) ReadPrompt(name string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.text, nil
}

const testPromptTemplate = "FACTS:\n{{$facts}}\nQ:{{$input}}\nN:{{$notFound}}"

func newAskFixture(chat chatmodel.Model, searchResults []vectorstore.SearchResult) *AskEngine {
	store := &fakeStore{searchResult: searchResults}
	model := &fakeEmbeddingModel{vectors: [][]float32{{0.1}}}
	engine := NewEngine(store, model, nil, DefaultConfig(), nil)
	return NewAskEngine(engine, chat, &fakePromptProvider{text: testPromptTemplate}, DefaultConfig(), chatmodel.Params{}, nil)
}

func TestAskStreamYieldsAccumulatingAnswers(t *testing.T) {
	chat := &scriptedChatModel{chunks: []chatmodel.Chunk{
		{ContentDelta: "The "},
		{ContentDelta: "answer."},
		{Usage: &chatmodel.Usage{InputTokens: 5, OutputTokens: 2, TotalTokens: 7}},
	}}
	ask := newAskFixture(chat, []vectorstore.SearchResult{
		{Record: vectorstore.Record{ID: "a", Text: "alpha", FileName: "a.txt"}, Score: 0.8},
	})

	var answers []*Answer
	for a := range ask.AskStream(context.Background(), "memory", "what is it?", nil, 0) {
		answers = append(answers, a)
	}

	require.Len(t, answers, 2)
	assert.Equal(t, "The ", answers[0].Result)
	require.Len(t, answers[0].Sources, 1)
	assert.Equal(t, "The answer.", answers[1].Result)
	assert.True(t, answers[1].HasResult)
	require.NotNil(t, answers[1].TokenUsage)
	assert.Equal(t, 7, answers[1].TokenUsage.TotalTokens)
}

func TestAskStreamEmptySearchYieldsTerminalAnswer(t *testing.T) {
	chat := &scriptedChatModel{}
	ask := newAskFixture(chat, nil)

	var answers []*Answer
	for a := range ask.AskStream(context.Background(), "memory", "anything?", nil, 0) {
		answers = append(answers, a)
	}

	require.Len(t, answers, 1)
	assert.False(t, answers[0].HasResult)
	assert.Equal(t, DefaultConfig().EmptyAnswer, answers[0].Result)
	assert.Empty(t, answers[0].Sources)
}

func TestAskStreamNoContentYieldsNoResponseMessage(t *testing.T) {
	chat := &scriptedChatModel{} // no chunks at all
	ask := newAskFixture(chat, []vectorstore.SearchResult{
		{Record: vectorstore.Record{ID: "a", Text: "alpha", FileName: "a.txt"}, Score: 0.8},
	})

	var answers []*Answer
	for a := range ask.AskStream(context.Background(), "memory", "q", nil, 0) {
		answers = append(answers, a)
	}

	require.Len(t, answers, 1)
	assert.Equal(t, noResponseMessage, answers[0].Result)
	assert.False(t, answers[0].HasResult)
	assert.Len(t, answers[0].Sources, 1)
}

func TestAskStreamStopsEarlyWhenCallerBreaks(t *testing.T) {
	chat := &scriptedChatModel{chunks: []chatmodel.Chunk{
		{ContentDelta: "a"}, {ContentDelta: "b"}, {ContentDelta: "c"},
	}}
	ask := newAskFixture(chat, []vectorstore.SearchResult{
		{Record: vectorstore.Record{ID: "a", Text: "alpha", FileName: "a.txt"}, Score: 0.8},
	})

	count := 0
	for range ask.AskStream(context.Background(), "memory", "q", nil, 0) {
		count++
		if count == 1 {
			break
		}
	}
	assert.Equal(t, 1, count)
}

func TestAskDrainsToLastAnswerAndMergesSources(t *testing.T) {
	chat := &scriptedChatModel{chunks: []chatmodel.Chunk{
		{ContentDelta: "final answer"},
	}}
	ask := newAskFixture(chat, []vectorstore.SearchResult{
		{Record: vectorstore.Record{ID: "a", Text: "alpha", FileName: "a.txt"}, Score: 0.8},
	})

	answer := ask.Ask(context.Background(), "memory", "q", nil, 0)
	require.NotNil(t, answer)
	assert.Equal(t, "final answer", answer.Result)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "a", answer.Sources[0].ID)
}

func TestAskStreamHandlesPromptProviderError(t *testing.T) {
	chat := &scriptedChatModel{}
	store := &fakeStore{searchResult: []vectorstore.SearchResult{
		{Record: vectorstore.Record{ID: "a", Text: "alpha"}, Score: 0.8},
	}}
	model := &fakeEmbeddingModel{vectors: [][]float32{{0.1}}}
	engine := NewEngine(store, model, nil, DefaultConfig(), nil)
	ask := NewAskEngine(engine, chat, &fakePromptProvider{err: assertErrPrompt}, DefaultConfig(), chatmodel.Params{}, nil)

	var answers []*Answer
	for a := range ask.AskStream(context.Background(), "memory", "q", nil, 0) {
		answers = append(answers, a)
	}
	require.Len(t, answers, 1)
	assert.False(t, answers[0].HasResult)
}

type promptErr string

func (e promptErr) Error() string { return string(e) }

var assertErrPrompt = promptErr("not found")

// Package chatmodel defines the chat-completion contract the ask engine
// drives, plus an OpenAI-backed streaming implementation.
package chatmodel

import "context"

// Role identifies the speaker of a chat turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a chat history.
type Message struct {
	Role    Role
	Content string
}

// Params carries the execution parameters a caller may tune for one
// request. A zero value means "use the provider's default" for every
// field except MaxTokens, which is omitted from the request when it is
// zero.
type Params struct {
	Temperature      float32
	TopP             float32
	PresencePenalty  float32
	FrequencyPenalty float32
	StopSequences    []string
	MaxTokens        int
}

// Usage is a normalized token-accounting snapshot. Providers report this
// under their own field names; each adapter is responsible for mapping
// its wire type into this shape rather than exposing it to callers.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Model        string
}

// Chunk is one piece of a streamed completion: accumulated text is the
// caller's job, not the model's — a Chunk carries only the incremental
// content plus usage if the provider attached it to this particular
// frame.
type Chunk struct {
	ContentDelta string
	Usage        *Usage
}

// Model streams a chat completion for the given history and parameters.
// yield is called once per chunk until the stream ends; returning a
// non-nil error from it stops iteration early. Implementers
// must close any underlying connection before returning.
type Model interface {
	Stream(ctx context.Context, messages []Message, params Params, yield func(Chunk) error) error
}

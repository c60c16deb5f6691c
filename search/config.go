package search

// Config holds the tunables the search and ask engines draw on. These
// are caller-supplied, not loaded from the environment (configuration
// loading is out of scope for this library).
type Config struct {
	// MaxMatchesCount is the top-k used when a caller passes limit <= 0.
	MaxMatchesCount int

	// FactTemplate renders one citation into the block of "facts" the
	// ask prompt is grounded on. Supports {{$content}}, {{$source}},
	// {{$relevance}}, {{$memoryId}}.
	FactTemplate string

	// AnswerTokens is the max_tokens sent with the chat request when
	// MaxAskPromptSize > 0.
	AnswerTokens int

	// MaxAskPromptSize gates whether AnswerTokens is applied at all;
	// a non-positive value means the chat model's own default applies.
	MaxAskPromptSize int

	// EmptyAnswer is both the literal text substituted for
	// {{$notFound}} and the sentinel a streamed answer is compared
	// against (case-insensitively) to decide HasResult.
	EmptyAnswer string

	// RerankerWeight is a lexical-versus-vector blend weight carried
	// with the rest of the tuning. Engine and AskEngine do not read it; a
	// LexicalReranker blends with its own Weight field.
	RerankerWeight float64
}

// DefaultConfig returns the engine's out-of-the-box tuning.
func DefaultConfig() Config {
	return Config{
		MaxMatchesCount:  5,
		FactTemplate:     "Content: {{$content}}\nSource: {{$source}}\nRelevance: {{$relevance}}\nID: {{$memoryId}}",
		AnswerTokens:     512,
		MaxAskPromptSize: 4000,
		EmptyAnswer:      "I don't have enough information to answer that question.",
		RerankerWeight:   0.5,
	}
}

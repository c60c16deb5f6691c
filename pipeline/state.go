package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/outpostai/memoryflow/artifact"
)

// LogEntry is one line in a pipeline's run log.
type LogEntry struct {
	Time   time.Time
	Source string
	Text   string
}

// State is the mutable record threaded through every step of one
// ingestion run. A single State value is owned by exactly one executing
// task at a time; concurrent mutation from multiple
// goroutines is not a supported mode.
type State struct {
	Index       string
	DocumentID  string
	ExecutionID string

	Steps          []string
	RemainingSteps []string
	CompletedSteps []string

	Tags     map[string]string
	Metadata map[string]any

	FilesToUpload []*artifact.Upload
	Files         []*artifact.File

	Context *Context

	CreatedAt  time.Time
	LastUpdate time.Time

	Complete       bool
	UploadComplete bool

	Log []LogEntry
}

// New creates a pipeline state for a fresh ingestion run against index.
// DocumentID and ExecutionID are generated once here and never change
// afterwards.
func New(index string, uploads []*artifact.Upload) *State {
	now := time.Now()
	return &State{
		Index:         index,
		DocumentID:    uuid.NewString(),
		ExecutionID:   uuid.NewString(),
		Tags:          make(map[string]string),
		Metadata:      make(map[string]any),
		FilesToUpload: uploads,
		Files:         make([]*artifact.File, 0),
		Context:       NewContext(),
		CreatedAt:     now,
		LastUpdate:    now,
	}
}

// Then appends stepName to both Steps and RemainingSteps. Call it for
// every step the caller wants the orchestrator to run, in order.
func (s *State) Then(stepName string) *State {
	s.Steps = append(s.Steps, stepName)
	s.RemainingSteps = append(s.RemainingSteps, stepName)
	return s
}

// Touch updates LastUpdate to now.
func (s *State) Touch() {
	s.LastUpdate = time.Now()
}

// AppendLog appends a log entry and touches the state. Named AppendLog
// rather than Log to avoid colliding with the logging facility handlers
// receive separately.
func (s *State) AppendLog(source, text string) {
	s.Log = append(s.Log, LogEntry{
		Time:   time.Now(),
		Source: source,
		Text:   text,
	})
	s.Touch()
}

// completeStep moves stepName from the head of RemainingSteps to the
// tail of CompletedSteps. It is the only way RemainingSteps shrinks,
// preserving the invariant Steps = CompletedSteps ++ RemainingSteps.
func (s *State) completeStep(stepName string) {
	s.CompletedSteps = append(s.CompletedSteps, stepName)
	if len(s.RemainingSteps) > 0 && s.RemainingSteps[0] == stepName {
		s.RemainingSteps = s.RemainingSteps[1:]
	}
}

// ArtifactsOfKind returns every File of the given kind, in production
// order.
func (s *State) ArtifactsOfKind(kind artifact.Kind) []*artifact.File {
	out := make([]*artifact.File, 0, len(s.Files))
	for _, f := range s.Files {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

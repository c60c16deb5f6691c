package handlers

import (
	"strings"

	"github.com/google/uuid"

	"github.com/outpostai/memoryflow/pipeline"
)

// stepArtifactID derives a stable artifact id from the pipeline's
// execution id and a step-local discriminator. Re-running a step against
// the same state assigns the same identifier sequence it did the first
// time, which is what makes handler retries and store upserts converge.
func stepArtifactID(state *pipeline.State, parts ...string) string {
	name := state.ExecutionID + "/" + strings.Join(parts, "/")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// hasArtifact reports whether state already carries a file with id, so a
// retried step can skip artifacts a prior attempt produced instead of
// appending duplicates.
func hasArtifact(state *pipeline.State, id string) bool {
	for _, f := range state.Files {
		if f.ID == id {
			return true
		}
	}
	return false
}

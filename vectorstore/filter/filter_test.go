package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateAppliesAliases(t *testing.T) {
	p := Translate(map[string]any{
		"documentId":  "doc-1",
		"executionId": "exec-1",
		"index":       "memory",
		"fileName":    "report.pdf",
	})

	byField := make(map[string]string)
	for _, c := range p.Conditions {
		byField[c.Field] = c.Value
	}
	assert.Equal(t, "doc-1", byField["DocumentId"])
	assert.Equal(t, "exec-1", byField["ExecutionId"])
	assert.Equal(t, "memory", byField["Index"])
	assert.Equal(t, "report.pdf", byField["FileName"])
}

func TestTranslatePassesUnknownFieldsThrough(t *testing.T) {
	p := Translate(map[string]any{"artifactType": "TextPartition"})
	assert.Equal(t, []Condition{{Field: "artifactType", Value: "TextPartition"}}, p.Conditions)
}

func TestTranslateCoercesNonStringValues(t *testing.T) {
	p := Translate(map[string]any{"partitionNumber": 3})
	assert.Equal(t, []Condition{{Field: "partitionNumber", Value: "3"}}, p.Conditions)
}

func TestTranslateDropsUncoercibleValues(t *testing.T) {
	p := Translate(map[string]any{
		"index":    "memory",
		"metadata": map[string]any{"nested": true},
	})
	assert.Len(t, p.Conditions, 1)
	assert.Equal(t, "Index", p.Conditions[0].Field)
}

func TestTranslateEmptyFiltersYieldsEmptyPredicate(t *testing.T) {
	p := Translate(nil)
	assert.Empty(t, p.Conditions)
}

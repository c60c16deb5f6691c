package qdrant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpostai/memoryflow/vectorstore"
	"github.com/outpostai/memoryflow/vectorstore/filter"
)

func TestRecordPayloadRoundTrip(t *testing.T) {
	record := vectorstore.Record{
		ID:              "a1",
		DocumentID:      "doc-1",
		ExecutionID:     "exec-1",
		Index:           "memory",
		FileName:        "report.chunk000.txt",
		ArtifactType:    "TextPartition",
		Text:            "chunk body text",
		Tags:            map[string]string{"team": "rag", "env": "prod"},
		PartitionNumber: 3,
		SectionNumber:   1,
		CreatedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	payload := recordPayload(record)
	require.NotNil(t, payload)

	got := recordFromPayload("a1", payload)
	assert.Equal(t, record.DocumentID, got.DocumentID)
	assert.Equal(t, record.ExecutionID, got.ExecutionID)
	assert.Equal(t, record.Index, got.Index)
	assert.Equal(t, record.FileName, got.FileName)
	assert.Equal(t, record.ArtifactType, got.ArtifactType)
	assert.Equal(t, record.Text, got.Text)
	assert.Equal(t, record.Tags, got.Tags)
	assert.Equal(t, record.PartitionNumber, got.PartitionNumber)
	assert.Equal(t, record.SectionNumber, got.SectionNumber)
}

func TestRecordFromPayloadNilPayload(t *testing.T) {
	got := recordFromPayload("a1", nil)
	assert.Equal(t, "a1", got.ID)
	assert.Empty(t, got.DocumentID)
}

func TestJoinTagsIsDeterministic(t *testing.T) {
	tags := map[string]string{"b": "2", "a": "1", "c": "3"}
	assert.Equal(t, "a=1,b=2,c=3", joinTags(tags))
	assert.Equal(t, "", joinTags(nil))
}

func TestSplitTagsInvertsJoin(t *testing.T) {
	tags := map[string]string{"team": "rag", "env": "prod"}
	assert.Equal(t, tags, splitTags(joinTags(tags)))
	assert.Nil(t, splitTags(""))
}

func TestToQdrantFilterCombinesConditionsAsMust(t *testing.T) {
	p := filter.Predicate{Conditions: []filter.Condition{
		{Field: "DocumentId", Value: "doc-1"},
		{Field: "Index", Value: "memory"},
	}}

	f := toQdrantFilter(p)
	require.NotNil(t, f)
	assert.Len(t, f.Must, 2)
	assert.Empty(t, f.Should)
	assert.Empty(t, f.MustNot)
}

// Package chunk implements the two text-partitioning strategies the
// ingestion pipeline can use to split extracted document text into
// bounded partitions: a fixed-window Simple chunker and a
// heading-aware Semantic chunker. Both are pure functions of a text
// string and a config value; neither touches the pipeline or artifact
// types, so they are exercised directly by table tests and adapted into
// artifacts by the pipeline/handlers package.
package chunk

// Chunk is one partition produced by either chunker. Title, TitleLevel,
// and TitleHierarchy are populated by the Semantic chunker only; the
// Simple chunker leaves them zero-valued.
type Chunk struct {
	Text           string
	Title          string
	TitleLevel     int
	TitleHierarchy []string
}

package pipeline

// ChunkMeta is the chunk-metadata side-channel entry the semantic chunker
// attaches per partition, keyed by the partition's artifact id in
// Context.ChunkMetadata.
type ChunkMeta struct {
	Title          string
	TitleLevel     int
	TitleHierarchy []string
}

// Context is the side-band bus that carries heavy per-artifact payloads
// through a pipeline run without copying them into artifact.File values.
// It replaces the conventional string-keyed ContextArguments map with a
// typed struct of parallel maps, one per payload kind, each keyed by
// artifact id — no runtime type assertions are needed to read a value
// back out.
type Context struct {
	ExtractedText map[string]string
	ChunkText     map[string]string
	ChunkMetadata map[string]ChunkMeta
	Embeddings    map[string][]float32
}

// NewContext returns a Context with all sub-maps initialized.
func NewContext() *Context {
	return &Context{
		ExtractedText: make(map[string]string),
		ChunkText:     make(map[string]string),
		ChunkMetadata: make(map[string]ChunkMeta),
		Embeddings:    make(map[string][]float32),
	}
}

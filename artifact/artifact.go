// Package artifact defines the file-like records produced and consumed by
// the ingestion pipeline: the raw upload the caller hands in, and the
// derived files (extracted text, chunks, embedding carriers) the pipeline
// produces as it processes that upload.
package artifact

import "crypto/sha256"

// Kind identifies what stage of the pipeline produced a File.
type Kind int

const (
	KindUndefined Kind = iota
	KindExtractedText
	KindTextPartition
	KindTextEmbeddingVector
	KindSyntheticData
	KindExtractedContent
)

func (k Kind) String() string {
	switch k {
	case KindExtractedText:
		return "ExtractedText"
	case KindTextPartition:
		return "TextPartition"
	case KindTextEmbeddingVector:
		return "TextEmbeddingVector"
	case KindSyntheticData:
		return "SyntheticData"
	case KindExtractedContent:
		return "ExtractedContent"
	default:
		return "Undefined"
	}
}

// DerivedFile records a byproduct attached to a File: a label (e.g.
// "extracted.txt", "chunk.txt", "embedding.vec"), the artifact it
// descends from, and a content hash for idempotence checks.
type DerivedFile struct {
	Label             string
	ParentArtifactID  string
	SourcePartitionID string
	ContentSHA256     [sha256.Size]byte
}

// File is a node produced during the pipeline run: extracted text, a
// chunk of that text, or an embedding-bearing partition. Files are
// append-only — the pipeline never removes or mutates one after it is
// produced, only attaches further DerivedFiles to it.
type File struct {
	ID              string
	Name            string
	Size            int64
	ContentType     string
	Kind            Kind
	PartitionNumber int
	SectionNumber   int
	DerivedFiles    map[string]DerivedFile
}

// NewFile constructs a File with an empty DerivedFiles map ready for
// attachment.
func NewFile(id, name string, size int64, contentType string, kind Kind) *File {
	return &File{
		ID:           id,
		Name:         name,
		Size:         size,
		ContentType:  contentType,
		Kind:         kind,
		DerivedFiles: make(map[string]DerivedFile),
	}
}

// Attach records a derived file under the given label, computing its
// content hash from the raw bytes supplied.
func (f *File) Attach(label, parentArtifactID, sourcePartitionID string, content []byte) {
	f.DerivedFiles[label] = DerivedFile{
		Label:             label,
		ParentArtifactID:  parentArtifactID,
		SourcePartitionID: sourcePartitionID,
		ContentSHA256:     sha256.Sum256(content),
	}
}

// Has reports whether the artifact carries a derived file under label.
func (f *File) Has(label string) bool {
	_, ok := f.DerivedFiles[label]
	return ok
}

// Upload is the immutable input handed to the extraction handler: raw
// bytes plus the name and content type the caller declared for them.
type Upload struct {
	FileName    string
	Raw         []byte
	ContentType string
}

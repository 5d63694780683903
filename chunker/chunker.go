package chunker

// MetaChunkIndex carries the position of a chunk within its source document.
const MetaChunkIndex = "chunk_index"

type Chunk struct {
	Text     string
	Metadata map[string]any
}

type Chunker interface {
	Split(text string, metadata map[string]any) ([]Chunk, error)
}

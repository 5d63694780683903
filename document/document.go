package document

import "errors"

// Metadata keys attached to every loaded document and carried through
// chunking into the vector index.
const (
	MetaSourceID   = "source_id"
	MetaSourceName = "source_name"
	MetaSourceType = "source_type"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyDocument     = errors.New("document has no extractable text")
)

type Document struct {
	Content  string
	Metadata map[string]any
}

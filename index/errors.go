package index

// EmbeddingError reports that the embedding provider was unreachable or
// returned a malformed vector. The batch it aborted was not committed.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return "embedding: " + e.Err.Error()
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

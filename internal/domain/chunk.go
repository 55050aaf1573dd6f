package domain

// Chunk is a bounded slice of a source document stored with its embedding vector.
// Immutable once written; the corpus only grows.
type Chunk struct {
	SourceFile string
	Text       string
	Vector     []float32
}

// RetrievedChunk is a chunk returned by a nearest-neighbor query together with
// its vector distance to the query (smaller = more similar).
type RetrievedChunk struct {
	Chunk
	Distance float64
}

// Package chunk persists document chunks and answers nearest-neighbor queries.
package chunk

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aldermoor/braindex/internal/db"
	"github.com/aldermoor/braindex/internal/domain"
)

const (
	keyPrefix = "braindex:chunk:"
	indexName = "braindex:chunks:idx"
)

// store is the consumer interface for the chunk corpus (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig carries tuning parameters for the vector index.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the Chunk Store over an FT-capable hash store.
type Repo struct {
	store store
	dim   int
	hnsw  HNSWConfig
}

// New creates a chunk repository for vectors of the given dimension.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// WithHNSW sets HNSW index tuning parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the corpus index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     indexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "source_file", Type: db.IndexFieldTag},
			{Name: "chunk_text", Type: db.IndexFieldText},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Insert writes one chunk under a fresh opaque key. Chunks are immutable and
// never deduplicated; re-ingesting a document grows the corpus.
func (r *Repo) Insert(ctx context.Context, c domain.Chunk) error {
	if len(c.Vector) != r.dim {
		return fmt.Errorf("chunk vector has dim %d, index expects %d: %w",
			len(c.Vector), r.dim, domain.ErrVectorDimMismatch)
	}

	key := keyPrefix + uuid.NewString()
	if err := r.store.HSet(ctx, key, buildHashFields(c)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Nearest returns up to k chunks ordered by ascending vector distance across
// the whole corpus. An empty corpus yields an empty slice, not an error.
func (r *Repo) Nearest(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	q := &db.KNNQuery{
		IndexName:    indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"source_file", "chunk_text"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	out := make([]domain.RetrievedChunk, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		out = append(out, parseEntry(entry))
	}
	return out, nil
}

// Count returns the number of chunks in the corpus.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName, "*")
	if err != nil {
		return 0, fmt.Errorf("search count: %w", err)
	}
	return n, nil
}

// Package memory defines the vector memory store collaborator interface
// consumed by the workflow engine's RetrieveMemories decision (spec §6.2).
// It is an external collaborator: this package defines the contract only;
// no vector index or embedding backend is implemented here (spec §1
// non-goals exclude the on-disk schema of the memory vector index).
package memory

import "context"

// Record is a single stored memory entry.
type Record struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]any
}

// Match pairs a Record with its similarity score against a query embedding.
type Match struct {
	Record     Record
	Similarity float64
}

// Store is the vector insert/search interface the engine's RetrieveMemories
// decision consults. Implementations may be backed by any vector index;
// the engine treats results as opaque payloads.
type Store interface {
	Initialize(ctx context.Context) error
	Store(ctx context.Context, content string, embedding []float32, metadata map[string]any) (string, error)
	Get(ctx context.Context, id string) (Record, error)
	// Search returns the top k matches with similarity >= minSimilarity,
	// in descending similarity order with a stable tie-break by id.
	Search(ctx context.Context, queryEmbedding []float32, k int, minSimilarity float64) ([]Match, error)
	Update(ctx context.Context, id string, metadata map[string]any) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (Stats, error)
}

// Stats summarizes store occupancy for observability.
type Stats struct {
	RecordCount int
	Dimensions  int
}

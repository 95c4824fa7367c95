package memory

import (
	"context"
	"fmt"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/repository"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/types"
)

// PostgresBackend stores learner facts in PostgreSQL with pgvector
// similarity search. Facts are embedded over their tagged rendering
// ("[category] [owner:id] text") so semantically similar queries also match
// on category wording.
type PostgresBackend struct {
	repo      *repository.MemoryRepo
	embedder  Embedder
	threshold float64
}

// NewPostgresBackend creates the PostgreSQL Backend implementation.
func NewPostgresBackend(repo *repository.MemoryRepo, embedder Embedder, threshold float64) *PostgresBackend {
	return &PostgresBackend{
		repo:      repo,
		embedder:  embedder,
		threshold: threshold,
	}
}

// Add embeds and inserts one fact.
func (b *PostgresBackend) Add(ctx context.Context, owner string, category types.Category, content string) error {
	tagged := fmt.Sprintf("[%s] [owner:%s] %s", category, owner, content)
	embedding, err := b.embedder.EmbedDocument(ctx, tagged)
	if err != nil {
		return fmt.Errorf("failed to embed memory: %w", err)
	}
	return b.repo.AddMemory(ctx, types.MemoryRecord{
		OwnerID:   owner,
		Category:  category,
		Content:   content,
		Embedding: embedding,
	})
}

// Search returns the owner's facts closest to the query, rendered as
// "[category] text" lines.
func (b *PostgresBackend) Search(ctx context.Context, owner, query string, limit int) ([]string, error) {
	embedding, err := b.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	hits, err := b.repo.SearchSimilar(ctx, owner, embedding, limit, b.threshold)
	if err != nil {
		return nil, err
	}
	results := make([]string, 0, len(hits))
	for _, hit := range hits {
		results = append(results, fmt.Sprintf("[%s] %s", hit.Category, hit.Content))
	}
	return results, nil
}

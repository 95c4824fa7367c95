package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/types"
)

// memoryModel maps to the learner_memories table.
type memoryModel struct {
	ID       int
	OwnerID  string
	Category string
	Content  string
	// Embedding stores the vector representation for similarity search.
	Embedding *pgvector.Vector `gorm:"type:vector"`
	CreatedAt time.Time
}

func (memoryModel) TableName() string {
	return "learner_memories"
}

// MemoryRepo accesses learner memory data.
type MemoryRepo struct {
	db *gorm.DB
}

// NewMemoryRepo returns a MemoryRepo.
func NewMemoryRepo(db *gorm.DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

// AddMemory inserts one learner fact.
func (r *MemoryRepo) AddMemory(ctx context.Context, mem types.MemoryRecord) error {
	var vector *pgvector.Vector
	if len(mem.Embedding) > 0 {
		v := pgvector.NewVector(mem.Embedding)
		vector = &v
	}
	record := memoryModel{
		OwnerID:   mem.OwnerID,
		Category:  string(mem.Category),
		Content:   mem.Content,
		Embedding: vector,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert memory: %w", err)
	}
	return nil
}

// GetRecentMemories returns the latest facts for an owner, oldest first.
func (r *MemoryRepo) GetRecentMemories(ctx context.Context, ownerID string, limit int) ([]types.MemoryRecord, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}

	var records []memoryModel
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}

	results := make([]types.MemoryRecord, 0, len(records))
	for _, record := range records {
		results = append(results, types.MemoryRecord{
			ID:        record.ID,
			OwnerID:   record.OwnerID,
			Category:  types.Category(record.Category),
			Content:   record.Content,
			CreatedAt: record.CreatedAt,
		})
	}

	// Oldest -> newest
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

// SearchSimilar returns the facts closest to the query embedding, restricted
// to one owner so memories never leak across tutors.
func (r *MemoryRepo) SearchSimilar(ctx context.Context, ownerID string, embedding []float32, topK int, threshold float64) ([]types.RetrievedMemory, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	query := `
		SELECT content, category, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM learner_memories
		WHERE embedding IS NOT NULL
		  AND owner_id = $2
		  AND 1 - (embedding <=> $1) > $3
		ORDER BY similarity DESC
		LIMIT $4`

	var results []types.RetrievedMemory
	if err := r.db.WithContext(ctx).
		Raw(query, pgvector.NewVector(embedding), ownerID, threshold, topK).
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to search similar memories: %w", err)
	}
	return results, nil
}

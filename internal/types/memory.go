package types

import "time"

// Category classifies a stored learner fact.
type Category string

const (
	CategoryProgress     Category = "progress"
	CategoryPreference   Category = "preference"
	CategoryStruggle     Category = "struggle"
	CategorySuccess      Category = "success"
	CategoryPersonal     Category = "personal"
	CategoryConversation Category = "conversation"
)

// Categories lists every valid fact category.
var Categories = []Category{
	CategoryProgress,
	CategoryPreference,
	CategoryStruggle,
	CategorySuccess,
	CategoryPersonal,
	CategoryConversation,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MemoryRecord is a durable learner fact scoped to one owner.
type MemoryRecord struct {
	ID        int       `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Category  Category  `json:"category"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// RetrievedMemory is a search hit returned by the memory backend.
type RetrievedMemory struct {
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}

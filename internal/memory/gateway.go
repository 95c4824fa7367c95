package memory

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/types"
)

// ErrMemoryUnavailable marks a backend failure that was absorbed into an
// empty result.
var ErrMemoryUnavailable = errors.New("memory unavailable")

// contextQuery seeds the per-session memory summary.
const contextQuery = "Learner name, personal information, learning progress, preferences, and recent sessions"

const defaultCallTimeout = 10 * time.Second

// Backend is the narrow contract with the memory store. Implementations must
// keep owners isolated: a search for one owner never returns another owner's
// facts.
type Backend interface {
	Add(ctx context.Context, owner string, category types.Category, content string) error
	Search(ctx context.Context, owner, query string, limit int) ([]string, error)
}

// Gateway scopes memory operations to one owner and converts every backend
// failure into a soft result so the conversation continues without memory.
// A nil *Gateway is valid and reports memory as unavailable.
//
// Gateways are immutable: the owner is fixed at construction, so a tool call
// holding a Gateway keeps its owner even if the active tutor changes mid-call.
type Gateway struct {
	backend Backend
	owner   string
	limit   int
	timeout time.Duration
}

// NewGateway creates a Gateway for the given profile name.
func NewGateway(backend Backend, profile string, limit int) *Gateway {
	if limit <= 0 {
		limit = 5
	}
	return &Gateway{
		backend: backend,
		owner:   types.OwnerID(profile),
		limit:   limit,
		timeout: defaultCallTimeout,
	}
}

// ForProfile returns a Gateway bound to another profile's owner id.
func (g *Gateway) ForProfile(profile string) *Gateway {
	if g == nil {
		return nil
	}
	clone := *g
	clone.owner = types.OwnerID(profile)
	return &clone
}

// Owner returns the owner id facts are scoped to.
func (g *Gateway) Owner() string {
	if g == nil {
		return ""
	}
	return g.owner
}

// Available reports whether a backend is configured.
func (g *Gateway) Available() bool {
	return g != nil && g.backend != nil
}

// RecallResult is the structured outcome of a recall.
type RecallResult struct {
	Memories []string `json:"memories"`
	Count    int      `json:"count"`
	Error    string   `json:"error,omitempty"`
}

// RememberResult is the structured outcome of a remember.
type RememberResult struct {
	Stored   bool   `json:"stored"`
	Fact     string `json:"fact,omitempty"`
	Category string `json:"category,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Recall searches the owner's stored facts. Backend failures yield an empty
// result with an error message, never a raised error.
func (g *Gateway) Recall(ctx context.Context, query string) RecallResult {
	if !g.Available() {
		return RecallResult{Error: "Memory not available", Memories: []string{}}
	}
	if strings.TrimSpace(query) == "" {
		return RecallResult{Error: "No query provided", Memories: []string{}}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	memories, err := g.backend.Search(ctx, g.owner, query, g.limit)
	if err != nil {
		slog.Warn("failed to search memories", "owner", g.owner, "error", err.Error())
		return RecallResult{Error: "Memory search failed", Memories: []string{}}
	}
	if memories == nil {
		memories = []string{}
	}
	return RecallResult{Memories: memories, Count: len(memories)}
}

// Remember stores one fact for the owner. An empty fact is rejected before
// the backend is contacted.
func (g *Gateway) Remember(ctx context.Context, fact string, category types.Category) RememberResult {
	if strings.TrimSpace(fact) == "" {
		return RememberResult{Error: "No fact provided", Stored: false}
	}
	if !g.Available() {
		return RememberResult{Error: "Memory not available", Stored: false}
	}
	if !category.Valid() {
		category = types.CategoryProgress
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.backend.Add(ctx, g.owner, category, fact); err != nil {
		slog.Warn("failed to store memory", "owner", g.owner, "error", err.Error())
		return RememberResult{Error: "Memory store failed", Stored: false}
	}
	return RememberResult{Stored: true, Fact: fact, Category: string(category)}
}

// Context returns a natural-language summary of the owner's most relevant
// facts for seeding a session. Failures return the empty string so a broken
// memory backend never blocks a session start.
func (g *Gateway) Context(ctx context.Context, limit int) string {
	if !g.Available() {
		return ""
	}
	if limit <= 0 {
		limit = g.limit
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	memories, err := g.backend.Search(ctx, g.owner, contextQuery, limit)
	if err != nil {
		slog.Warn("failed to retrieve memory context", "owner", g.owner, "error", err.Error())
		return ""
	}
	return formatContext(memories)
}

func formatContext(memories []string) string {
	if len(memories) == 0 {
		return ""
	}
	lines := make([]string, 0, len(memories))
	for _, m := range memories {
		lines = append(lines, "- "+m)
	}
	return strings.Join(lines, "\n")
}

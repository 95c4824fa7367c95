package tool

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/adk/model"
	adktool "google.golang.org/adk/tool"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/memory"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/types"
)

type mockBackend struct {
	added   []string
	results []string
	err     error
}

func (m *mockBackend) Add(ctx context.Context, owner string, category types.Category, content string) error {
	if m.err != nil {
		return m.err
	}
	m.added = append(m.added, content)
	return nil
}

func (m *mockBackend) Search(ctx context.Context, owner, query string, limit int) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func newTestRegistry(backend memory.Backend) *Registry {
	gateway := memory.NewGateway(backend, "spanish_tutor", 5)
	provider := func() *memory.Gateway { return gateway }
	return NewRegistry(NewRecallTool(provider), NewRememberTool(provider))
}

func TestRegistryUnknownTool(t *testing.T) {
	r := newTestRegistry(&mockBackend{})

	got := r.Invoke(context.Background(), "dance", nil)
	if got["error"] != "Unknown tool: dance" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestRegistryAgentToolsInRegistrationOrder(t *testing.T) {
	r := newTestRegistry(&mockBackend{})

	tools, err := r.AgentTools()
	if err != nil {
		t.Fatalf("AgentTools failed: %v", err)
	}
	if len(tools) != 2 || tools[0].Name() != "recall" || tools[1].Name() != "remember" {
		t.Fatalf("unexpected tools: %v", tools)
	}

	req := &model.LLMRequest{}
	for _, wrapped := range tools {
		processor, ok := wrapped.(interface {
			ProcessRequest(adktool.Context, *model.LLMRequest) error
		})
		if !ok {
			t.Fatalf("tool %s does not process LLM requests", wrapped.Name())
		}
		if err := processor.ProcessRequest(nil, req); err != nil {
			t.Fatalf("ProcessRequest for %s failed: %v", wrapped.Name(), err)
		}
	}
	if len(req.Config.Tools) != 1 {
		t.Fatalf("unexpected tool config: %v", req.Config.Tools)
	}
	decls := req.Config.Tools[0].FunctionDeclarations
	if len(decls) != 2 || decls[0].Name != "recall" || decls[1].Name != "remember" {
		t.Fatalf("unexpected declarations: %v", decls)
	}
	for _, decl := range decls {
		if decl.Description == "" || decl.ParametersJsonSchema == nil {
			t.Fatalf("declaration %s missing description or schema", decl.Name)
		}
	}
}

func TestRecallToolReturnsMemories(t *testing.T) {
	r := newTestRegistry(&mockBackend{results: []string{"[progress] Finished lesson 3"}})

	got := r.Invoke(context.Background(), "recall", map[string]any{"query": "progress"})
	if got["count"] != 1 {
		t.Fatalf("unexpected count: %v", got)
	}
	memories, ok := got["memories"].([]string)
	if !ok || len(memories) != 1 || memories[0] != "[progress] Finished lesson 3" {
		t.Fatalf("unexpected memories: %v", got["memories"])
	}
	if _, present := got["error"]; present {
		t.Fatalf("unexpected error in result: %v", got)
	}
}

func TestRecallToolMissingQuery(t *testing.T) {
	backend := &mockBackend{results: []string{"should not be returned"}}
	r := newTestRegistry(backend)

	got := r.Invoke(context.Background(), "recall", map[string]any{})
	if got["error"] != "No query provided" || got["count"] != 0 {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestRememberToolStoresFact(t *testing.T) {
	backend := &mockBackend{}
	r := newTestRegistry(backend)

	got := r.Invoke(context.Background(), "remember", map[string]any{
		"fact":     "Prefers cooking topics",
		"category": "preference",
	})
	if got["stored"] != true || got["fact"] != "Prefers cooking topics" || got["category"] != "preference" {
		t.Fatalf("unexpected result: %v", got)
	}
	if len(backend.added) != 1 || backend.added[0] != "Prefers cooking topics" {
		t.Fatalf("backend did not receive the fact: %v", backend.added)
	}
}

func TestRememberToolBackendFailure(t *testing.T) {
	r := newTestRegistry(&mockBackend{err: errors.New("db down")})

	got := r.Invoke(context.Background(), "remember", map[string]any{
		"fact":     "fact",
		"category": "progress",
	})
	if got["stored"] != false || got["error"] != "Memory store failed" {
		t.Fatalf("unexpected result: %v", got)
	}
	if _, present := got["fact"]; present {
		t.Fatalf("failed store echoed the fact: %v", got)
	}
}

func TestRememberToolMistypedArgs(t *testing.T) {
	backend := &mockBackend{}
	r := newTestRegistry(backend)

	got := r.Invoke(context.Background(), "remember", map[string]any{
		"fact":     42,
		"category": "progress",
	})
	if got["stored"] != false || got["error"] != "No fact provided" {
		t.Fatalf("unexpected result: %v", got)
	}
	if len(backend.added) != 0 {
		t.Fatal("backend was contacted for a mistyped fact")
	}
}

package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/memory"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/profile"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/types"
)

type mockSession struct {
	mu      sync.Mutex
	configs []Config
	err     error

	started   chan struct{}
	startOnce sync.Once
	release   chan struct{}
}

func (m *mockSession) Update(ctx context.Context, cfg Config) error {
	if m.started != nil {
		m.startOnce.Do(func() { close(m.started) })
	}
	if m.release != nil {
		<-m.release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.configs = append(m.configs, cfg)
	return nil
}

func (m *mockSession) updates() []Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Config(nil), m.configs...)
}

func (m *mockSession) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type mockSelectionStore struct {
	saved []types.Selector
}

func (m *mockSelectionStore) SaveSelection(sel types.Selector) error {
	m.saved = append(m.saved, sel)
	return nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, source, target string) string {
	return "pair instructions for " + source + " to " + target
}

type mockBackend struct {
	facts  []string
	owners []string
}

func (m *mockBackend) Add(ctx context.Context, owner string, category types.Category, content string) error {
	return nil
}

func (m *mockBackend) Search(ctx context.Context, owner, query string, limit int) ([]string, error) {
	m.owners = append(m.owners, owner)
	return m.facts, nil
}

func writePersona(t *testing.T, profilesDir, id, instructions string) {
	t.Helper()
	dir := filepath.Join(profilesDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "instructions.txt"), []byte(instructions), 0o644); err != nil {
		t.Fatalf("write persona %s: %v", id, err)
	}
}

func newTestController(t *testing.T, gateway *memory.Gateway, live Session, settings SelectionStore) *Controller {
	t.Helper()
	profilesDir := t.TempDir()
	writePersona(t, profilesDir, profile.DefaultPersona, "default instructions")
	writePersona(t, profilesDir, "spanish_tutor", "spanish instructions")

	store := profile.NewStore(profilesDir, t.TempDir())
	cache := profile.NewCache(t.TempDir(), stubGenerator{})
	return NewController(store, cache, gateway, live, settings, 5)
}

func TestControllerApplyPersona(t *testing.T) {
	live := &mockSession{}
	settings := &mockSelectionStore{}
	c := newTestController(t, nil, live, settings)

	status, err := c.Apply(context.Background(), types.Selector{Persona: "spanish_tutor"})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if status != "Tutor ready: spanish_tutor" {
		t.Fatalf("unexpected status: %q", status)
	}

	state := c.Current()
	if state == nil {
		t.Fatal("no state committed")
	}
	if state.Persona != "spanish_tutor" || state.Pair != nil {
		t.Fatalf("unexpected selection in state: %+v", state)
	}
	if state.Generation != 1 {
		t.Fatalf("expected generation 1, got %d", state.Generation)
	}
	if state.Owner() != "spanish_tutor_learner" {
		t.Fatalf("unexpected owner: %q", state.Owner())
	}

	if updates := live.updates(); len(updates) != 1 || updates[0].Instructions != "spanish instructions" {
		t.Fatalf("session did not receive the persona instructions: %+v", updates)
	}
	if len(settings.saved) != 1 || settings.saved[0].Persona != "spanish_tutor" {
		t.Fatalf("selection was not persisted: %+v", settings.saved)
	}
}

func TestControllerApplyPair(t *testing.T) {
	live := &mockSession{}
	c := newTestController(t, nil, live, nil)

	status, err := c.Apply(context.Background(), types.Selector{
		Pair: &types.LanguagePair{Source: "English", Target: "German"},
	})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if status != "Tutor ready: English → Deutsch" {
		t.Fatalf("unexpected status: %q", status)
	}

	state := c.Current()
	if state.Persona != "" || state.Pair == nil {
		t.Fatalf("expected pair-only state, got %+v", state)
	}
	if state.ProfileName() != "english_to_german" {
		t.Fatalf("unexpected profile name: %q", state.ProfileName())
	}
	if state.Voice != "ash" {
		t.Fatalf("expected the german voice, got %q", state.Voice)
	}
	if updates := live.updates(); len(updates) != 1 || updates[0].Voice != "ash" {
		t.Fatalf("session did not receive the voice: %+v", updates)
	}
}

func TestControllerApplyDefault(t *testing.T) {
	live := &mockSession{}
	c := newTestController(t, nil, live, nil)

	status, err := c.Apply(context.Background(), types.Selector{})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if status != "Default language partner active" {
		t.Fatalf("unexpected status: %q", status)
	}

	state := c.Current()
	if state.Persona != "" || state.Pair != nil {
		t.Fatalf("default state must carry no selection: %+v", state)
	}
	if state.Owner() != "default_learner" {
		t.Fatalf("unexpected owner: %q", state.Owner())
	}
}

func TestControllerApplyFailureKeepsPreviousState(t *testing.T) {
	live := &mockSession{}
	settings := &mockSelectionStore{}
	c := newTestController(t, nil, live, settings)

	if _, err := c.Apply(context.Background(), types.Selector{Persona: "spanish_tutor"}); err != nil {
		t.Fatalf("first Apply returned error: %v", err)
	}

	_, err := c.Apply(context.Background(), types.Selector{Persona: "nobody"})
	if !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	state := c.Current()
	if state.Persona != "spanish_tutor" || state.Generation != 1 {
		t.Fatalf("failed apply disturbed committed state: %+v", state)
	}
	if len(settings.saved) != 1 {
		t.Fatalf("failed apply persisted a selection: %+v", settings.saved)
	}
	if updates := live.updates(); len(updates) != 1 {
		t.Fatalf("failed apply reached the session: %+v", updates)
	}
}

func TestControllerApplySwapRejectedKeepsPreviousState(t *testing.T) {
	live := &mockSession{}
	c := newTestController(t, nil, live, nil)

	if _, err := c.Apply(context.Background(), types.Selector{Persona: "spanish_tutor"}); err != nil {
		t.Fatalf("first Apply returned error: %v", err)
	}

	live.fail(errors.New("connection lost"))
	_, err := c.Apply(context.Background(), types.Selector{})
	if !errors.Is(err, ErrSwapRejected) {
		t.Fatalf("expected ErrSwapRejected, got %v", err)
	}

	state := c.Current()
	if state.Persona != "spanish_tutor" || state.Generation != 1 {
		t.Fatalf("rejected swap disturbed committed state: %+v", state)
	}
}

func TestControllerApplyBusy(t *testing.T) {
	live := &mockSession{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := newTestController(t, nil, live, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := c.Apply(context.Background(), types.Selector{Persona: "spanish_tutor"}); err != nil {
			t.Errorf("blocked Apply returned error: %v", err)
		}
	}()
	<-live.started

	status, err := c.Apply(context.Background(), types.Selector{})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if status != "Another tutor change is already in progress" {
		t.Fatalf("unexpected busy status: %q", status)
	}

	close(live.release)
	<-done

	if state := c.Current(); state == nil || state.Persona != "spanish_tutor" {
		t.Fatalf("first apply did not commit: %+v", state)
	}
}

func TestControllerGenerationCountsSuccessesOnly(t *testing.T) {
	live := &mockSession{}
	c := newTestController(t, nil, live, nil)
	ctx := context.Background()

	if _, err := c.Apply(ctx, types.Selector{Persona: "spanish_tutor"}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if _, err := c.Apply(ctx, types.Selector{Persona: "nobody"}); err == nil {
		t.Fatal("expected failure for unknown persona")
	}
	if _, err := c.Apply(ctx, types.Selector{}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	if got := c.Current().Generation; got != 2 {
		t.Fatalf("expected generation 2 after two successes, got %d", got)
	}
}

func TestControllerSeedsInstructionsWithMemoryContext(t *testing.T) {
	backend := &mockBackend{facts: []string{"[personal] Learner is called Ana"}}
	gateway := memory.NewGateway(backend, profile.DefaultPersona, 5)
	live := &mockSession{}
	c := newTestController(t, gateway, live, nil)

	if _, err := c.Apply(context.Background(), types.Selector{Persona: "spanish_tutor"}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	seed := live.updates()[0].Instructions
	if !strings.HasPrefix(seed, "spanish instructions") {
		t.Fatalf("seed lost the base instructions: %q", seed)
	}
	if !strings.Contains(seed, "## WHAT YOU REMEMBER ABOUT THIS LEARNER") ||
		!strings.Contains(seed, "- [personal] Learner is called Ana") {
		t.Fatalf("seed missing memory context:\n%s", seed)
	}
	if len(backend.owners) != 1 || backend.owners[0] != "spanish_tutor_learner" {
		t.Fatalf("memory context was not scoped to the new profile: %v", backend.owners)
	}
}

func TestControllerGatewayTracksActiveProfile(t *testing.T) {
	backend := &mockBackend{}
	gateway := memory.NewGateway(backend, profile.DefaultPersona, 5)
	c := newTestController(t, gateway, &mockSession{}, nil)

	if got := c.Gateway().Owner(); got != "default_learner" {
		t.Fatalf("idle gateway owner: %q", got)
	}

	if _, err := c.Apply(context.Background(), types.Selector{Persona: "spanish_tutor"}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if got := c.Gateway().Owner(); got != "spanish_tutor_learner" {
		t.Fatalf("gateway owner after apply: %q", got)
	}
}

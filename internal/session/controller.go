package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/memory"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/profile"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/types"
)

var (
	// ErrBusy is returned when an apply arrives while another swap is in
	// flight.
	ErrBusy = errors.New("another tutor change is in progress")
	// ErrSwapRejected is returned when the live session refused the new
	// configuration.
	ErrSwapRejected = errors.New("session rejected new configuration")
)

// SelectionStore persists the committed selection across restarts.
type SelectionStore interface {
	SaveSelection(sel types.Selector) error
}

// Controller funnels every profile change through one critical section. The
// committed state is published through an atomic pointer so readers never
// block on, or observe, an in-progress swap.
type Controller struct {
	mu    sync.Mutex
	state atomic.Pointer[types.ProfileState]

	store       *profile.Store
	cache       *profile.Cache
	gateway     *memory.Gateway
	live        Session
	settings    SelectionStore
	memoryLimit int
}

// NewController creates a Controller in the Idle state.
func NewController(store *profile.Store, cache *profile.Cache, gateway *memory.Gateway, live Session, settings SelectionStore, memoryLimit int) *Controller {
	if memoryLimit <= 0 {
		memoryLimit = 10
	}
	return &Controller{
		store:       store,
		cache:       cache,
		gateway:     gateway,
		live:        live,
		settings:    settings,
		memoryLimit: memoryLimit,
	}
}

// Current returns the last committed profile state, or nil while Idle. The
// returned value is immutable; it is never the state of a swap in progress.
func (c *Controller) Current() *types.ProfileState {
	return c.state.Load()
}

// Gateway returns the memory gateway scoped to the committed profile's
// owner. Safe to call concurrently with an in-flight Apply.
func (c *Controller) Gateway() *memory.Gateway {
	return c.gateway.ForProfile(c.Current().ProfileName())
}

// Apply resolves the selector's instruction set, seeds it with memory
// context, and swaps it into the live session. Exactly one Apply runs at a
// time; a second caller gets ErrBusy. On any failure the previously
// committed state stands unchanged.
func (c *Controller) Apply(ctx context.Context, sel types.Selector) (string, error) {
	if !c.mu.TryLock() {
		return "Another tutor change is already in progress", ErrBusy
	}
	defer c.mu.Unlock()

	next, err := c.resolve(ctx, sel)
	if err != nil {
		return fmt.Sprintf("Could not load tutor: %v", err), err
	}

	seed := next.Instructions
	if memCtx := c.gateway.ForProfile(next.ProfileName()).Context(ctx, c.memoryLimit); memCtx != "" {
		seed = seed + "\n\n## WHAT YOU REMEMBER ABOUT THIS LEARNER\n" + memCtx
	}

	if err := c.live.Update(ctx, Config{Instructions: seed, Voice: next.Voice}); err != nil {
		slog.Error("session swap rejected", "profile", next.ProfileName(), "error", err.Error())
		return fmt.Sprintf("Session rejected tutor %s: %v", next.ProfileName(), err),
			fmt.Errorf("%w: %v", ErrSwapRejected, err)
	}

	if prev := c.state.Load(); prev != nil {
		next.Generation = prev.Generation + 1
	} else {
		next.Generation = 1
	}
	c.state.Store(next)

	if c.settings != nil {
		if err := c.settings.SaveSelection(sel); err != nil {
			slog.Warn("failed to persist tutor selection", "error", err.Error())
		}
	}

	slog.Info("tutor applied", "profile", next.ProfileName(), "generation", next.Generation)
	return c.statusFor(next), nil
}

// resolve builds the candidate state for a selector. Persona and pair are
// mutually exclusive: whichever the selector carries, the other is left
// unset in the result.
func (c *Controller) resolve(ctx context.Context, sel types.Selector) (*types.ProfileState, error) {
	if sel.Pair != nil {
		pair := sel.Pair.Normalized()
		instructions, err := c.cache.Resolve(ctx, pair)
		if err != nil {
			return nil, err
		}
		return &types.ProfileState{
			Pair:         &pair,
			Instructions: instructions,
			Voice:        profile.VoiceFor(pair.Target),
		}, nil
	}

	// The zero selector resolves the default persona's instructions but
	// commits with both selectors unset.
	instructions, err := c.store.Load(sel.Persona)
	if err != nil {
		return nil, err
	}
	return &types.ProfileState{
		Persona:      sel.Persona,
		Instructions: instructions,
		Voice:        profile.DefaultVoice,
	}, nil
}

func (c *Controller) statusFor(state *types.ProfileState) string {
	if state.Pair != nil {
		return fmt.Sprintf("Tutor ready: %s → %s",
			profile.DisplayName(state.Pair.Source), profile.DisplayName(state.Pair.Target))
	}
	if state.Persona == "" {
		return "Default language partner active"
	}
	return fmt.Sprintf("Tutor ready: %s", state.Persona)
}

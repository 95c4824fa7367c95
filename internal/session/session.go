// Package session owns the active tutor profile and serializes hot swaps
// against the live conversation session.
package session

import "context"

// Config is the seed applied to the live session on a swap.
type Config struct {
	// Instructions is the fully expanded system prompt, including any
	// memory context for the returning learner.
	Instructions string
	// Voice selects the realtime voice for the target language.
	Voice string
}

// Session is the live conversation the controller swaps profiles under. The
// realtime transport behind it is external; an Update call either commits
// the new configuration or leaves the running session untouched.
type Session interface {
	Update(ctx context.Context, cfg Config) error
}

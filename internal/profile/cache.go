package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/types"
)

// ErrInvalidPair is returned when a language pair has an empty code or the
// same code on both sides.
var ErrInvalidPair = errors.New("invalid language pair")

// Cache resolves language pairs to instruction sets, backed by one plain-text
// file per pair. A cache hit is authoritative: no TTL, no freshness check.
// Misses are deduplicated per key so concurrent callers for the same pair
// trigger at most one generation.
type Cache struct {
	dir       string
	generator Generator
	group     singleflight.Group
}

// NewCache creates a Cache storing generated profiles under dir.
func NewCache(dir string, generator Generator) *Cache {
	return &Cache{
		dir:       dir,
		generator: generator,
	}
}

// Resolve returns the instruction set for a language pair, generating and
// persisting it on a miss. Persistence failures are non-fatal: the generated
// text is still returned and regeneration happens on the next miss.
func (c *Cache) Resolve(ctx context.Context, pair types.LanguagePair) (string, error) {
	pair = pair.Normalized()
	if err := validatePair(pair); err != nil {
		return "", err
	}

	key := CacheKey(pair)
	path := filepath.Join(c.dir, key+".txt")

	if cached, err := os.ReadFile(path); err == nil {
		slog.Info("using cached profile", "pair", pair.String())
		return string(cached), nil
	}

	instructions, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the key lock: a concurrent caller may have
		// finished generating while this one waited.
		if cached, err := os.ReadFile(path); err == nil {
			return string(cached), nil
		}

		slog.Info("generating new profile", "pair", pair.String())
		generated := c.generator.Generate(ctx, pair.Source, pair.Target)
		if err := c.persist(path, generated); err != nil {
			slog.Warn("failed to cache profile", "pair", pair.String(), "error", err.Error())
		}
		return generated, nil
	})
	if err != nil {
		return "", err
	}
	return instructions.(string), nil
}

// Cached reports whether a profile for the pair is already on disk.
func (c *Cache) Cached(pair types.LanguagePair) bool {
	pair = pair.Normalized()
	if validatePair(pair) != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(c.dir, CacheKey(pair)+".txt"))
	return err == nil
}

// CacheKey returns the deterministic file stem for a normalized pair.
func CacheKey(pair types.LanguagePair) string {
	return pair.Source + "_to_" + pair.Target
}

func validatePair(pair types.LanguagePair) error {
	if pair.Source == "" || pair.Target == "" {
		return fmt.Errorf("%w: both languages must be set", ErrInvalidPair)
	}
	if pair.Source == pair.Target {
		return fmt.Errorf("%w: source and target must differ", ErrInvalidPair)
	}
	return nil
}

// persist writes instructions via a temp file and rename so a concurrent
// reader never observes a half-written cache file.
func (c *Cache) persist(path, instructions string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".profile-*.txt.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(instructions); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	cleanup = false

	slog.Info("cached profile saved", "path", path)
	return nil
}

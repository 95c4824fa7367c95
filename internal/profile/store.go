// Package profile resolves tutor instruction sets: static file-backed
// personas, dynamically generated language-pair profiles, and the disk cache
// in between.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNotFound is returned when a persona's instruction file does not exist.
var ErrNotFound = errors.New("persona not found")

// DefaultPersona is the persona loaded for the zero selector.
const DefaultPersona = "default"

const (
	instructionsFileName = "instructions.txt"
	metadataFileName     = "metadata.json"
)

// placeholderPattern matches bracketed include tokens of the form
// [namespace/fragment]. Anything else between brackets is left alone.
var placeholderPattern = regexp.MustCompile(`\[([a-zA-Z0-9_\-]+/[a-zA-Z0-9_\-]+)\]`)

// Store loads persona instruction files and expands shared prompt fragments.
type Store struct {
	profilesDir string
	promptsDir  string
}

// NewStore creates a Store reading personas from profilesDir and shared
// fragments from promptsDir.
func NewStore(profilesDir, promptsDir string) *Store {
	return &Store{
		profilesDir: profilesDir,
		promptsDir:  promptsDir,
	}
}

// Load reads a persona's instruction file and expands its placeholders.
// An empty id loads the default persona.
func (s *Store) Load(personaID string) (string, error) {
	if personaID == "" {
		personaID = DefaultPersona
	}
	path := filepath.Join(s.profilesDir, personaID, instructionsFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, personaID)
		}
		return "", fmt.Errorf("failed to read persona %s: %w", personaID, err)
	}
	return s.Expand(string(raw)), nil
}

// List returns the persona ids that have an instruction file, sorted by the
// directory order of the profiles dir.
func (s *Store) List() []string {
	entries, err := os.ReadDir(s.profilesDir)
	if err != nil {
		return nil
	}
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.profilesDir, entry.Name(), instructionsFileName)); err == nil {
			ids = append(ids, entry.Name())
		}
	}
	return ids
}

// Expand replaces every [namespace/fragment] token with the contents of the
// matching shared fragment file. Expansion is a single pass: fragment files
// are inserted verbatim and are not themselves scanned for further tokens.
// Tokens that name a missing fragment are kept unchanged.
func (s *Store) Expand(raw string) string {
	return placeholderPattern.ReplaceAllStringFunc(raw, func(token string) string {
		name := strings.Trim(token, "[]")
		fragment, err := s.readFragment(name)
		if err != nil {
			slog.Debug("keeping unexpanded placeholder", "token", token, "error", err)
			return token
		}
		return fragment
	})
}

// Metadata is optional per-persona display info for status output.
type Metadata struct {
	Name string `json:"name"`
	Flag string `json:"flag"`
}

// Metadata returns a persona's display metadata. A missing or malformed
// metadata file falls back to the title-cased persona id.
func (s *Store) Metadata(personaID string) Metadata {
	if personaID == "" {
		personaID = DefaultPersona
	}
	fallback := Metadata{Name: titleCaser.String(strings.ReplaceAll(personaID, "_", " "))}

	data, err := os.ReadFile(filepath.Join(s.profilesDir, personaID, metadataFileName))
	if err != nil {
		return fallback
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil || meta.Name == "" {
		slog.Debug("ignoring persona metadata", "persona", personaID, "error", err)
		return fallback
	}
	return meta
}

func (s *Store) readFragment(name string) (string, error) {
	// The pattern only admits a single namespace/fragment segment pair, so
	// the join cannot escape the prompts dir.
	path := filepath.Join(s.promptsDir, filepath.FromSlash(name)+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

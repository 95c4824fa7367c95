package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/types"
)

const (
	settingsFileName = "settings"
	settingsFileType = "yaml"

	keyPersona        = "tutor.persona"
	keySourceLanguage = "tutor.source_language"
	keyTargetLanguage = "tutor.target_language"
)

// Settings persists the active tutor selection across restarts. It replaces
// ambient process environment as the configuration channel: callers mutate an
// explicit object and the file on disk, never os.Environ.
type Settings struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// OpenSettings loads (or initializes) the settings file under dir.
func OpenSettings(dir string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName(settingsFileName)
	v.SetConfigType(settingsFileType)
	v.AddConfigPath(dir)
	v.SetDefault(keyPersona, "")
	v.SetDefault(keySourceLanguage, "")
	v.SetDefault(keyTargetLanguage, "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	return &Settings{
		v:    v,
		path: filepath.Join(dir, settingsFileName+"."+settingsFileType),
	}, nil
}

// Selection returns the persisted tutor selector.
func (s *Settings) Selection() types.Selector {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := s.v.GetString(keySourceLanguage)
	target := s.v.GetString(keyTargetLanguage)
	if source != "" && target != "" {
		return types.Selector{Pair: &types.LanguagePair{Source: source, Target: target}}
	}
	return types.Selector{Persona: s.v.GetString(keyPersona)}
}

// SaveSelection persists the selector, clearing whichever of persona/pair is
// not set so the two never coexist on disk.
func (s *Settings) SaveSelection(sel types.Selector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	persona := sel.Persona
	var source, target string
	if sel.Pair != nil {
		pair := sel.Pair.Normalized()
		persona = ""
		source = pair.Source
		target = pair.Target
	}
	s.v.Set(keyPersona, persona)
	s.v.Set(keySourceLanguage, source)
	s.v.Set(keyTargetLanguage, target)

	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

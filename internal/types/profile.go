// Package types holds the shared domain types of the language tutor.
package types

import "strings"

// LanguagePair selects a dynamically generated tutor for a (source, target)
// language combination. Source is the learner's native language, Target the
// language being learned. Codes are case-normalized on use.
type LanguagePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Normalized returns the pair with both codes lower-cased and trimmed.
func (p LanguagePair) Normalized() LanguagePair {
	return LanguagePair{
		Source: strings.ToLower(strings.TrimSpace(p.Source)),
		Target: strings.ToLower(strings.TrimSpace(p.Target)),
	}
}

// IsZero reports whether neither language is set.
func (p LanguagePair) IsZero() bool {
	return p.Source == "" && p.Target == ""
}

func (p LanguagePair) String() string {
	return p.Source + " -> " + p.Target
}

// Selector names the tutor to activate. Persona and Pair are mutually
// exclusive; the zero Selector means "reset to the default tutor".
type Selector struct {
	Persona string        `json:"persona,omitempty"`
	Pair    *LanguagePair `json:"pair,omitempty"`
}

// IsDefault reports whether the selector asks for the default tutor.
func (s Selector) IsDefault() bool {
	return s.Persona == "" && s.Pair == nil
}

// ProfileState is the committed state of the live session. Exactly one of
// Persona/Pair is set, or neither for the default tutor. Generation increases
// by one on every successful swap.
type ProfileState struct {
	Persona      string
	Pair         *LanguagePair
	Instructions string
	Voice        string
	Generation   uint64
}

// Owner returns the memory owner id bound to this state. It is stable across
// restarts for the same selection so learner facts persist, and changes when
// the selection changes so facts do not bleed between tutors.
func (s *ProfileState) Owner() string {
	return OwnerID(s.ProfileName())
}

// ProfileName returns the selection as a single identifier: the persona id,
// the pair key, or "default".
func (s *ProfileState) ProfileName() string {
	switch {
	case s == nil:
		return "default"
	case s.Persona != "":
		return s.Persona
	case s.Pair != nil:
		p := s.Pair.Normalized()
		return p.Source + "_to_" + p.Target
	default:
		return "default"
	}
}

// OwnerID derives the memory owner id for a profile name.
func OwnerID(profile string) string {
	if profile == "" {
		profile = "default"
	}
	return profile + "_learner"
}

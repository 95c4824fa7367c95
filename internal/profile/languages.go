package profile

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Language holds display metadata for a supported language.
type Language struct {
	NativeName string
	Flag       string
	Voice      string
}

// DefaultVoice seeds sessions whose target language has no dedicated voice.
const DefaultVoice = "coral"

// languageData maps lower-case language codes to display metadata and the
// realtime voice used when tutoring that language.
var languageData = map[string]Language{
	"english":    {NativeName: "English", Flag: "🇬🇧", Voice: "shimmer"},
	"chinese":    {NativeName: "中文 (Mandarin)", Flag: "🇨🇳", Voice: "coral"},
	"spanish":    {NativeName: "Español", Flag: "🇪🇸", Voice: "coral"},
	"french":     {NativeName: "Français", Flag: "🇫🇷", Voice: "coral"},
	"german":     {NativeName: "Deutsch", Flag: "🇩🇪", Voice: "ash"},
	"italian":    {NativeName: "Italiano", Flag: "🇮🇹", Voice: "coral"},
	"portuguese": {NativeName: "Português", Flag: "🇧🇷", Voice: "coral"},
	"japanese":   {NativeName: "日本語", Flag: "🇯🇵", Voice: "coral"},
	"korean":     {NativeName: "한국어", Flag: "🇰🇷", Voice: "coral"},
	"arabic":     {NativeName: "العربية", Flag: "🇸🇦", Voice: "coral"},
	"russian":    {NativeName: "Русский", Flag: "🇷🇺", Voice: "coral"},
	"dutch":      {NativeName: "Nederlands", Flag: "🇳🇱", Voice: "coral"},
	"hindi":      {NativeName: "हिन्दी", Flag: "🇮🇳", Voice: "coral"},
}

var titleCaser = cases.Title(language.Und)

// SupportedLanguages returns the known language codes, sorted.
func SupportedLanguages() []string {
	codes := make([]string, 0, len(languageData))
	for code := range languageData {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// DisplayName returns the native display name for a language code. Unknown
// codes fall back to the title-cased code itself.
func DisplayName(code string) string {
	if data, ok := languageData[strings.ToLower(code)]; ok {
		return data.NativeName
	}
	return titleCaser.String(strings.ToLower(code))
}

// VoiceFor returns the realtime voice for a target language.
func VoiceFor(code string) string {
	if data, ok := languageData[strings.ToLower(code)]; ok && data.Voice != "" {
		return data.Voice
	}
	return DefaultVoice
}

// FlagFor returns the flag emoji for a language code, or the empty string.
func FlagFor(code string) string {
	return languageData[strings.ToLower(code)].Flag
}

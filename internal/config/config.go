// Package config loads runtime configuration and persists tutor selection
// settings.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds runtime settings. Credentials are optional: a missing OpenAI
// key degrades profile generation to the template fallback, and a missing
// database URL runs the tutor without persistent memory.
type Config struct {
	OpenAIAPIKey    string
	GoogleAPIKey    string
	DatabaseURL     string
	ChatModel       string
	GenerationModel string
	EmbeddingModel  string
	InstanceDir     string
	ProfilesDir     string
	PromptsDir      string
	CacheDir        string
	MemoryLimit     int
	TopK            int
	Threshold       float64
}

// Load reads env vars and applies defaults.
func Load() Config {
	cfg := Config{
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ChatModel:       os.Getenv("CHAT_MODEL"),
		GenerationModel: os.Getenv("GENERATION_MODEL"),
		EmbeddingModel:  os.Getenv("EMBEDDING_MODEL"),
		InstanceDir:     os.Getenv("TUTOR_INSTANCE_DIR"),
		ProfilesDir:     os.Getenv("TUTOR_PROFILES_DIR"),
		PromptsDir:      os.Getenv("TUTOR_PROMPTS_DIR"),
	}

	cfg.MemoryLimit = getEnvInt("MEMORY_CONTEXT_LIMIT", 10)
	cfg.TopK = getEnvInt("TOP_K", 5)
	cfg.Threshold = getEnvFloat("SIMILARITY_THRESHOLD", 0.7)

	if cfg.InstanceDir == "" {
		cfg.InstanceDir, _ = os.Getwd()
	}
	if cfg.ProfilesDir == "" {
		cfg.ProfilesDir = filepath.Join(cfg.InstanceDir, "profiles")
	}
	if cfg.PromptsDir == "" {
		cfg.PromptsDir = filepath.Join(cfg.InstanceDir, "prompts")
	}
	cfg.CacheDir = filepath.Join(cfg.ProfilesDir, "generated")

	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = "gpt-4o-mini"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-004"
	}

	return cfg
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

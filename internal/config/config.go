// Package config loads daemon configuration from environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/iptoux/tokentools/internal/platform"
)

// Config holds all runtime configuration for tokentools.
type Config struct {
	Port    string
	WorkDir string
	DBPath  string

	// APIKey protects the HTTP API. Empty means open mode (local tool).
	APIKey string

	// DefaultModel is the exact-tokenizer model used when a request does
	// not name one.
	DefaultModel string

	HistoryRetentionDays int
	TokenizeTimeoutSecs  int
}

// Load reads environment variables and returns a Config.
// Uses sensible defaults for optional fields.
func Load() *Config {
	workDir := getEnv("WORK_DIR", platform.DefaultWorkDir())

	return &Config{
		Port:    getEnv("PORT", "8080"),
		WorkDir: workDir,
		DBPath:  getEnv("DB_PATH", filepath.Join(workDir, "tokentools.db")),

		APIKey: os.Getenv("API_KEY"),

		DefaultModel: getEnv("DEFAULT_MODEL", "cl100k_base"),

		HistoryRetentionDays: getEnvInt("HISTORY_RETENTION_DAYS", 30),
		TokenizeTimeoutSecs:  getEnvInt("TOKENIZE_TIMEOUT_SECONDS", 30),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// Package config resolves chop's settings from an optional .env file and
// the environment. Command-line flags are applied on top by the caller.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds runtime settings.
type Config struct {
	StateDir     string
	LogFile      string
	Watch        bool
	ExportSuffix string
}

// Load reads .env (if present) and then the CHOP_* environment variables.
func Load() *Config {
	// .env is optional
	_ = godotenv.Load()

	return &Config{
		StateDir:     getEnv("CHOP_STATE_HOME", defaultStateDir()),
		LogFile:      getEnv("CHOP_LOG_FILE", ""),
		Watch:        getEnvBool("CHOP_WATCH", true),
		ExportSuffix: getEnv("CHOP_EXPORT_SUFFIX", ".chapters.txt"),
	}
}

// ExportPath returns where a document loaded from path is exported.
func (c *Config) ExportPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + c.ExportSuffix
}

// defaultStateDir returns XDG_STATE_HOME/chop or ~/.local/state/chop
func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "chop")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "chop")
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

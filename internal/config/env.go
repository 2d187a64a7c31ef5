package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; earlier files win because godotenv never
// overrides a variable that is already set.
var envFiles = []string{".env.local", ".env"}

// loadEnvFiles loads .env.local and .env from dir into the process
// environment without overriding existing variables.
func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("path", path))
	}
}

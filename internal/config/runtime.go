package config

import (
	"os"
	"path/filepath"
)

func GetRuntimePath() string {
	path := os.Getenv("TEAMMATE_RUNTIME_PATH")
	if path == "" {
		path = ".teammate"
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}

func IsDebug() bool {
	return os.Getenv("TEAMMATE_DEBUG") == "1"
}

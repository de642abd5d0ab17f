package util

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	AppConfigDir = ".config/windlass"
)

// GetConfigDir returns the windlass config directory path (~/.config/windlass/)
// and creates it if it doesn't exist
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, AppConfigDir)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// ResolveFilePath resolves a file path with the following priority:
// 1. Local working directory (e.g., ./windlass.db)
// 2. User config directory (e.g., ~/.config/windlass/windlass.db)
// 3. Returns the user config directory path if neither exists (for creation)
func ResolveFilePath(filename string) string {
	if _, err := os.Stat(filename); err == nil {
		return filename
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return filename
	}

	userPath := filepath.Join(configDir, filename)

	if _, err := os.Stat(userPath); err == nil {
		return userPath
	}

	return userPath
}

// ResolveDirPath resolves a directory the same way ResolveFilePath resolves
// files, creating the user config variant when neither location exists yet.
func ResolveDirPath(dirname string) string {
	if info, err := os.Stat(dirname); err == nil && info.IsDir() {
		return dirname
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return dirname
	}

	userPath := filepath.Join(configDir, dirname)

	if info, err := os.Stat(userPath); err == nil && info.IsDir() {
		return userPath
	}

	os.MkdirAll(userPath, 0700)
	return userPath
}

package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - CHORDBOOK_CONFIG_PATH: config file location (default: ~/.config/chordbook.toml)
//   - CHORDBOOK_HOME: base directory for chordbook data (default: ~/.local/share/chordbook)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("CHORDBOOK_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "chordbook.toml"), nil
}

// getBaseDir returns the base directory for chordbook data, checking
// CHORDBOOK_HOME first, then falling back to ~/.local/share/chordbook.
func getBaseDir() (string, error) {
	if path := os.Getenv("CHORDBOOK_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "chordbook"), nil
}

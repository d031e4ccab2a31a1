package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetClaudeStateDir returns the Claude state directory path.
// Defaults to ~/.claude but can be overridden with JACQUES_CLAUDE_DIR.
func GetClaudeStateDir() (string, error) {
	if envDir := os.Getenv(ClaudeStateDirEnv); envDir != "" {
		return envDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ClaudeStateDir), nil
}

// GetProjectsDir returns the path to the Claude projects directory
func GetProjectsDir() (string, error) {
	claudeDir, err := GetClaudeStateDir()
	if err != nil {
		return "", fmt.Errorf("failed to get claude state directory: %w", err)
	}
	return filepath.Join(claudeDir, ClaudeProjectsSubdir), nil
}

// GetJacquesDir returns the jacques state directory (~/.jacques)
func GetJacquesDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, JacquesDir), nil
}

// GetArchiveRoot returns the archive root directory.
// Defaults to ~/.jacques/archive but can be overridden with JACQUES_DIR.
func GetArchiveRoot() (string, error) {
	if envDir := os.Getenv(ArchiveDirEnv); envDir != "" {
		return envDir, nil
	}

	jacquesDir, err := GetJacquesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(jacquesDir, ArchiveSubdir), nil
}

// GetConfigPath returns the path to the user settings file
func GetConfigPath() (string, error) {
	jacquesDir, err := GetJacquesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(jacquesDir, ConfigFileName), nil
}

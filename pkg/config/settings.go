package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ArchiveFilter controls which sessions the auto-archive path keeps.
type ArchiveFilter string

const (
	// FilterAll archives every completed session
	FilterAll ArchiveFilter = "all"

	// FilterSubstantial archives sessions with at least a few messages or a plan
	FilterSubstantial ArchiveFilter = "substantial"

	// FilterNone disables auto-archiving
	FilterNone ArchiveFilter = "none"
)

// Settings holds user-level configuration from ~/.jacques/config.json.
// All fields are optional; zero values fall back to defaults.
type Settings struct {
	// PlansDir is the path segment that marks a written file as a plan
	// (e.g. "plans" matches any file under a directory named "plans")
	PlansDir string `json:"plans_dir,omitempty"`

	// ArchiveFilter controls auto-archive behavior
	ArchiveFilter ArchiveFilter `json:"archive_filter,omitempty"`

	// SimilarityThreshold is the Jaccard similarity above which two plans
	// with the same normalized title are merged (0.0 disables fuzzy matching)
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`
}

// DefaultSettings returns the settings used when no config file exists
func DefaultSettings() *Settings {
	return &Settings{
		PlansDir:            "plans",
		ArchiveFilter:       FilterSubstantial,
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// LoadSettings reads the user settings file, applying defaults for any
// missing fields. A missing file is not an error.
func LoadSettings() (*Settings, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadSettingsFrom(path)
}

// LoadSettingsFrom reads settings from an explicit path
func LoadSettingsFrom(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	if settings.PlansDir == "" {
		settings.PlansDir = "plans"
	}
	if settings.ArchiveFilter == "" {
		settings.ArchiveFilter = FilterSubstantial
	}
	if settings.SimilarityThreshold <= 0 || settings.SimilarityThreshold > 1 {
		settings.SimilarityThreshold = DefaultSimilarityThreshold
	}

	return settings, nil
}

// SaveSettings writes settings atomically (temp file + rename)
func SaveSettings(settings *Settings) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, ".config-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp settings: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

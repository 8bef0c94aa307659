// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package paths resolves configuration locations and validates user supplied
// paths.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ConfigDirEnv overrides the configuration directory.
const ConfigDirEnv = "REVIEWLENS_CONFIG_DIR"

// GetConfigDir returns the reviewlens configuration directory: $REVIEWLENS_CONFIG_DIR,
// else the user config directory (XDG_CONFIG_HOME, APPDATA, ~/Library/Application Support),
// else ~/.reviewlens.
func GetConfigDir() string {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return NormalizePath(dir)
	}
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "reviewlens")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".reviewlens")
	}
	return ".reviewlens"
}

// GetConfigFile returns the path to the main config file
func GetConfigFile() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// NormalizePath expands a leading ~ and cleans the path.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return filepath.Clean(path)
}

// ResolvePath returns the absolute, normalized form of path.
func ResolvePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return filepath.Abs(NormalizePath(path))
}

// ValidatePath validates a path for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return nil
	}

	if strings.ContainsRune(path, 0) {
		return &PathValidationError{Path: path, Reason: "contains null byte"}
	}

	if runtime.GOOS == "windows" {
		for i, char := range path {
			if !strings.ContainsRune(`<>:"|?*`, char) {
				continue
			}
			if char == ':' && i == 1 {
				continue
			}
			return &PathValidationError{Path: path, Reason: "contains invalid character: " + string(char)}
		}
	}

	return nil
}

// PathValidationError represents a path validation error
type PathValidationError struct {
	Path   string
	Reason string
}

func (e *PathValidationError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Reason
}

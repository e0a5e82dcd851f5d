//go:build !dev

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDir resolves letdrop's user config directory, creating it when
// missing.
func GetDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config directory lookup: %v", err)
	}
	dir := filepath.Join(base, appConfDir)
	// MkdirAll is a no-op on an existing directory
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating user config directory: %v", err)
	}
	return dir, nil
}

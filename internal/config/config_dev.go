//go:build dev

package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

const testConfDir = ".letdrop-test"

// TestFlag routes config reads and writes to a throwaway directory
// beside the real one, so dev runs never clobber a real config.
var TestFlag bool

func init() {
	flag.BoolVar(&TestFlag, "test", false, "Keep config in a separate throwaway directory")
	flag.Parse()
}

// GetDir resolves letdrop's user config directory, creating it when
// missing. With -test it is the throwaway directory instead.
func GetDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config directory lookup: %v", err)
	}
	name := appConfDir
	if TestFlag {
		name = testConfDir
	}
	dir := filepath.Join(base, name)
	// MkdirAll is a no-op on an existing directory
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating user config directory: %v", err)
	}
	return dir, nil
}

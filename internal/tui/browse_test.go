package tui

import (
	"github.com/stretchr/testify/assert"
	"os"
	"path/filepath"
	"testing"
)

func TestReadDir(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"zeta", "alpha"} {
		if err := os.Mkdir(filepath.Join(dir, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "loose.txt"), []byte("not a dir"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("directories in name order", func(t *testing.T) {
		msg := browseModel{}.readDir(dir, in)()
		entry, ok := msg.(dirEntryMsg)
		if !ok {
			t.Fatalf("expected dirEntryMsg, got %T", msg)
		}
		assert.Equal(t, dir, entry.path)
		assert.Equal(t, []string{"alpha", "zeta"}, entry.entries, "only directories, files skipped")
		assert.Equal(t, in, entry.action)
	})

	t.Run("missing directory", func(t *testing.T) {
		msg := browseModel{}.readDir(filepath.Join(dir, "gone"), noop)()
		em, ok := msg.(errMsg)
		if !ok {
			t.Fatalf("expected errMsg, got %T", msg)
		}
		assert.Equal(t, "FILESYSTEM ERROR", em.errHeader)
		assert.Error(t, em.err)
		assert.False(t, em.fatal, "an unreadable directory must not kill the program")
	})
}

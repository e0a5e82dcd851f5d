package file

import (
	"context"
	"github.com/stretchr/testify/assert"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectMIME(t *testing.T) {
	tt := []struct {
		name, file, want string
	}{
		{"png", "photo.png", "image/png"},
		{"pdf", "report.pdf", "application/pdf"},
		{"json", "payload.json", "application/json"},
		{"params stripped", "index.html", "text/html"},
		{"uppercase extension", "PHOTO.PNG", "image/png"},
		{"unknown extension", "blob.dat0xz", ""},
		{"no extension", "Makefile2", ""},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectMIME(tc.file), "declared media type for %q", tc.file)
		})
	}
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, []byte("not really a png"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("regular file", func(t *testing.T) {
		info, err := Stat(path)
		assert.NoError(t, err, "expected stat to succeed for a regular file")
		assert.Equal(t, "photo.png", info.Name)
		assert.Equal(t, int64(len("not really a png")), info.Size)
		assert.Equal(t, "image/png", info.MIME)
		assert.Equal(t, path, info.Path)
	})

	t.Run("directory rejected", func(t *testing.T) {
		_, err := Stat(dir)
		assert.Error(t, err, "expected an error when path is a directory")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Stat(filepath.Join(dir, "nope.txt"))
		assert.ErrorIs(t, err, fs.ErrNotExist, "expected the stat error to be preserved")
	})
}

func TestCollectDir(t *testing.T) {
	dir := t.TempDir()
	createFile(t, dir, "b.pdf", "pdf bytes")
	createFile(t, dir, "a.png", "png bytes!")
	createFile(t, dir, "c.json", "{}")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	createFile(t, filepath.Join(dir, "nested"), "inner.png", "hidden")

	t.Run("regular files in name order", func(t *testing.T) {
		infos, err := CollectDir(t.Context(), dir)
		assert.NoError(t, err, "expected collection to succeed")
		names := make([]string, len(infos))
		for i, info := range infos {
			names[i] = info.Name
		}
		assert.Equal(t, []string{"a.png", "b.pdf", "c.json"}, names, "directories must be skipped, files kept in name order")
		assert.Equal(t, "image/png", infos[0].MIME)
		assert.Equal(t, int64(len("png bytes!")), infos[0].Size)
		assert.Equal(t, filepath.Join(dir, "a.png"), infos[0].Path)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := CollectDir(t.Context(), filepath.Join(dir, "gone"))
		assert.Error(t, err, "expected an error for a directory that does not exist")
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := CollectDir(ctx, dir)
		assert.ErrorIs(t, err, context.Canceled, "expected cancellation to propagate")
	})
}

func TestSubDirs(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"zeta", "alpha"} {
		if err := os.Mkdir(filepath.Join(dir, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	createFile(t, dir, "loose.txt", "not a dir")

	dirs, err := SubDirs(dir)
	assert.NoError(t, err, "expected listing to succeed")
	assert.Equal(t, []string{"alpha", "zeta"}, dirs, "only directories, in name order")
}

func createFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

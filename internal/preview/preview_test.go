package preview

import (
	"github.com/stretchr/testify/assert"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Teardown)
	return s
}

func createSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAllocAndLocate(t *testing.T) {
	s := testStore(t)
	src := createSource(t, "cat.png", "png bytes")

	h, err := s.Alloc(src)
	assert.NoError(t, err)
	assert.NotZero(t, h, "a live handle is never the zero Handle")
	assert.Equal(t, 1, s.Live())

	located, ok := s.Locate(h)
	assert.True(t, ok)
	assert.Equal(t, src, located, "Locate resolves to the registered source")

	t.Run("allocation requires an existing source", func(t *testing.T) {
		_, err := s.Alloc(filepath.Join(t.TempDir(), "missing.png"))
		assert.Error(t, err)
		assert.Equal(t, 1, s.Live(), "a failed allocation must not leak a slot")
	})
}

func TestMaterialize(t *testing.T) {
	s := testStore(t)
	src := createSource(t, "dog.jpeg", "jpeg bytes")
	h, err := s.Alloc(src)
	assert.NoError(t, err)

	path, err := s.Materialize(h)
	assert.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, ".jpeg", filepath.Ext(path), "the copy keeps the source extension")
	b, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(b))

	t.Run("a second materialize reuses the copy", func(t *testing.T) {
		// mutate the source, the cached copy must not change
		assert.NoError(t, os.WriteFile(src, []byte("mutated"), 0o644))
		again, err := s.Materialize(h)
		assert.NoError(t, err)
		assert.Equal(t, path, again)
		b, err := os.ReadFile(again)
		assert.NoError(t, err)
		assert.Equal(t, "jpeg bytes", string(b), "the source is read only once")
	})

	t.Run("dead handles cannot materialize", func(t *testing.T) {
		s.Release(h)
		_, err := s.Materialize(h)
		assert.Error(t, err)
	})
}

func TestReleaseExactlyOnce(t *testing.T) {
	s := testStore(t)
	src := createSource(t, "bird.png", "bird")

	h, err := s.Alloc(src)
	assert.NoError(t, err)
	path, err := s.Materialize(h)
	assert.NoError(t, err)

	s.Release(h)
	assert.Equal(t, 0, s.Live())
	assert.NoFileExists(t, path, "release removes the materialized copy")

	s.Release(h) // double release
	s.Release(0) // zero handle
	assert.Equal(t, 0, s.Live(), "dead and zero handles are no-ops")
}

func TestStaleGenerationIsIgnored(t *testing.T) {
	s := testStore(t)
	first := createSource(t, "first.png", "first")
	second := createSource(t, "second.png", "second")

	h1, err := s.Alloc(first)
	assert.NoError(t, err)
	s.Release(h1)

	// the freed slot gets recycled with a bumped generation
	h2, err := s.Alloc(second)
	assert.NoError(t, err)
	assert.NotEqual(t, h1, h2, "a recycled slot must hand out a distinct handle")

	s.Release(h1) // stale handle into the recycled slot
	assert.Equal(t, 1, s.Live(), "a stale release must not free the recycled slot")
	located, ok := s.Locate(h2)
	assert.True(t, ok)
	assert.Equal(t, second, located)
}

func TestTeardown(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, slog.New(slog.DiscardHandler))
	assert.NoError(t, err)

	var materialized []string
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		h, err := s.Alloc(createSource(t, name, name))
		assert.NoError(t, err)
		p, err := s.Materialize(h)
		assert.NoError(t, err)
		materialized = append(materialized, p)
	}
	assert.Equal(t, 3, s.Live())

	s.Teardown()
	assert.Equal(t, 0, s.Live())
	for _, p := range materialized {
		assert.NoFileExists(t, p)
	}
	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "letdrop-previews-"),
			"teardown removes the session directory")
	}

	s.Teardown() // safe to repeat

	t.Run("a torn down store refuses allocations", func(t *testing.T) {
		_, err := s.Alloc(createSource(t, "late.png", "late"))
		assert.ErrorIs(t, err, ErrTornDown)
	})
}

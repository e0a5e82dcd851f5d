// Package preview owns the preview resources allocated for staged
// images. A Handle is a slot in an arena with a generation tag, so a
// release is exactly-once even after the slot is recycled: a stale
// handle simply no-ops.
//
// Allocation is cheap and synchronous, it only registers the source
// file. Reading bytes is deferred to Materialize, which copies the
// source into the store's session directory the first time a preview is
// actually rendered. Release and Teardown remove whatever was
// materialized.
package preview

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrTornDown is returned by Alloc and Materialize after Teardown.
var ErrTornDown = errors.New("preview store is torn down")

// Handle references one allocated preview. The zero Handle is never
// live and is safe to release.
type Handle uint64

// slot index lives in the low 32 bits, generation in the high 32.
// Generations start at 1 so a live handle is never zero.
func newHandle(idx, gen uint32) Handle { return Handle(uint64(gen)<<32 | uint64(idx)) }

func (h Handle) index() uint32 { return uint32(h) }
func (h Handle) gen() uint32   { return uint32(h >> 32) }

type slot struct {
	src  string // source file the preview is generated from
	path string // materialized copy, empty until first Materialize
	gen  uint32
	live bool
}

// Store is the arena-indexed handle table. Like the intake engine it is
// owned by the host's event loop and is not safe for concurrent use.
type Store struct {
	dir   string
	log   *slog.Logger
	slots []slot
	free  []uint32
	live  int
}

// New creates a session-scoped store whose materialized previews live in
// a fresh directory under dir, an empty dir means the OS temp dir.
func New(dir string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	sessionDir, err := os.MkdirTemp(dir, "letdrop-previews-*")
	if err != nil {
		return nil, fmt.Errorf("creating preview session directory: %w", err)
	}
	return &Store{dir: sessionDir, log: log}, nil
}

// Alloc registers the file at src and returns a live handle for it. The
// source must exist, but its bytes are not read until Materialize.
func (s *Store) Alloc(src string) (Handle, error) {
	if s.dir == "" {
		return 0, ErrTornDown
	}
	if _, err := os.Stat(src); err != nil {
		return 0, fmt.Errorf("statting preview source: %w", err)
	}
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot{})
	}
	gen := s.slots[idx].gen + 1
	s.slots[idx] = slot{src: src, gen: gen, live: true}
	s.live++
	return newHandle(idx, gen), nil
}

// Locate resolves a live handle to the source path it was allocated
// for.
func (s *Store) Locate(h Handle) (string, bool) {
	sl, ok := s.lookup(h)
	if !ok {
		return "", false
	}
	return sl.src, true
}

// Materialize copies the handle's source into the session directory,
// once, and returns the path of the copy. Subsequent calls return the
// same path without touching the source again.
func (s *Store) Materialize(h Handle) (string, error) {
	if s.dir == "" {
		return "", ErrTornDown
	}
	sl, ok := s.lookup(h)
	if !ok {
		return "", fmt.Errorf("materializing preview: handle %d is not live", uint64(h))
	}
	if sl.path != "" {
		return sl.path, nil
	}
	path := filepath.Join(s.dir, fmt.Sprintf("preview-%d-%d%s", h.index(), h.gen(), filepath.Ext(sl.src)))
	if err := copyFile(sl.src, path); err != nil {
		return "", fmt.Errorf("materializing preview for %q: %w", sl.src, err)
	}
	s.slots[h.index()].path = path
	return path, nil
}

// Release frees the handle's slot and removes its materialized copy, if
// one exists. Zero, stale, and already-released handles are ignored, so
// each allocation is released at most once.
func (s *Store) Release(h Handle) {
	sl, ok := s.lookup(h)
	if !ok {
		if h != 0 {
			s.log.Debug("releasing dead preview handle", "handle", uint64(h))
		}
		return
	}
	if sl.path != "" {
		if err := os.Remove(sl.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("removing materialized preview", "path", sl.path, "err", err)
		}
	}
	idx := h.index()
	s.slots[idx].src = ""
	s.slots[idx].path = ""
	s.slots[idx].live = false
	s.free = append(s.free, idx)
	s.live--
}

// Teardown releases every live handle and removes the session
// directory. Safe to call more than once, the store rejects further
// allocations afterwards.
func (s *Store) Teardown() {
	for i := range s.slots {
		if s.slots[i].live {
			s.Release(newHandle(uint32(i), s.slots[i].gen))
		}
	}
	if s.dir != "" {
		if err := os.RemoveAll(s.dir); err != nil {
			s.log.Warn("removing preview session directory", "dir", s.dir, "err", err)
		}
		s.dir = ""
	}
}

// Live returns the number of outstanding handles.
func (s *Store) Live() int { return s.live }

func (s *Store) lookup(h Handle) (slot, bool) {
	idx := h.index()
	if h == 0 || int(idx) >= len(s.slots) {
		return slot{}, false
	}
	sl := s.slots[idx]
	if !sl.live || sl.gen != h.gen() {
		return slot{}, false
	}
	return sl, true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source file %s: %v", src, err)
	}
	defer func() {
		if err = in.Close(); err != nil {
			slog.Error("failed to close source file", "file", src, "err", err)
		}
	}()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination file %s: %v", dst, err)
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying file %s to %s: %v", src, dst, err)
	}
	return out.Close()
}

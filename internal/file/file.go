// Package file produces the candidate metadata the intake engine
// validates: display name, byte size, and the media type declared by
// the file's extension. Content is never sniffed, what a file claims
// to be is decided here and judged by the engine.
package file

import (
	"context"
	"fmt"
	"github.com/MuhamedUsman/letdrop/internal/bgtask"
	"mime"
	"os"
	"path/filepath"
)

// Info describes a single regular file on disk.
type Info struct {
	// Name is the display name, the final path element
	Name string
	// Size in bytes
	Size int64
	// MIME is the declared media type, empty when the extension is unknown
	MIME string
	// Path locates the file for preview and describe operations
	Path string
}

// DetectMIME declares a media type for name from its extension alone.
//
// Parameters:
//   - name: file name or path, only the extension matters
//
// Returns:
//   - string: media type without parameters, e.g. "text/plain", or ""
//     when the extension is unknown
func DetectMIME(name string) string {
	t := mime.TypeByExtension(filepath.Ext(name))
	if t == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

// Stat builds an Info for the regular file at path.
//
// Parameters:
//   - path: file to stat, directories are rejected
//
// Returns:
//   - Info: name, size, declared media type, and the path itself
//   - error: stat failures, or path pointing at a directory
func Stat(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("reading filestat for %q: %w", path, err)
	}
	if fi.IsDir() {
		return Info{}, fmt.Errorf("%q is a directory, not a file", path)
	}
	return Info{
		Name: fi.Name(),
		Size: fi.Size(),
		MIME: DetectMIME(fi.Name()),
		Path: path,
	}, nil
}

// CollectDir lists the regular files directly under dir, it does not
// recurse. Stats run on a bounded worker pool, os.ReadDir's name order
// is preserved in the result.
//
// Parameters:
//   - ctx: cancels the collection midway
//   - dir: directory to list
//
// Returns:
//   - []Info: one entry per regular file, in name order
//   - error: listing errors, or the first stat error encountered
func CollectDir(ctx context.Context, dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %q: %w", dir, err)
	}
	wp := bgtask.NewWorkerPool(ctx)
	infos := make([]Info, len(entries))
	keep := make([]bool, len(entries))
	for i, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		wp.Spawn(func() error {
			info, err := Stat(filepath.Join(dir, entry.Name()))
			if err != nil {
				return err
			}
			infos[i] = info
			keep[i] = true
			return nil
		})
	}
	if err = wp.Wait(); err != nil {
		return nil, fmt.Errorf("collecting files in %q: %w", dir, err)
	}
	collected := make([]Info, 0, len(entries))
	for i, ok := range keep {
		if ok {
			collected = append(collected, infos[i])
		}
	}
	return collected, nil
}

// SubDirs lists the names of the directories directly under dir, in
// os.ReadDir's name order.
func SubDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %q: %w", dir, err)
	}
	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

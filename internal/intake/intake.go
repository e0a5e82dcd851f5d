// Package intake implements the file-acceptance state machine behind
// letdrop's staging area. The engine validates candidate files against a
// configured count cap, size cap, and type rules, keeps the ordered set
// of accepted entries, surfaces at most one transient rejection message
// at a time, and owns the preview handles it allocates for staged
// images.
//
// The engine is single-threaded by contract: every method must run on
// the host's event loop. The only timed behavior is the delayed clear of
// the transient error, which the host drives through ErrEpoch and
// ClearErrAt so that a newer rejection always outlives a stale timer.
package intake

import (
	"github.com/MuhamedUsman/letdrop/internal/preview"
	"log/slog"
	"slices"
	"strings"
	"time"
)

const (
	// DefaultMaxFiles caps the staged set when Config.MaxFiles is unset.
	DefaultMaxFiles = 5
	// DefaultMaxSizeBytes caps a single file at 10 MB when
	// Config.MaxSizeBytes is unset.
	DefaultMaxSizeBytes = 10 << 20
	// ErrClearAfter is how long a rejection stays visible before the
	// host's delayed clear fires, see ClearErrAt.
	ErrClearAfter = 5 * time.Second
)

// Config is the per-engine acceptance policy, set once at construction.
type Config struct {
	// MaxFiles caps the staged entries, values < 1 fall back to
	// DefaultMaxFiles.
	MaxFiles int
	// MaxSizeBytes caps a single file's size, values < 1 fall back to
	// DefaultMaxSizeBytes.
	MaxSizeBytes int64
	// AcceptedTypes holds the type rules, see Accepts. Empty accepts
	// everything.
	AcceptedTypes []string
}

// normalize applies defaults for out-of-range values and drops rules
// that are neither an extension nor a media type.
func (c Config) normalize(log *slog.Logger) Config {
	if c.MaxFiles < 1 {
		c.MaxFiles = DefaultMaxFiles
	}
	if c.MaxSizeBytes < 1 {
		c.MaxSizeBytes = DefaultMaxSizeBytes
	}
	rules := make([]string, 0, len(c.AcceptedTypes))
	for _, r := range c.AcceptedTypes {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if !strings.HasPrefix(r, ".") && !strings.Contains(r, "/") {
			log.Warn("ignoring unrecognized type rule", "rule", r)
			continue
		}
		rules = append(rules, r)
	}
	c.AcceptedTypes = rules
	return c
}

// PreviewAllocator provisions and releases the preview resources backing
// staged images. *preview.Store satisfies it.
type PreviewAllocator interface {
	Alloc(src string) (preview.Handle, error)
	Release(h preview.Handle)
}

// Candidate is a file offered for staging. Path only backs the preview
// resource, validation never touches the filesystem.
type Candidate struct {
	Name string
	Size int64
	MIME string
	Path string
}

// Entry is a staged file. A non-zero Preview is owned exclusively by
// this entry and is released exactly once, on removal or teardown.
type Entry struct {
	Name    string
	Size    int64
	MIME    string
	Preview preview.Handle
}

// Engine is the acceptance state machine. Not safe for concurrent use,
// all methods belong on the host's event loop.
type Engine struct {
	cfg       Config
	previews  PreviewAllocator
	log       *slog.Logger
	staged    []Entry
	lastErr   *Error
	errEpoch  uint64
	observers []func([]Entry)
}

// New builds an engine with the given policy. previews may be nil, in
// which case staged images simply carry no preview handle.
func New(cfg Config, previews PreviewAllocator, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:      cfg.normalize(log),
		previews: previews,
		log:      log,
	}
}

// Policy returns the normalized acceptance policy the engine runs with.
func (e *Engine) Policy() Config {
	c := e.cfg
	c.AcceptedTypes = slices.Clone(c.AcceptedTypes)
	return c
}

// Subscribe registers fn to run with the full staged sequence after
// every mutation, synchronously, once the mutation is complete.
func (e *Engine) Subscribe(fn func([]Entry)) {
	e.observers = append(e.observers, fn)
}

// Files returns a copy of the staged entries in acceptance order.
func (e *Engine) Files() []Entry {
	return slices.Clone(e.staged)
}

// Validate checks one candidate against the size cap and type rules
// without touching engine state. Checks run in a fixed order: size
// first, then type. A nil return means the candidate passes.
func (e *Engine) Validate(c Candidate) error {
	if rej := e.validate(c); rej != nil {
		return rej
	}
	return nil
}

func (e *Engine) validate(c Candidate) *Error {
	if c.Size > e.cfg.MaxSizeBytes {
		return tooLargeErr(c.Name, e.cfg.MaxSizeBytes)
	}
	if !e.cfg.Accepts(c.Name, c.MIME) {
		return unsupportedTypeErr(c.Name)
	}
	return nil
}

// SubmitBatch runs the acceptance pass over candidates in input order
// and appends every candidate that passes to the staged set.
//
// Per candidate: validation first (size cap, then type rules), then the
// capacity check. Once capacity is hit the remainder of the batch is
// dropped for the same CapacityExceeded reason. After the pass, the
// first rejection, and only the first, becomes LastError for the host
// to display, a batch with zero rejections clears it immediately.
// Observers fire once iff at least one candidate was staged.
func (e *Engine) SubmitBatch(batch []Candidate) []Entry {
	var staged []Entry
	var rejected []*Error
	for _, c := range batch {
		if rej := e.validate(c); rej != nil {
			rejected = append(rejected, rej)
			continue
		}
		if len(e.staged)+len(staged) >= e.cfg.MaxFiles {
			rejected = append(rejected, capacityErr(c.Name, e.cfg.MaxFiles))
			break
		}
		ent := Entry{Name: c.Name, Size: c.Size, MIME: c.MIME}
		if e.previews != nil && strings.HasPrefix(c.MIME, "image/") {
			h, err := e.previews.Alloc(c.Path)
			if err != nil {
				// a failed preview never blocks staging
				e.log.Warn("allocating preview", "file", c.Name, "err", err)
			} else {
				ent.Preview = h
			}
		}
		staged = append(staged, ent)
	}
	if len(rejected) > 0 {
		e.setErr(rejected[0])
		if len(rejected) > 1 {
			e.log.Debug("dropping additional rejections", "count", len(rejected)-1)
		}
	} else {
		e.clearErr()
	}
	if len(staged) > 0 {
		e.staged = append(e.staged, staged...)
		e.notify()
	}
	return staged
}

// Remove deletes the staged entry at index i, releases its preview
// handle, and notifies observers. An out-of-range index leaves the set
// untouched and returns an *Error of Kind IndexOutOfRange, treating
// that as a no-op is fine, it guards a bug rather than a user action.
func (e *Engine) Remove(i int) error {
	if i < 0 || i >= len(e.staged) {
		return indexErr(i, len(e.staged))
	}
	if h := e.staged[i].Preview; h != 0 && e.previews != nil {
		e.previews.Release(h)
	}
	e.staged = slices.Delete(e.staged, i, i+1)
	e.notify()
	return nil
}

// Teardown releases every outstanding preview handle and empties the
// staged set, it does not notify. Calling it again is a no-op.
func (e *Engine) Teardown() {
	for _, ent := range e.staged {
		if ent.Preview != 0 && e.previews != nil {
			e.previews.Release(ent.Preview)
		}
	}
	e.staged = nil
}

// LastError returns the rejection currently surfaced to the user, if
// any.
func (e *Engine) LastError() (Error, bool) {
	if e.lastErr == nil {
		return Error{}, false
	}
	return *e.lastErr, true
}

// ErrEpoch identifies the current rejection for a delayed clear, it
// bumps every time a new rejection is surfaced.
func (e *Engine) ErrEpoch() uint64 { return e.errEpoch }

// ClearErrAt clears the transient error iff epoch still identifies it.
// A timer scheduled for an older rejection lands on a bumped epoch and
// no-ops, so the latest rejection always gets its full display window.
func (e *Engine) ClearErrAt(epoch uint64) {
	if e.errEpoch == epoch {
		e.lastErr = nil
	}
}

func (e *Engine) setErr(rej *Error) {
	e.lastErr = rej
	e.errEpoch++
	e.log.Info("batch rejection", "kind", rej.Kind, "msg", rej.Message)
}

func (e *Engine) clearErr() {
	e.lastErr = nil
}

func (e *Engine) notify() {
	if len(e.observers) == 0 {
		return
	}
	files := e.Files()
	for _, fn := range e.observers {
		fn(files)
	}
}

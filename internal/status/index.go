package status

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrOperationInProgress = errors.New("operation already in progress")

// Index maps paths to their status, revision token and pending marker. A
// token changes whenever the path may have changed on disk, so anything
// derived from the path under an older token is stale.
type Index struct {
	mu       sync.Mutex
	entries  map[string]Entry
	tokens   map[string]string
	pending  map[string]struct{}
	newToken func() string
}

func NewIndex() *Index {
	return &Index{
		entries:  map[string]Entry{},
		tokens:   map[string]string{},
		pending:  map[string]struct{}{},
		newToken: uuid.NewString,
	}
}

// Refresh replaces the status mapping and issues a new token for every known
// path. Pending markers are kept.
func (x *Index) Refresh(entries []Entry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	clear(x.entries)
	for _, e := range entries {
		if e.Clean() {
			continue
		}
		x.entries[e.Path] = e
	}
	for path := range x.tokens {
		x.tokens[path] = x.newToken()
	}
	for path := range x.entries {
		x.tokens[path] = x.newToken()
	}
}

// ApplyOptimistic marks path as having an operation in flight.
func (x *Index) ApplyOptimistic(path string) error {
	return x.ApplyOptimisticAll([]string{path})
}

// ApplyOptimisticAll marks every path or none of them.
func (x *Index) ApplyOptimisticAll(paths []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, p := range paths {
		if _, ok := x.pending[p]; ok {
			return &PendingError{Path: p}
		}
	}
	for _, p := range paths {
		x.pending[p] = struct{}{}
	}
	return nil
}

// Resolve clears the pending marker. On success entry becomes the path's
// status (nil meaning clean) and the token is bumped; on failure status and
// token are left untouched.
func (x *Index) Resolve(path string, entry *Entry, err error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	delete(x.pending, path)
	if err != nil {
		return
	}
	if entry == nil || entry.Clean() {
		delete(x.entries, path)
	} else {
		e := *entry
		e.Path = path
		x.entries[path] = e
	}
	x.tokens[path] = x.newToken()
}

// Release clears pending markers without touching status or tokens.
func (x *Index) Release(paths ...string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, p := range paths {
		delete(x.pending, p)
	}
}

// Token returns the current revision token of path, issuing one on first use.
func (x *Index) Token(path string) string {
	x.mu.Lock()
	defer x.mu.Unlock()

	tok, ok := x.tokens[path]
	if !ok {
		tok = x.newToken()
		x.tokens[path] = tok
	}
	return tok
}

func (x *Index) Lookup(path string) (Entry, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	e, ok := x.entries[path]
	return e, ok
}

func (x *Index) Pending(path string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	_, ok := x.pending[path]
	return ok
}

// Entries returns the changed paths sorted by name.
func (x *Index) Entries() []Entry {
	x.mu.Lock()
	defer x.mu.Unlock()

	out := make([]Entry, 0, len(x.entries))
	for _, e := range x.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// PendingError reports the path that already has an operation in flight.
type PendingError struct {
	Path string
}

func (e *PendingError) Error() string {
	return ErrOperationInProgress.Error() + ": " + e.Path
}

func (e *PendingError) Unwrap() error {
	return ErrOperationInProgress
}

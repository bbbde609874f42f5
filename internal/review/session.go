// Package review drives the review of one working copy: it loads the diff of
// the selected file, keeps the line selection and turns it into stage, unstage
// and discard requests against the version control service.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/thiagokokada/gitk-review/internal/diff"
	"github.com/thiagokokada/gitk-review/internal/patch"
	"github.com/thiagokokada/gitk-review/internal/selection"
	"github.com/thiagokokada/gitk-review/internal/status"
)

var (
	ErrInvalidState  = errors.New("operation not allowed in current state")
	ErrStaleSnapshot = errors.New("diff changed since it was loaded")
	ErrClosed        = errors.New("session closed")
)

// VCS is the command boundary the session talks to. *git.Service satisfies
// it.
type VCS interface {
	Status(ctx context.Context) ([]status.Entry, error)
	Diff(ctx context.Context, path string, mode diff.Mode, contextLines int) (string, error)
	ApplyPatch(ctx context.Context, text string, target patch.Target) error
	Commit(ctx context.Context, message string, amend bool) error
	Revert(ctx context.Context, paths []string) error
	Add(ctx context.Context, paths []string) error
	Delete(ctx context.Context, paths []string) error
	Update(ctx context.Context) error
	Push(ctx context.Context) error
}

type State uint8

const (
	Idle State = iota
	LoadingDiff
	Reviewing
	Submitting
	Committing
	CommitFailed
)

func (s State) String() string {
	switch s {
	case LoadingDiff:
		return "loading-diff"
	case Reviewing:
		return "reviewing"
	case Submitting:
		return "submitting"
	case Committing:
		return "committing"
	case CommitFailed:
		return "commit-failed"
	default:
		return "idle"
	}
}

// Transition is delivered to subscribers after every state change.
type Transition struct {
	From State
	To   State
	Path string
	Err  error
}

const (
	DefaultContextLines = 3
	DefaultCacheTTL     = 5 * time.Minute
)

type Option func(*Session)

func WithContextLines(n int) Option {
	return func(s *Session) { s.contextLines = n }
}

// WithPairing controls whether removed and added lines of a change block are
// selected together.
func WithPairing(on bool) Option {
	return func(s *Session) { s.pairing = on }
}

func WithMode(m diff.Mode) Option {
	return func(s *Session) { s.mode = m }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Session) { s.cacheTTL = ttl }
}

type Session struct {
	vcs      VCS
	index    *status.Index
	cache    *gocache.Cache
	cacheTTL time.Duration
	pairing  bool

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu           sync.Mutex
	state        State
	path         string
	mode         diff.Mode
	contextLines int
	snap         *diff.Snapshot
	sel          *selection.Selection
	lastErr      error
	message      string
	seq          uint64
	cancelLoad   context.CancelFunc
	closed       bool
	subs         []func(Transition)
	queued       []Transition
}

func New(vcs VCS, opts ...Option) *Session {
	ctx, stop := context.WithCancel(context.Background())
	s := &Session{
		vcs:          vcs,
		index:        status.NewIndex(),
		cacheTTL:     DefaultCacheTTL,
		pairing:      true,
		contextLines: DefaultContextLines,
		ctx:          ctx,
		stop:         stop,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = gocache.New(s.cacheTTL, 2*s.cacheTTL)
	return s
}

// Subscribe registers fn for state transitions. Callbacks run outside the
// session lock, on the goroutine that caused the transition. The returned
// function removes the subscription.
func (s *Session) Subscribe(fn func(Transition)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = append(s.subs, fn)
	i := len(s.subs) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs[i] = nil
	}
}

// unlock releases the session lock and then delivers queued transitions.
func (s *Session) unlock() {
	queued := s.queued
	s.queued = nil
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	for _, t := range queued {
		for _, fn := range subs {
			if fn != nil {
				fn(t)
			}
		}
	}
}

func (s *Session) transitionLocked(to State, err error) {
	t := Transition{From: s.state, To: to, Path: s.path, Err: err}
	s.state = to
	s.queued = append(s.queued, t)
	attrs := []any{
		slog.String("from", t.From.String()),
		slog.String("to", t.To.String()),
		slog.String("path", t.Path),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	slog.Debug("review transition", attrs...)
}

func (s *Session) checkLocked(op string, allowed ...State) error {
	if s.closed {
		return ErrClosed
	}
	if !slices.Contains(allowed, s.state) {
		return fmt.Errorf("%w: %s while %s", ErrInvalidState, op, s.state)
	}
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Path returns the file under review, or "" when idle.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *Session) Mode() diff.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) ContextLines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contextLines
}

// Snapshot returns the diff under review. Snapshots are immutable.
func (s *Session) Snapshot() *diff.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Selection returns the selected lines in snapshot order.
func (s *Session) Selection() []selection.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sel == nil {
		return nil
	}
	return s.sel.Keys()
}

func (s *Session) IsSelected(chunk, line int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel != nil && s.sel.IsSelected(chunk, line)
}

func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// CommitMessage returns the message kept from the last failed commit.
func (s *Session) CommitMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func (s *Session) SetCommitMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
}

// Entries returns the changed files from the last status refresh.
func (s *Session) Entries() []status.Entry {
	return s.index.Entries()
}

func (s *Session) Pending(path string) bool {
	return s.index.Pending(path)
}

// Wait blocks until background diff loads have finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight loads and waits for them. Further operations fail
// with ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
	return nil
}

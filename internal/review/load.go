package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/thiagokokada/gitk-review/internal/diff"
	"github.com/thiagokokada/gitk-review/internal/selection"
)

// SelectFile starts loading the diff of path. Any load still in flight is
// cancelled and its response dropped.
func (s *Session) SelectFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("no file selected")
	}
	s.mu.Lock()
	defer s.unlock()

	if err := s.checkLocked("select file", Idle, LoadingDiff, Reviewing, CommitFailed); err != nil {
		return err
	}
	s.lastErr = nil
	s.startLoadLocked(path)
	return nil
}

// SetPatchMode switches between the staged and unstaged diff and reloads the
// current file.
func (s *Session) SetPatchMode(mode diff.Mode) error {
	s.mu.Lock()
	defer s.unlock()

	if err := s.checkLocked("set mode", Idle, LoadingDiff, Reviewing, CommitFailed); err != nil {
		return err
	}
	if s.mode == mode {
		return nil
	}
	s.mode = mode
	s.reloadActiveLocked()
	return nil
}

// SetContextLines changes the number of context lines around changes. A
// negative value asks for the whole file.
func (s *Session) SetContextLines(n int) error {
	s.mu.Lock()
	defer s.unlock()

	if err := s.checkLocked("set context", Idle, LoadingDiff, Reviewing, CommitFailed); err != nil {
		return err
	}
	if s.contextLines == n {
		return nil
	}
	s.contextLines = n
	s.reloadActiveLocked()
	return nil
}

func (s *Session) reloadActiveLocked() {
	if s.path == "" {
		return
	}
	if s.state == LoadingDiff || s.state == Reviewing {
		s.startLoadLocked(s.path)
	}
}

func (s *Session) startLoadLocked(path string) {
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelLoad = cancel

	s.path = path
	s.snap, s.sel = nil, nil
	mode, n := s.mode, s.contextLines
	token := s.index.Token(path)
	s.transitionLocked(LoadingDiff, nil)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.load(ctx, seq, path, mode, n, token)
	}()
}

func (s *Session) load(ctx context.Context, seq uint64, path string, mode diff.Mode, n int, token string) {
	snap, err := s.fetchSnapshot(ctx, path, mode, n, token)

	s.mu.Lock()
	defer s.unlock()

	if seq != s.seq || s.closed {
		slog.Debug("dropping superseded diff", slog.String("path", path), slog.Uint64("seq", seq))
		return
	}
	if err != nil {
		s.lastErr = fmt.Errorf("diff unavailable for %s: %w", path, err)
		s.snap, s.sel = nil, nil
		s.transitionLocked(Idle, s.lastErr)
		s.path = ""
		return
	}
	if s.index.Token(path) != token {
		slog.Debug("diff went stale while loading", slog.String("path", path))
		s.startLoadLocked(path)
		return
	}
	s.snap = snap
	s.sel = selection.New(snap, selection.WithPairing(s.pairing))
	s.transitionLocked(Reviewing, nil)
}

func cacheKey(path string, mode diff.Mode, n int, token string) string {
	return fmt.Sprintf("%s\x00%d\x00%d\x00%s", path, mode, n, token)
}

func (s *Session) fetchSnapshot(ctx context.Context, path string, mode diff.Mode, n int, token string) (*diff.Snapshot, error) {
	key := cacheKey(path, mode, n, token)
	if v, ok := s.cache.Get(key); ok {
		if raw, ok := v.(string); ok {
			slog.Debug("diff cache hit", slog.String("path", path))
			return diff.Parse(raw, path, mode, token)
		}
	}
	raw, err := s.vcs.Diff(ctx, path, mode, n)
	if err != nil {
		return nil, err
	}
	snap, err := diff.Parse(raw, path, mode, token)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, raw)
	return snap, nil
}

// Refresh is the external refresh signal: it reloads the status and, when a
// file is under review, its diff. The selection survives when the diff did
// not change.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkLocked("refresh", Idle, LoadingDiff, Reviewing, CommitFailed); err != nil {
		s.unlock()
		return err
	}
	seq, path, mode, n := s.seq, s.path, s.mode, s.contextLines
	active := s.state == Reviewing
	s.unlock()

	var raw string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.refreshStatus(gctx)
	})
	if active {
		g.Go(func() error {
			var err error
			raw, err = s.vcs.Diff(gctx, path, mode, n)
			return err
		})
	}
	err := g.Wait()

	s.mu.Lock()
	defer s.unlock()

	if !active || seq != s.seq || s.state != Reviewing || s.closed {
		return err
	}
	if err != nil {
		s.lastErr = err
		return err
	}
	token := s.index.Token(path)
	snap, perr := diff.Parse(raw, path, mode, token)
	if perr != nil {
		s.lastErr = fmt.Errorf("diff unavailable for %s: %w", path, perr)
		s.snap, s.sel = nil, nil
		s.transitionLocked(Idle, s.lastErr)
		s.path = ""
		return s.lastErr
	}
	s.cache.SetDefault(cacheKey(path, mode, n, token), raw)

	sel := selection.New(snap, selection.WithPairing(s.pairing))
	if s.snap != nil && s.sel != nil && s.snap.String() == snap.String() {
		for _, k := range s.sel.Keys() {
			sel.SetLine(k.Chunk, k.Line, true)
		}
	}
	s.snap, s.sel = snap, sel
	s.transitionLocked(Reviewing, nil)
	return nil
}

func (s *Session) refreshStatus(ctx context.Context) error {
	entries, err := s.vcs.Status(ctx)
	if err != nil {
		return fmt.Errorf("refresh status: %w", err)
	}
	s.index.Refresh(entries)
	return nil
}

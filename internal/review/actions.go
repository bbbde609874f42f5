package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
	"github.com/thiagokokada/gitk-review/internal/patch"
	"github.com/thiagokokada/gitk-review/internal/selection"
)

func (s *Session) editSelection(op string, fn func(*selection.Selection)) error {
	s.mu.Lock()
	defer s.unlock()

	if err := s.checkLocked(op, Reviewing); err != nil {
		return err
	}
	fn(s.sel)
	return nil
}

func (s *Session) ToggleLineSelection(chunk, line int) error {
	return s.editSelection("toggle line", func(sel *selection.Selection) { sel.ToggleLine(chunk, line) })
}

// SelectLine marks a line (and its partner when pairing) as selected
// regardless of its current state.
func (s *Session) SelectLine(chunk, line int) error {
	return s.editSelection("select line", func(sel *selection.Selection) { sel.SetLine(chunk, line, true) })
}

func (s *Session) ToggleChunkSelection(chunk int) error {
	return s.editSelection("toggle chunk", func(sel *selection.Selection) { sel.ToggleChunk(chunk) })
}

func (s *Session) SelectAll() error {
	return s.editSelection("select all", (*selection.Selection).SelectAll)
}

func (s *Session) ClearSelection() error {
	return s.editSelection("clear selection", (*selection.Selection).Clear)
}

// SubmitSelection builds the patch for the current selection and applies it.
// On success the diff is reloaded; the returned error reports failures of
// the build or the apply.
func (s *Session) SubmitSelection(ctx context.Context, mode patch.Mode) error {
	s.mu.Lock()
	if err := s.checkLocked("submit", Reviewing); err != nil {
		s.unlock()
		return err
	}
	snap, sel, path := s.snap, s.sel, s.path
	if s.index.Token(path) != snap.Token {
		s.startLoadLocked(path)
		s.unlock()
		return fmt.Errorf("%w: %s", ErrStaleSnapshot, path)
	}
	text, err := patch.Build(snap, sel, mode, s.contextLines)
	if err != nil {
		s.unlock()
		return err
	}
	if err := s.index.ApplyOptimistic(path); err != nil {
		s.unlock()
		return err
	}
	s.lastErr = nil
	s.transitionLocked(Submitting, nil)
	s.unlock()

	slog.Debug("submit selection",
		slog.String("path", path),
		slog.String("mode", mode.String()),
		slog.Int("lines", sel.Count()),
	)
	applyErr := s.vcs.ApplyPatch(ctx, text, patch.TargetFor(mode))

	switch {
	case applyErr == nil:
		statusErr := s.refreshStatus(ctx)
		entry, ok := s.index.Lookup(path)
		if ok {
			s.index.Resolve(path, &entry, nil)
		} else {
			s.index.Resolve(path, nil, nil)
		}
		s.mu.Lock()
		defer s.unlock()
		if statusErr != nil {
			s.lastErr = statusErr
		}
		s.afterSubmitLocked(path)
		return nil

	case errors.Is(applyErr, gitbackend.ErrApplyRejected), errors.Is(applyErr, gitbackend.ErrConflictDetected):
		s.index.Release(path)
		if err := s.refreshStatus(ctx); err != nil {
			slog.Debug("refresh after rejected patch", slog.Any("error", err))
		}
		s.mu.Lock()
		defer s.unlock()
		s.lastErr = applyErr
		s.afterSubmitLocked(path)
		return applyErr

	default:
		s.index.Release(path)
		s.mu.Lock()
		defer s.unlock()
		s.lastErr = applyErr
		if s.state == Submitting {
			s.transitionLocked(Reviewing, applyErr)
		}
		return applyErr
	}
}

func (s *Session) afterSubmitLocked(path string) {
	if s.closed || s.state != Submitting {
		return
	}
	s.startLoadLocked(path)
}

// Commit records the index as a new commit. A failed commit leaves the
// session in CommitFailed with the message kept for another attempt.
func (s *Session) Commit(ctx context.Context, message string, amend bool) error {
	s.mu.Lock()
	if err := s.checkLocked("commit", Idle, Reviewing, CommitFailed); err != nil {
		s.unlock()
		return err
	}
	s.message = message
	s.lastErr = nil
	s.transitionLocked(Committing, nil)
	s.unlock()

	if err := s.vcs.Commit(ctx, message, amend); err != nil {
		s.mu.Lock()
		defer s.unlock()
		s.lastErr = err
		s.transitionLocked(CommitFailed, err)
		return err
	}

	statusErr := s.refreshStatus(ctx)

	s.mu.Lock()
	defer s.unlock()
	s.message = ""
	s.snap, s.sel = nil, nil
	s.lastErr = statusErr
	s.transitionLocked(Idle, nil)
	s.path = ""
	return nil
}

// ResumeReview leaves CommitFailed, returning to the diff that was under
// review if there was one.
func (s *Session) ResumeReview() error {
	s.mu.Lock()
	defer s.unlock()

	if err := s.checkLocked("resume review", CommitFailed); err != nil {
		return err
	}
	if s.snap == nil {
		s.transitionLocked(Idle, nil)
		s.path = ""
		return nil
	}
	s.transitionLocked(Reviewing, nil)
	return nil
}

// AddFiles stages whole files.
func (s *Session) AddFiles(ctx context.Context, paths []string) error {
	return s.fileOp(ctx, "add", paths, s.vcs.Add)
}

// RevertFiles drops the working tree changes of whole files.
func (s *Session) RevertFiles(ctx context.Context, paths []string) error {
	return s.fileOp(ctx, "revert", paths, s.vcs.Revert)
}

// DeleteFiles removes files from the index and the working tree.
func (s *Session) DeleteFiles(ctx context.Context, paths []string) error {
	return s.fileOp(ctx, "delete", paths, s.vcs.Delete)
}

func (s *Session) fileOp(ctx context.Context, op string, paths []string, fn func(context.Context, []string) error) error {
	s.mu.Lock()
	if err := s.checkLocked(op, Idle, LoadingDiff, Reviewing, CommitFailed); err != nil {
		s.unlock()
		return err
	}
	s.unlock()

	if len(paths) == 0 {
		return fmt.Errorf("%s: no files", op)
	}
	if err := s.index.ApplyOptimisticAll(paths); err != nil {
		return err
	}
	if err := fn(ctx, paths); err != nil {
		s.index.Release(paths...)
		s.mu.Lock()
		s.lastErr = err
		s.unlock()
		return err
	}
	statusErr := s.refreshStatus(ctx)
	for _, p := range paths {
		if entry, ok := s.index.Lookup(p); ok {
			s.index.Resolve(p, &entry, nil)
		} else {
			s.index.Resolve(p, nil, nil)
		}
	}
	slog.Debug(op, slog.Any("paths", paths))

	s.mu.Lock()
	defer s.unlock()
	if statusErr != nil {
		s.lastErr = statusErr
	}
	s.reloadActiveLocked()
	return statusErr
}

// Update pulls upstream changes into the working copy.
func (s *Session) Update(ctx context.Context) error {
	return s.repoOp(ctx, "update", s.vcs.Update)
}

func (s *Session) Push(ctx context.Context) error {
	return s.repoOp(ctx, "push", s.vcs.Push)
}

func (s *Session) repoOp(ctx context.Context, op string, fn func(context.Context) error) error {
	s.mu.Lock()
	if err := s.checkLocked(op, Idle, LoadingDiff, Reviewing, CommitFailed); err != nil {
		s.unlock()
		return err
	}
	s.unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.unlock()
		return err
	}
	statusErr := s.refreshStatus(ctx)

	s.mu.Lock()
	defer s.unlock()
	if statusErr != nil {
		s.lastErr = statusErr
	}
	s.reloadActiveLocked()
	return statusErr
}

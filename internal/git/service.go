// Package git is the version control service a review session talks to. It
// wraps a backend with capability checks, locking and logging.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/thiagokokada/gitk-review/internal/diff"
	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
	"github.com/thiagokokada/gitk-review/internal/patch"
	"github.com/thiagokokada/gitk-review/internal/status"
)

type Service struct {
	// mu serializes operations that change the repository.
	mu sync.Mutex

	backend gitbackend.Backend
}

func Open(repoPath string, kind gitbackend.Kind) (*Service, error) {
	b, err := gitbackend.Open(kind, repoPath)
	if err != nil {
		return nil, err
	}
	slog.Debug("open repository",
		slog.String("path", b.RepoPath()),
		slog.String("backend", string(kind)),
		slog.String("capabilities", b.Capabilities().String()),
	)
	return NewWithBackend(b), nil
}

func NewWithBackend(b gitbackend.Backend) *Service {
	return &Service{backend: b}
}

func (s *Service) RepoPath() string {
	if s.backend == nil {
		return ""
	}
	return s.backend.RepoPath()
}

func (s *Service) Capabilities() gitbackend.Capabilities {
	if s.backend == nil {
		return 0
	}
	return s.backend.Capabilities()
}

func (s *Service) ready() error {
	if s.backend == nil || s.backend.RepoPath() == "" {
		return fmt.Errorf("repository root not set")
	}
	return nil
}

func (s *Service) require(op string, flag gitbackend.Capabilities) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !s.backend.Capabilities().Has(flag) {
		return fmt.Errorf("%s: %w", op, gitbackend.ErrUnsupported)
	}
	return nil
}

func (s *Service) Status(ctx context.Context) ([]status.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	start := time.Now()
	entries, err := s.backend.Status(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("status", slog.Int("entries", len(entries)), slog.Duration("took", time.Since(start)))
	return entries, nil
}

func (s *Service) Diff(ctx context.Context, path string, mode diff.Mode, contextLines int) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	start := time.Now()
	out, err := s.backend.Diff(ctx, path, mode, contextLines)
	if err != nil {
		return "", err
	}
	slog.Debug("diff",
		slog.String("path", path),
		slog.String("mode", mode.String()),
		slog.Int("context", contextLines),
		slog.Int("bytes", len(out)),
		slog.Duration("took", time.Since(start)),
	)
	return out, nil
}

func (s *Service) ApplyPatch(ctx context.Context, text string, target patch.Target) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.ApplyPatch(ctx, text, target); err != nil {
		slog.Debug("apply patch failed", slog.String("target", target.String()), slog.Any("error", err))
		return err
	}
	slog.Debug("apply patch", slog.String("target", target.String()), slog.Int("bytes", len(text)))
	return nil
}

func (s *Service) Commit(ctx context.Context, message string, amend bool) error {
	if amend {
		if err := s.require("amend", gitbackend.CanAmend); err != nil {
			return err
		}
	} else if err := s.ready(); err != nil {
		return err
	}
	if !amend && strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: empty commit message", gitbackend.ErrCommit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Commit(ctx, message, amend); err != nil {
		return err
	}
	slog.Info("commit created", slog.Bool("amend", amend))
	return nil
}

func (s *Service) pathOp(ctx context.Context, op string, paths []string, fn func(context.Context, []string) error) error {
	if err := s.ready(); err != nil {
		return err
	}
	paths = cleanPaths(paths)
	if len(paths) == 0 {
		return fmt.Errorf("%s: %w: no paths", op, gitbackend.ErrPathNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(ctx, paths); err != nil {
		return err
	}
	slog.Debug(op, slog.Any("paths", paths))
	return nil
}

func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Revert drops the working tree changes of paths.
func (s *Service) Revert(ctx context.Context, paths []string) error {
	return s.pathOp(ctx, "revert", paths, s.backend.Revert)
}

// Add stages whole files, including deletions and untracked files.
func (s *Service) Add(ctx context.Context, paths []string) error {
	return s.pathOp(ctx, "add", paths, s.backend.Add)
}

// Delete removes files from the index and the working tree.
func (s *Service) Delete(ctx context.Context, paths []string) error {
	return s.pathOp(ctx, "delete", paths, s.backend.Remove)
}

// Update brings the current branch up to date with its upstream.
func (s *Service) Update(ctx context.Context) error {
	if err := s.require("update", gitbackend.CanUpdate); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Update(ctx)
}

func (s *Service) Push(ctx context.Context) error {
	if err := s.require("push", gitbackend.CanPush); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Push(ctx)
}

// IsUnsupported reports whether err comes from a capability the backend
// lacks.
func IsUnsupported(err error) bool {
	return errors.Is(err, gitbackend.ErrUnsupported)
}

package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
)

// LocalBranchNames lists the local branches, sorted and without duplicates,
// together with the branch HEAD points at ("HEAD" when detached or unborn).
func (s *Service) LocalBranchNames(ctx context.Context) ([]string, string, error) {
	if err := s.ready(); err != nil {
		return nil, "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	refs, err := s.backend.ListRefs(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list branches: %w", err)
	}
	var names []string
	for _, ref := range refs {
		if name := strings.TrimSpace(ref.Name); ref.Kind == gitbackend.RefKindBranch && name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	head, err := s.checkedOutLocked(ctx)
	if err != nil {
		return nil, "", err
	}
	return slices.Compact(names), head, nil
}

func (s *Service) checkedOutLocked(ctx context.Context) (string, error) {
	_, name, ok, err := s.backend.HeadState(ctx)
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	if name = strings.TrimSpace(name); !ok || name == "" {
		return "HEAD", nil
	}
	return name, nil
}

// SwitchBranch checks out an existing local branch.
func (s *Service) SwitchBranch(ctx context.Context, branch string) error {
	if err := s.require("switch branch", gitbackend.CanSwitchBranch); err != nil {
		return err
	}
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return errors.New("switch branch: no branch name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slog.Debug("switch branch", slog.String("branch", branch))
	return s.backend.SwitchBranch(ctx, branch)
}

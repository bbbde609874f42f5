package backend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotRepository    = errors.New("not a git repository")
	ErrNotFound         = errors.New("path not found")
	ErrNoWriteAccess    = errors.New("no write access")
	ErrApplyRejected    = errors.New("patch rejected")
	ErrConflictDetected = errors.New("conflict detected")
	ErrNothingToCommit  = errors.New("nothing to commit")
	ErrCommit           = errors.New("commit failed")
	ErrPathNotFound     = errors.New("pathspec did not match")
	ErrUnsupported      = errors.New("operation not supported by backend")
)

var errorPatterns = []struct {
	err      error
	patterns []string
}{
	{ErrNotRepository, []string{"not a git repository"}},
	{ErrNoWriteAccess, []string{"permission denied", "read-only file system", "unable to create", "unable to write"}},
	{ErrNothingToCommit, []string{"nothing to commit", "nothing added to commit", "no changes added to commit"}},
	{ErrConflictDetected, []string{
		"needs merge", "unmerged", "conflict", "already exists in working directory",
		"already exists in index", "has local modifications", "has staged content different",
		"would be overwritten",
	}},
	{ErrApplyRejected, []string{"patch does not apply", "corrupt patch", "patch failed", "while searching for", "does not match index"}},
	{ErrPathNotFound, []string{"did not match any file", "does not exist in index", "no such path"}},
}

// classifyGitError maps git's output to a sentinel error. fallback is used
// when nothing matches; a nil fallback keeps the original error.
func classifyGitError(op, output string, err, fallback error) error {
	output = strings.TrimSpace(output)
	lower := strings.ToLower(output)
	sentinel := fallback
	for _, p := range errorPatterns {
		if containsAny(lower, p.patterns) {
			sentinel = p.err
			break
		}
	}
	if errors.Is(fallback, ErrApplyRejected) && errors.Is(sentinel, ErrPathNotFound) {
		sentinel = ErrApplyRejected
	}
	if sentinel == nil {
		if output != "" {
			return fmt.Errorf("%s: %w: %s", op, err, output)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if output == "" {
		output = err.Error()
	}
	return fmt.Errorf("%s: %w: %s", op, sentinel, output)
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

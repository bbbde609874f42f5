package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/thiagokokada/gitk-review/internal/diff"
	"github.com/thiagokokada/gitk-review/internal/patch"
	"github.com/thiagokokada/gitk-review/internal/status"
)

func (g *gitCLI) Status(ctx context.Context) ([]status.Entry, error) {
	out, err := g.runGitCommand(ctx, []string{"status", "--porcelain=v2", "--untracked-files=all"}, false, "git status")
	if err != nil {
		return nil, err
	}
	entries, err := status.ParsePorcelainV2(strings.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("parse git status: %w", err)
	}
	return entries, nil
}

func contextArg(contextLines int) string {
	if contextLines < 0 {
		contextLines = largeContext
	}
	return "-U" + strconv.Itoa(contextLines)
}

func (g *gitCLI) Diff(ctx context.Context, path string, mode diff.Mode, contextLines int) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrNotFound)
	}
	args := []string{"diff", "--no-color", "--no-ext-diff", contextArg(contextLines)}
	if mode == diff.Staged {
		args = append(args, "--cached")
	}
	args = append(args, "--", path)
	out, err := g.run(ctx, gitCommand{args: args, allowExit1: true, op: "git diff"})
	if err != nil || out != "" {
		return out, err
	}
	if mode == diff.Unstaged {
		untracked, err := g.isUntracked(ctx, path)
		if err != nil {
			return "", err
		}
		if untracked {
			return g.run(ctx, gitCommand{
				args:       []string{"diff", "--no-color", "--no-ext-diff", "--no-index", contextArg(contextLines), "--", os.DevNull, path},
				allowExit1: true,
				op:         "git diff --no-index",
			})
		}
	}
	known, err := g.isKnown(ctx, path)
	if err != nil {
		return "", err
	}
	if !known {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return "", nil
}

func (g *gitCLI) isUntracked(ctx context.Context, path string) (bool, error) {
	out, err := g.runGitCommand(ctx, []string{"ls-files", "--others", "--exclude-standard", "--", path}, false, "git ls-files")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// isKnown reports whether path exists in the index, HEAD or on disk.
func (g *gitCLI) isKnown(ctx context.Context, path string) (bool, error) {
	if _, err := os.Lstat(filepath.Join(g.path, path)); err == nil {
		return true, nil
	}
	out, err := g.runGitCommand(ctx, []string{"ls-files", "--cached", "--", path}, false, "git ls-files")
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(out) != "" {
		return true, nil
	}
	out, err = g.runGitCommand(ctx, []string{"ls-tree", "--name-only", "HEAD", "--", path}, true, "git ls-tree")
	if err != nil {
		// An unborn HEAD has no tree to look into.
		return false, nil
	}
	return strings.TrimSpace(out) != "", nil
}

func (g *gitCLI) ApplyPatch(ctx context.Context, text string, target patch.Target) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty patch", ErrApplyRejected)
	}
	args := []string{"apply", "--unidiff-zero", "--whitespace=nowarn"}
	if target == patch.Index {
		args = append(args, "--cached")
	}
	args = append(args, "-")
	_, err := g.run(ctx, gitCommand{args: args, stdin: text, op: "git apply", fallback: ErrApplyRejected})
	return err
}

func (g *gitCLI) Commit(ctx context.Context, message string, amend bool) error {
	args := []string{"commit"}
	if amend {
		args = append(args, "--amend")
	}
	if strings.TrimSpace(message) == "" {
		if !amend {
			return fmt.Errorf("%w: empty commit message", ErrCommit)
		}
		args = append(args, "--no-edit")
	} else {
		args = append(args, "-F", "-")
	}
	_, err := g.run(ctx, gitCommand{args: args, stdin: message, op: "git commit", fallback: ErrCommit})
	return err
}

func (g *gitCLI) pathCommand(ctx context.Context, op string, args []string, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("%s: %w: no paths", op, ErrPathNotFound)
	}
	args = append(args, "--")
	args = append(args, paths...)
	_, err := g.run(ctx, gitCommand{args: args, op: op})
	return err
}

func (g *gitCLI) Revert(ctx context.Context, paths []string) error {
	return g.pathCommand(ctx, "git checkout", []string{"checkout"}, paths)
}

func (g *gitCLI) Add(ctx context.Context, paths []string) error {
	return g.pathCommand(ctx, "git add", []string{"add", "-A"}, paths)
}

func (g *gitCLI) Remove(ctx context.Context, paths []string) error {
	return g.pathCommand(ctx, "git rm", []string{"rm", "-q"}, paths)
}

func (g *gitCLI) Update(ctx context.Context) error {
	_, err := g.runGitCommand(ctx, []string{"pull", "--ff-only"}, false, "git pull")
	return err
}

func (g *gitCLI) Push(ctx context.Context) error {
	_, err := g.runGitCommand(ctx, []string{"push"}, false, "git push")
	return err
}

func (g *gitCLI) HeadState(ctx context.Context) (hash string, headName string, ok bool, err error) {
	if g == nil || g.path == "" {
		return "", "", false, fmt.Errorf("repository root not set")
	}
	out, err := g.runGitCommand(ctx, []string{"rev-parse", "-q", "--verify", "HEAD"}, true, "git rev-parse")
	if err != nil {
		return "", "", false, err
	}
	hash = strings.TrimSpace(out)
	if hash == "" {
		return "", "", false, nil
	}
	ref, err := g.runGitCommand(ctx, []string{"symbolic-ref", "-q", "--short", "HEAD"}, true, "git symbolic-ref")
	if err != nil {
		return "", "", false, err
	}
	headName = strings.TrimSpace(ref)
	if headName == "" {
		headName = "HEAD"
	}
	return hash, headName, true, nil
}

func (g *gitCLI) ListRefs(ctx context.Context) ([]Ref, error) {
	if g == nil || g.path == "" {
		return nil, nil
	}
	out, err := g.runGitCommand(
		ctx,
		[]string{
			"--no-pager",
			"show-ref",
			"--dereference",
		},
		true,
		"git show-ref",
	)
	if err != nil {
		return nil, err
	}
	return parseRefsFromShowRef(out)
}

func (g *gitCLI) SwitchBranch(ctx context.Context, branch string) error {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return errors.New("branch not specified")
	}
	_, err := g.runGitCommand(ctx, []string{"switch", "--", branch}, false, "git switch")
	return err
}

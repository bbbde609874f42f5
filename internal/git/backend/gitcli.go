package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type gitCLI struct {
	path string
}

func OpenCLI(repoPath string) (Backend, error) {
	if err := gitUsable(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	tmp := &gitCLI{path: abs}
	root, err := tmp.runGitCommand(context.Background(), []string{"rev-parse", "--show-toplevel"}, false, "git rev-parse")
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("open repository: git rev-parse returned empty root")
	}
	return &gitCLI{path: root}, nil
}

func (g *gitCLI) RepoPath() string {
	if g == nil {
		return ""
	}
	return g.path
}

func (g *gitCLI) Capabilities() Capabilities {
	return CanUpdate | CanPush | CanSwitchBranch | CanAmend
}

// gitCommand describes one git invocation.
type gitCommand struct {
	args       []string
	stdin      string
	allowExit1 bool
	op         string // label used in errors, e.g. "git apply"
	fallback   error  // sentinel for failures classifyGitError cannot place
}

func (g *gitCLI) runGitCommand(ctx context.Context, args []string, allowExit1 bool, op string) (string, error) {
	return g.run(ctx, gitCommand{args: args, allowExit1: allowExit1, op: op})
}

func (g *gitCLI) run(ctx context.Context, c gitCommand) (string, error) {
	if g == nil || g.path == "" {
		return "", fmt.Errorf("repository root not set")
	}
	cmdArgs := append([]string{"-C", g.path}, c.args...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	// Messages are matched in English when classifying failures.
	cmd.Env = append(os.Environ(), "LC_ALL=C", "GIT_TERMINAL_PROMPT=0")
	if c.stdin != "" {
		cmd.Stdin = strings.NewReader(c.stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("run git", slog.String("op", c.op), slog.Any("args", c.args))
	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if c.allowExit1 && errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && stderr.Len() == 0 {
			// treat as success when git diff signals changes via exit code 1
		} else {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", fmt.Errorf("%s: %w", c.op, ctxErr)
			}
			output := stderr.String()
			if strings.TrimSpace(output) == "" {
				output = stdout.String()
			}
			return "", classifyGitError(c.op, output, err, c.fallback)
		}
	}
	return stdout.String(), nil
}

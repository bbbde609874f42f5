package backend

import (
	"errors"
	"strings"
	"testing"
)

func TestParseRefsFromShowRef(t *testing.T) {
	t.Parallel()

	const (
		commit1 = "1111111111111111111111111111111111111111"
		commit2 = "2222222222222222222222222222222222222222"
		tagObj  = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	)

	in := strings.Join([]string{
		commit1 + " refs/heads/main",
		commit1 + " refs/remotes/origin/main",
		commit1 + " refs/remotes/origin/HEAD",
		commit2 + " refs/tags/v1.0",
		tagObj + " refs/tags/v2.0",
		commit1 + " refs/tags/v2.0^{}",
		commit2 + " refs/notes/commits",
		"",
	}, "\n")

	got, err := parseRefsFromShowRef(in)
	if err != nil {
		t.Fatalf("parseRefsFromShowRef() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("unexpected ref count: got %d want 5", len(got))
	}

	assertHasRef(t, got, Ref{Hash: commit1, Kind: RefKindBranch, Name: "main"})
	assertHasRef(t, got, Ref{Hash: commit1, Kind: RefKindRemoteBranch, Name: "origin/main"})
	assertHasRef(t, got, Ref{Hash: commit1, Kind: RefKindRemoteBranch, Name: "origin/HEAD"})
	assertHasRef(t, got, Ref{Hash: commit2, Kind: RefKindTag, Name: "v1.0"})
	// v2.0 should use the peeled hash.
	assertHasRef(t, got, Ref{Hash: commit1, Kind: RefKindTag, Name: "v2.0"})
}

func TestParseRefsFromShowRef_InvalidLine(t *testing.T) {
	t.Parallel()

	_, err := parseRefsFromShowRef("refs/heads/main\n")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestClassifyGitError(t *testing.T) {
	t.Parallel()

	base := errors.New("exit status 1")
	tests := []struct {
		name     string
		output   string
		fallback error
		want     error
	}{
		{name: "apply_rejected", output: "error: patch failed: f.txt:1\nerror: f.txt: patch does not apply", fallback: ErrApplyRejected, want: ErrApplyRejected},
		{name: "apply_missing_in_index", output: "error: f.txt: does not exist in index", fallback: ErrApplyRejected, want: ErrApplyRejected},
		{name: "apply_conflict", output: "error: f.txt: already exists in working directory", fallback: ErrApplyRejected, want: ErrConflictDetected},
		{name: "unmerged", output: "error: f.txt: needs merge", fallback: ErrApplyRejected, want: ErrConflictDetected},
		{name: "nothing_to_commit", output: "On branch main\nnothing to commit, working tree clean", fallback: ErrCommit, want: ErrNothingToCommit},
		{name: "commit_hook", output: "pre-commit hook failed", fallback: ErrCommit, want: ErrCommit},
		{name: "permission", output: "error: unable to create 'x/.git/index.lock': Permission denied", want: ErrNoWriteAccess},
		{name: "pathspec", output: "error: pathspec 'nope' did not match any file(s) known to git", want: ErrPathNotFound},
		{name: "rm_modified", output: "error: the following file has local modifications:\n    f.txt", want: ErrConflictDetected},
		{name: "not_repo", output: "fatal: not a git repository (or any of the parent directories): .git", want: ErrNotRepository},
		{name: "unknown_keeps_original", output: "fatal: something odd", want: base},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := classifyGitError("git op", tt.output, base, tt.fallback)
			if !errors.Is(err, tt.want) {
				t.Fatalf("classifyGitError() = %v, want %v", err, tt.want)
			}
			if !strings.HasPrefix(err.Error(), "git op: ") {
				t.Fatalf("error %q does not name the operation", err)
			}
		})
	}
}

func TestContextArg(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want string
	}{
		{in: 3, want: "-U3"},
		{in: 0, want: "-U0"},
		{in: -1, want: "-U999999999"},
	}
	for _, tt := range tests {
		if got := contextArg(tt.in); got != tt.want {
			t.Fatalf("contextArg(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	cli := (&gitCLI{}).Capabilities()
	if !cli.Has(CanUpdate | CanPush | CanSwitchBranch) {
		t.Fatalf("cli capabilities = %s, want update, push and switch-branch", cli)
	}
	nat := (&native{}).Capabilities()
	if nat.Has(CanPush) || nat.Has(CanUpdate) {
		t.Fatalf("native capabilities = %s, want no push or update", nat)
	}
	if got := Capabilities(0).String(); got != "none" {
		t.Fatalf("String() = %q, want none", got)
	}
	if got := (CanUpdate | CanAmend).String(); got != "update,amend" {
		t.Fatalf("String() = %q, want update,amend", got)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := Open(Kind("svn"), "."); err == nil {
		t.Fatal("expected error")
	}
}

func assertHasRef(t *testing.T, refs []Ref, want Ref) {
	t.Helper()
	for _, got := range refs {
		if got.Hash == want.Hash && got.Kind == want.Kind && got.Name == want.Name {
			return
		}
	}
	t.Fatalf("missing ref: %+v (got=%+v)", want, refs)
}

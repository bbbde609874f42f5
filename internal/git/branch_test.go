package git

import (
	"context"
	"errors"
	"slices"
	"testing"

	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
)

func TestLocalBranchNames(t *testing.T) {
	t.Parallel()

	refs := []gitbackend.Ref{
		{Kind: gitbackend.RefKindBranch, Name: "z"},
		{Kind: gitbackend.RefKindBranch, Name: "main"},
		{Kind: gitbackend.RefKindBranch, Name: " main "},
		{Kind: gitbackend.RefKindBranch, Name: ""},
		{Kind: gitbackend.RefKindRemoteBranch, Name: "origin/main"},
		{Kind: gitbackend.RefKindTag, Name: "v1"},
	}
	tests := []struct {
		name     string
		headName string
		headOK   bool
		wantHead string
	}{
		{name: "on_branch", headName: "main", headOK: true, wantHead: "main"},
		{name: "detached", headOK: false, wantHead: "HEAD"},
		{name: "blank_name", headName: "  ", headOK: true, wantHead: "HEAD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := NewWithBackend(&fakeBackend{
				repoPath:     "repo",
				listRefsFunc: func() ([]gitbackend.Ref, error) { return refs, nil },
				headStateFunc: func() (string, string, bool, error) {
					return "abc", tt.headName, tt.headOK, nil
				},
			})
			branches, head, err := svc.LocalBranchNames(context.Background())
			if err != nil {
				t.Fatalf("LocalBranchNames() error = %v", err)
			}
			if head != tt.wantHead {
				t.Fatalf("head = %q, want %q", head, tt.wantHead)
			}
			if want := []string{"main", "z"}; !slices.Equal(branches, want) {
				t.Fatalf("branches = %#v, want %#v", branches, want)
			}
		})
	}
}

func TestLocalBranchNamesErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	svc := NewWithBackend(&fakeBackend{
		repoPath:     "repo",
		listRefsFunc: func() ([]gitbackend.Ref, error) { return nil, boom },
	})
	if _, _, err := svc.LocalBranchNames(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("LocalBranchNames() error = %v, want %v", err, boom)
	}

	svc = NewWithBackend(&fakeBackend{
		repoPath:      "repo",
		listRefsFunc:  func() ([]gitbackend.Ref, error) { return nil, nil },
		headStateFunc: func() (string, string, bool, error) { return "", "", false, boom },
	})
	if _, _, err := svc.LocalBranchNames(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("LocalBranchNames() error = %v, want %v", err, boom)
	}

	if _, _, err := NewWithBackend(nil).LocalBranchNames(context.Background()); err == nil {
		t.Fatal("LocalBranchNames() without backend: error = nil")
	}
}

func TestSwitchBranch(t *testing.T) {
	t.Parallel()

	f := &fakeBackend{
		repoPath:         "repo",
		caps:             gitbackend.CanSwitchBranch,
		switchBranchFunc: func(string) error { return nil },
	}
	svc := NewWithBackend(f)

	if err := svc.SwitchBranch(context.Background(), " feature "); err != nil {
		t.Fatalf("SwitchBranch() error = %v", err)
	}
	if f.lastSwitchBranch != "feature" {
		t.Fatalf("backend branch = %q, want %q", f.lastSwitchBranch, "feature")
	}
	if err := svc.SwitchBranch(context.Background(), "  "); err == nil {
		t.Fatal("SwitchBranch(blank) error = nil")
	}
}

func TestSwitchBranchUnsupported(t *testing.T) {
	t.Parallel()

	f := &fakeBackend{repoPath: "repo"}
	err := NewWithBackend(f).SwitchBranch(context.Background(), "feature")
	if !errors.Is(err, gitbackend.ErrUnsupported) {
		t.Fatalf("SwitchBranch() error = %v, want %v", err, gitbackend.ErrUnsupported)
	}
	if f.lastSwitchBranch != "" {
		t.Fatalf("backend was called with %q", f.lastSwitchBranch)
	}
}

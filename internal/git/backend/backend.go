package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/thiagokokada/gitk-review/internal/diff"
	"github.com/thiagokokada/gitk-review/internal/patch"
	"github.com/thiagokokada/gitk-review/internal/status"
)

// Backend abstracts the version control operations a review needs.
//
// The default implementation shells out to the git executable, but the interface
// allows alternative implementations (e.g. pure-Go) without changing callers.
// Operations outside Capabilities return ErrUnsupported.
type Backend interface {
	RepoPath() string
	Capabilities() Capabilities

	Status(ctx context.Context) ([]status.Entry, error)
	Diff(ctx context.Context, path string, mode diff.Mode, contextLines int) (string, error)
	ApplyPatch(ctx context.Context, text string, target patch.Target) error
	Commit(ctx context.Context, message string, amend bool) error

	Revert(ctx context.Context, paths []string) error
	Add(ctx context.Context, paths []string) error
	Remove(ctx context.Context, paths []string) error

	Update(ctx context.Context) error
	Push(ctx context.Context) error

	HeadState(ctx context.Context) (hash string, headName string, ok bool, err error)
	ListRefs(ctx context.Context) ([]Ref, error)
	SwitchBranch(ctx context.Context, branch string) error
}

// Capabilities is the set of optional operations a backend supports.
type Capabilities uint8

const (
	CanUpdate Capabilities = 1 << iota
	CanPush
	CanSwitchBranch
	CanAmend
)

func (c Capabilities) Has(flag Capabilities) bool {
	return c&flag == flag
}

func (c Capabilities) String() string {
	names := []struct {
		flag Capabilities
		name string
	}{
		{CanUpdate, "update"},
		{CanPush, "push"},
		{CanSwitchBranch, "switch-branch"},
		{CanAmend, "amend"},
	}
	var parts []string
	for _, n := range names {
		if c.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Kind names a backend implementation.
type Kind string

const (
	KindCLI    Kind = "cli"
	KindNative Kind = "native"
)

// Open returns the backend of the given kind rooted at repoPath.
func Open(kind Kind, repoPath string) (Backend, error) {
	switch kind {
	case KindCLI, "":
		return OpenCLI(repoPath)
	case KindNative:
		return OpenNative(repoPath)
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}

// largeContext stands in for "all context" where a tool needs a number.
const largeContext = 999999999

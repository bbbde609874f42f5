package git

import (
	"context"
	"errors"

	"github.com/thiagokokada/gitk-review/internal/diff"
	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
	"github.com/thiagokokada/gitk-review/internal/patch"
	"github.com/thiagokokada/gitk-review/internal/status"
)

type fakeBackend struct {
	repoPath string
	caps     gitbackend.Capabilities

	statusFunc       func() ([]status.Entry, error)
	diffFunc         func(path string, mode diff.Mode, contextLines int) (string, error)
	applyPatchFunc   func(text string, target patch.Target) error
	commitFunc       func(message string, amend bool) error
	revertFunc       func(paths []string) error
	addFunc          func(paths []string) error
	removeFunc       func(paths []string) error
	updateFunc       func() error
	pushFunc         func() error
	headStateFunc    func() (hash string, headName string, ok bool, err error)
	listRefsFunc     func() ([]gitbackend.Ref, error)
	switchBranchFunc func(branch string) error

	lastPaths        []string
	lastSwitchBranch string
}

func (f *fakeBackend) RepoPath() string { return f.repoPath }

func (f *fakeBackend) Capabilities() gitbackend.Capabilities { return f.caps }

func (f *fakeBackend) Status(context.Context) ([]status.Entry, error) {
	if f.statusFunc != nil {
		return f.statusFunc()
	}
	return nil, errors.New("unexpected Status call")
}

func (f *fakeBackend) Diff(_ context.Context, path string, mode diff.Mode, contextLines int) (string, error) {
	if f.diffFunc != nil {
		return f.diffFunc(path, mode, contextLines)
	}
	return "", errors.New("unexpected Diff call")
}

func (f *fakeBackend) ApplyPatch(_ context.Context, text string, target patch.Target) error {
	if f.applyPatchFunc != nil {
		return f.applyPatchFunc(text, target)
	}
	return errors.New("unexpected ApplyPatch call")
}

func (f *fakeBackend) Commit(_ context.Context, message string, amend bool) error {
	if f.commitFunc != nil {
		return f.commitFunc(message, amend)
	}
	return errors.New("unexpected Commit call")
}

func (f *fakeBackend) Revert(_ context.Context, paths []string) error {
	f.lastPaths = paths
	if f.revertFunc != nil {
		return f.revertFunc(paths)
	}
	return errors.New("unexpected Revert call")
}

func (f *fakeBackend) Add(_ context.Context, paths []string) error {
	f.lastPaths = paths
	if f.addFunc != nil {
		return f.addFunc(paths)
	}
	return errors.New("unexpected Add call")
}

func (f *fakeBackend) Remove(_ context.Context, paths []string) error {
	f.lastPaths = paths
	if f.removeFunc != nil {
		return f.removeFunc(paths)
	}
	return errors.New("unexpected Remove call")
}

func (f *fakeBackend) Update(context.Context) error {
	if f.updateFunc != nil {
		return f.updateFunc()
	}
	return errors.New("unexpected Update call")
}

func (f *fakeBackend) Push(context.Context) error {
	if f.pushFunc != nil {
		return f.pushFunc()
	}
	return errors.New("unexpected Push call")
}

func (f *fakeBackend) HeadState(context.Context) (hash string, headName string, ok bool, err error) {
	if f.headStateFunc != nil {
		return f.headStateFunc()
	}
	return "", "", false, errors.New("unexpected HeadState call")
}

func (f *fakeBackend) ListRefs(context.Context) ([]gitbackend.Ref, error) {
	if f.listRefsFunc != nil {
		return f.listRefsFunc()
	}
	return nil, errors.New("unexpected ListRefs call")
}

func (f *fakeBackend) SwitchBranch(_ context.Context, branch string) error {
	f.lastSwitchBranch = branch
	if f.switchBranchFunc != nil {
		return f.switchBranchFunc(branch)
	}
	return errors.New("unexpected SwitchBranch call")
}

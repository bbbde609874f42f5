package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	gitindex "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/thiagokokada/gitk-review/internal/diff"
	"github.com/thiagokokada/gitk-review/internal/status"
)

// native implements Backend on top of go-git without a git executable.
type native struct {
	mu   sync.Mutex
	path string
	repo *gitlib.Repository
}

func OpenNative(repoPath string) (Backend, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gitlib.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("open repository: %w: %s", ErrNotRepository, abs)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return &native{path: wt.Filesystem.Root(), repo: repo}, nil
}

func (n *native) RepoPath() string {
	if n == nil {
		return ""
	}
	return n.path
}

func (n *native) Capabilities() Capabilities {
	return CanSwitchBranch | CanAmend
}

func (n *native) Status(ctx context.Context) ([]status.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	wt, err := n.repo.Worktree()
	if err != nil {
		return nil, err
	}
	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	entries := make([]status.Entry, 0, len(st))
	for path, fs := range st {
		entries = append(entries, status.Entry{
			Path:     path,
			OrigPath: fs.Extra,
			Index:    status.Code(fs.Staging),
			Worktree: status.Code(fs.Worktree),
		})
	}
	return entries, nil
}

func (n *native) Diff(ctx context.Context, path string, mode diff.Mode, contextLines int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path = filepath.ToSlash(strings.TrimSpace(path))
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrNotFound)
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	idx, err := n.repo.Storer.Index()
	if err != nil {
		return "", err
	}
	indexFile, err := fileFromIndex(idx, n.repo, path)
	if err != nil {
		return "", err
	}
	var from, to *object.File
	if mode == diff.Staged {
		tree, err := n.headTree()
		if err != nil {
			return "", err
		}
		if from, err = fileFromTree(tree, path); err != nil {
			return "", err
		}
		to = indexFile
	} else {
		from = indexFile
		if to, err = fileFromDisk(n.path, path); err != nil {
			if errors.Is(err, os.ErrPermission) {
				return "", fmt.Errorf("%w: %v", ErrNoWriteAccess, err)
			}
			return "", err
		}
	}
	if from == nil && to == nil {
		if known, err := n.known(path, indexFile); err != nil || !known {
			if err != nil {
				return "", err
			}
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", nil
	}
	return renderFileDiff(path, from, to, contextLines)
}

func (n *native) known(path string, indexFile *object.File) (bool, error) {
	if indexFile != nil {
		return true, nil
	}
	if _, err := os.Lstat(filepath.Join(n.path, filepath.FromSlash(path))); err == nil {
		return true, nil
	}
	tree, err := n.headTree()
	if err != nil {
		return false, err
	}
	f, err := fileFromTree(tree, path)
	return f != nil, err
}

// headTree returns the tree of HEAD, or nil on an unborn branch.
func (n *native) headTree() (*object.Tree, error) {
	head, err := n.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	commit, err := n.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

func (n *native) Commit(ctx context.Context, message string, amend bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	if strings.TrimSpace(message) == "" {
		if !amend {
			return fmt.Errorf("%w: empty commit message", ErrCommit)
		}
		head, err := n.repo.Head()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCommit, err)
		}
		commit, err := n.repo.CommitObject(head.Hash())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCommit, err)
		}
		message = commit.Message
	}
	wt, err := n.repo.Worktree()
	if err != nil {
		return err
	}
	if _, err := wt.Commit(message, &gitlib.CommitOptions{Amend: amend}); err != nil {
		if errors.Is(err, gitlib.ErrEmptyCommit) {
			return fmt.Errorf("%w: %v", ErrNothingToCommit, err)
		}
		return fmt.Errorf("%w: %v", ErrCommit, err)
	}
	return nil
}

func (n *native) Revert(ctx context.Context, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	idx, err := n.repo.Storer.Index()
	if err != nil {
		return err
	}
	for _, path := range paths {
		f, err := fileFromIndex(idx, n.repo, filepath.ToSlash(path))
		if err != nil {
			return err
		}
		if f == nil {
			return fmt.Errorf("revert: %w: %s", ErrPathNotFound, path)
		}
		content, err := f.Contents()
		if err != nil {
			return err
		}
		if err := writeWorktreeFile(n.path, path, []byte(content), modePerm(f.Mode)); err != nil {
			return err
		}
	}
	return nil
}

func (n *native) Add(ctx context.Context, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	wt, err := n.repo.Worktree()
	if err != nil {
		return err
	}
	for _, path := range paths {
		path = filepath.ToSlash(path)
		if _, statErr := os.Lstat(filepath.Join(n.path, filepath.FromSlash(path))); errors.Is(statErr, os.ErrNotExist) {
			// Staging a deletion.
			if _, err := wt.Remove(path); err != nil {
				return mapPathError("add", path, err)
			}
			continue
		}
		if _, err := wt.Add(path); err != nil {
			return mapPathError("add", path, err)
		}
	}
	return nil
}

func (n *native) Remove(ctx context.Context, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	wt, err := n.repo.Worktree()
	if err != nil {
		return err
	}
	for _, path := range paths {
		if _, err := wt.Remove(filepath.ToSlash(path)); err != nil {
			return mapPathError("rm", path, err)
		}
	}
	return nil
}

func mapPathError(op, path string, err error) error {
	switch {
	case errors.Is(err, gitindex.ErrEntryNotFound), errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%s: %w: %s", op, ErrPathNotFound, path)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%s: %w: %s", op, ErrNoWriteAccess, path)
	default:
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
}

func (n *native) Update(context.Context) error {
	return fmt.Errorf("update: %w", ErrUnsupported)
}

func (n *native) Push(context.Context) error {
	return fmt.Errorf("push: %w", ErrUnsupported)
}

func (n *native) HeadState(ctx context.Context) (hash string, headName string, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return "", "", false, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	head, err := n.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	headName = "HEAD"
	if head.Name().IsBranch() {
		headName = head.Name().Short()
	}
	return head.Hash().String(), headName, true, nil
}

func (n *native) ListRefs(ctx context.Context) ([]Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	iter, err := n.repo.References()
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var refs []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		kind, short, ok := classifyRef(ref.Name().String())
		if !ok {
			return nil
		}
		hash := ref.Hash()
		if kind == RefKindTag {
			if tag, err := n.repo.TagObject(hash); err == nil {
				if commit, err := tag.Commit(); err == nil {
					hash = commit.Hash
				}
			}
		}
		refs = append(refs, Ref{Hash: hash.String(), Kind: kind, Name: short})
		return nil
	})
	return refs, err
}

func (n *native) SwitchBranch(ctx context.Context, branch string) error {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return errors.New("branch not specified")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	wt, err := n.repo.Worktree()
	if err != nil {
		return err
	}
	err = wt.Checkout(&gitlib.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(branch)})
	if errors.Is(err, gitlib.ErrUnstagedChanges) {
		return fmt.Errorf("switch: %w: %v", ErrConflictDetected, err)
	}
	return err
}

package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	gitindex "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/thiagokokada/gitk-review/internal/patch"
)

func (n *native) ApplyPatch(ctx context.Context, text string, target patch.Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	files, _, err := gitdiff.Parse(strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrApplyRejected, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: empty patch", ErrApplyRejected)
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	if target == patch.WorkingTree {
		for _, f := range files {
			if err := n.applyToWorktree(f); err != nil {
				return err
			}
		}
		return nil
	}

	idx, err := n.repo.Storer.Index()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := n.applyToIndex(idx, f); err != nil {
			return err
		}
	}
	return n.repo.Storer.SetIndex(idx)
}

func patchPath(f *gitdiff.File) string {
	if f.IsDelete {
		return f.OldName
	}
	return f.NewName
}

func applyFile(path string, src []byte, f *gitdiff.File) ([]byte, error) {
	var out bytes.Buffer
	if err := gitdiff.Apply(&out, bytes.NewReader(src), f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrApplyRejected, path, err)
	}
	return out.Bytes(), nil
}

func (n *native) applyToWorktree(f *gitdiff.File) error {
	path := patchPath(f)
	full := filepath.Join(n.path, filepath.FromSlash(path))
	src, err := os.ReadFile(full)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if !f.IsNew {
			return fmt.Errorf("%w: %s: no such file in working tree", ErrApplyRejected, path)
		}
	case err != nil:
		return wrapWriteError(path, err)
	case f.IsNew:
		return fmt.Errorf("%w: %s: already exists in working directory", ErrConflictDetected, path)
	}
	out, err := applyFile(path, src, f)
	if err != nil {
		return err
	}
	if f.IsDelete {
		if err := os.Remove(full); err != nil {
			return wrapWriteError(path, err)
		}
		return nil
	}
	perm := os.FileMode(0o644)
	if f.NewMode&0o111 != 0 {
		perm = 0o755
	}
	return writeWorktreeFile(n.path, path, out, perm)
}

func (n *native) applyToIndex(idx *gitindex.Index, f *gitdiff.File) error {
	path := patchPath(f)
	entry, err := idx.Entry(path)
	var src []byte
	switch {
	case errors.Is(err, gitindex.ErrEntryNotFound):
		if !f.IsNew {
			return fmt.Errorf("%w: %s: does not exist in index", ErrApplyRejected, path)
		}
		entry = nil
	case err != nil:
		return err
	case f.IsNew:
		return fmt.Errorf("%w: %s: already exists in index", ErrConflictDetected, path)
	default:
		if src, err = n.blobContents(entry.Hash); err != nil {
			return err
		}
	}
	out, err := applyFile(path, src, f)
	if err != nil {
		return err
	}
	if f.IsDelete {
		if _, err := idx.Remove(path); err != nil {
			return fmt.Errorf("remove %s from index: %w", path, err)
		}
		return nil
	}
	hash, err := n.writeBlob(out)
	if err != nil {
		return err
	}
	if entry == nil {
		entry = idx.Add(path)
		entry.Mode = filemode.Regular
		if f.NewMode&0o111 != 0 {
			entry.Mode = filemode.Executable
		}
	}
	entry.Hash = hash
	entry.Size = uint32(len(out))
	// Stale stat data would let status trust the old hash.
	entry.ModifiedAt = time.Time{}
	return nil
}

func (n *native) blobContents(hash plumbing.Hash) ([]byte, error) {
	blob, err := object.GetBlob(n.repo.Storer, hash)
	if err != nil {
		return nil, err
	}
	r, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (n *native) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := n.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}
	return n.repo.Storer.SetEncodedObject(obj)
}

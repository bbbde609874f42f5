package backend

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	gitindex "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/thiagokokada/gitk-review/internal/diff"
)

func fileFromTree(tree *object.Tree, path string) (*object.File, error) {
	if tree == nil {
		return nil, nil
	}
	f, err := tree.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func fileFromIndex(idx *gitindex.Index, repo *gitlib.Repository, path string) (*object.File, error) {
	if idx == nil || repo == nil {
		return nil, nil
	}
	entry, err := idx.Entry(path)
	if errors.Is(err, gitindex.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	blob, err := object.GetBlob(repo.Storer, entry.Hash)
	if err != nil {
		return nil, err
	}
	return object.NewFile(entry.Name, entry.Mode, blob), nil
}

func fileFromDisk(root, path string) (*object.File, error) {
	if root == "" {
		return nil, fmt.Errorf("repository root not set")
	}
	file, err := os.Open(filepath.Join(root, filepath.FromSlash(path)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, nil
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	mem := &plumbing.MemoryObject{}
	mem.SetType(plumbing.BlobObject)
	if _, err := mem.Write(data); err != nil {
		return nil, err
	}
	blob, err := object.DecodeBlob(mem)
	if err != nil {
		return nil, err
	}
	mode := filemode.Regular
	if m, err := filemode.NewFromOSFileMode(info.Mode()); err == nil {
		mode = m
	}
	return object.NewFile(path, mode, blob), nil
}

func modePerm(m filemode.FileMode) os.FileMode {
	if m == filemode.Executable {
		return 0o755
	}
	return 0o644
}

func writeWorktreeFile(root, path string, data []byte, perm os.FileMode) error {
	full := filepath.Join(root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return wrapWriteError(path, err)
	}
	if info, err := os.Stat(full); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(full, data, perm); err != nil {
		return wrapWriteError(path, err)
	}
	return nil
}

func wrapWriteError(path string, err error) error {
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %s: %v", ErrNoWriteAccess, path, err)
	}
	return fmt.Errorf("write %s: %w", path, err)
}

func gitMode(m filemode.FileMode) string {
	return fmt.Sprintf("%06o", uint32(m))
}

// renderFileDiff produces the git-style unified diff of one path. A nil
// side means the file does not exist there.
func renderFileDiff(path string, from, to *object.File, contextLines int) (string, error) {
	var b strings.Builder
	b.WriteString("diff --git a/" + path + " b/" + path + "\n")
	oldName, newName := "a/"+path, "b/"+path
	modeChanged := false
	switch {
	case from == nil:
		b.WriteString("new file mode " + gitMode(to.Mode) + "\n")
		oldName = "/dev/null"
	case to == nil:
		b.WriteString("deleted file mode " + gitMode(from.Mode) + "\n")
		newName = "/dev/null"
	case from.Mode != to.Mode:
		b.WriteString("old mode " + gitMode(from.Mode) + "\nnew mode " + gitMode(to.Mode) + "\n")
		modeChanged = true
	}

	binary, err := isBinary(from, to)
	if err != nil {
		return "", err
	}
	if binary {
		if from != nil && to != nil && from.Hash == to.Hash {
			return modeOnly(b.String(), modeChanged), nil
		}
		b.WriteString("Binary files " + oldName + " and " + newName + " differ\n")
		return b.String(), nil
	}

	a, err := fileLines(from)
	if err != nil {
		return "", err
	}
	c, err := fileLines(to)
	if err != nil {
		return "", err
	}
	hunks := renderHunks(a, c, contextLines)
	if hunks == "" && from != nil && to != nil {
		return modeOnly(b.String(), modeChanged), nil
	}
	b.WriteString("--- " + oldName + "\n+++ " + newName + "\n")
	b.WriteString(hunks)
	return b.String(), nil
}

func modeOnly(header string, modeChanged bool) string {
	if modeChanged {
		return header
	}
	return ""
}

func isBinary(files ...*object.File) (bool, error) {
	for _, f := range files {
		if f == nil {
			continue
		}
		bin, err := f.IsBinary()
		if err != nil {
			return false, err
		}
		if bin {
			return true, nil
		}
	}
	return false, nil
}

func fileLines(f *object.File) ([]string, error) {
	if f == nil {
		return nil, nil
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return splitLines(content), nil
}

// splitLines keeps the trailing newline on every line so that a last line
// without one never compares equal to the same text with one.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func renderHunks(a, b []string, contextLines int) string {
	if contextLines < 0 {
		contextLines = max(len(a), len(b))
	}
	m := difflib.NewMatcher(a, b)
	var out strings.Builder
	for _, group := range m.GetGroupedOpCodes(contextLines) {
		first, last := group[0], group[len(group)-1]
		oldStart, oldCount := hunkStart(first.I1, last.I2-first.I1), last.I2-first.I1
		newStart, newCount := hunkStart(first.J1, last.J2-first.J1), last.J2-first.J1
		out.WriteString(diff.FormatHunkHeader(oldStart, oldCount, newStart, newCount, ""))
		out.WriteByte('\n')
		for _, op := range group {
			switch op.Tag {
			case 'e':
				writeLines(&out, diff.Context, a[op.I1:op.I2])
			case 'd':
				writeLines(&out, diff.Removed, a[op.I1:op.I2])
			case 'i':
				writeLines(&out, diff.Added, b[op.J1:op.J2])
			case 'r':
				writeLines(&out, diff.Removed, a[op.I1:op.I2])
				writeLines(&out, diff.Added, b[op.J1:op.J2])
			}
		}
	}
	return out.String()
}

func hunkStart(index, count int) int {
	if count == 0 {
		return index
	}
	return index + 1
}

func writeLines(b *strings.Builder, kind diff.LineKind, lines []string) {
	for _, l := range lines {
		text, hasNewline := strings.CutSuffix(l, "\n")
		diff.WriteLine(b, kind, text, !hasNewline)
	}
}

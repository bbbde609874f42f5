// Package patch rebuilds a unified diff restricted to the selected lines of a
// snapshot.
package patch

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/thiagokokada/gitk-review/internal/diff"
)

var (
	ErrEmptySelection    = errors.New("no changed line selected")
	ErrSelectionMismatch = errors.New("selection belongs to a different snapshot")
	ErrModeMismatch      = errors.New("patch mode does not match snapshot")
	ErrBinary            = errors.New("binary files cannot be patched by line")
)

// Mode is the action the built patch performs.
type Mode uint8

const (
	Stage Mode = iota
	Unstage
	Discard
)

func (m Mode) String() string {
	switch m {
	case Unstage:
		return "unstage"
	case Discard:
		return "discard"
	default:
		return "stage"
	}
}

// SnapshotMode returns the kind of diff the mode operates on.
func (m Mode) SnapshotMode() diff.Mode {
	if m == Unstage {
		return diff.Staged
	}
	return diff.Unstaged
}

// inverse reports whether the patch is applied to the snapshot's new side.
func (m Mode) inverse() bool {
	return m != Stage
}

// Target is where a patch is applied.
type Target uint8

const (
	Index Target = iota
	WorkingTree
)

func (t Target) String() string {
	if t == WorkingTree {
		return "working tree"
	}
	return "index"
}

func TargetFor(m Mode) Target {
	if m == Discard {
		return WorkingTree
	}
	return Index
}

// Selector reports the selection state of snapshot lines.
type Selector interface {
	IsSelected(chunk, line int) bool
	Token() string
}

// Build emits a patch containing only the selected changes of snap. Stage
// patches apply forward to the index; Unstage and Discard patches are already
// inverted and apply forward to the index and working tree respectively.
// contextLines < 0 keeps every context line.
func Build(snap *diff.Snapshot, sel Selector, mode Mode, contextLines int) (string, error) {
	if snap == nil || sel == nil {
		return "", ErrEmptySelection
	}
	if sel.Token() != snap.Token {
		return "", ErrSelectionMismatch
	}
	if snap.Mode != mode.SnapshotMode() {
		return "", fmt.Errorf("%w: %s needs a %s diff, got %s", ErrModeMismatch, mode, mode.SnapshotMode(), snap.Mode)
	}
	if snap.Binary {
		return "", ErrBinary
	}

	var hunks []hunk
	offset := 0
	for ci, c := range snap.Chunks {
		lines := filterChunk(ci, c, sel, mode)
		for i, run := range splitRuns(lines, contextLines) {
			h := newHunk(run, offset)
			if i == 0 {
				h.section = c.Section
			}
			offset += h.postCount - h.preCount
			hunks = append(hunks, h)
		}
	}
	if len(hunks) == 0 {
		return "", ErrEmptySelection
	}

	var b strings.Builder
	for _, line := range fileHeader(snap, sel, mode) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, h := range hunks {
		b.WriteString(diff.FormatHunkHeader(h.preStart, h.preCount, h.postStart, h.postCount, h.section))
		b.WriteByte('\n')
		for _, l := range h.lines {
			diff.WriteLine(&b, l.kind, l.text, l.noNewline)
		}
	}
	return b.String(), nil
}

// patchLine is a line of the output patch. pre is its line number in the
// preimage, or for lines absent from the preimage the number of the next
// preimage line.
type patchLine struct {
	kind      diff.LineKind
	text      string
	noNewline bool
	pre       int
}

func filterChunk(ci int, c diff.Chunk, sel Selector, mode Mode) []patchLine {
	inverse := mode.inverse()
	start, count := c.OldStart, c.OldCount
	if inverse {
		start, count = c.NewStart, c.NewCount
	}
	base := start
	if count == 0 {
		base = start + 1
	}
	consumed := 0
	out := make([]patchLine, 0, len(c.Lines))
	for li, l := range c.Lines {
		selected := sel.IsSelected(ci, li)
		kind := l.Kind
		switch l.Kind {
		case diff.Added:
			if !selected {
				if !inverse {
					continue
				}
				kind = diff.Context
			}
		case diff.Removed:
			if !selected {
				if inverse {
					continue
				}
				kind = diff.Context
			}
		}
		if inverse {
			kind = invert(kind)
		}
		out = append(out, patchLine{kind: kind, text: l.Text, noNewline: l.NoNewline, pre: base + consumed})
		if kind != diff.Added {
			consumed++
		}
	}
	return removalsFirst(terminateMidLines(out))
}

// terminateMidLines keeps "\ No newline at end of file" on the last line of
// the postimage only. An unterminated context line followed by additions is
// rewritten as the removal of the unterminated line plus the addition of the
// terminated one; an unterminated addition followed by more lines simply
// gains its newline.
func terminateMidLines(lines []patchLine) []patchLine {
	out := make([]patchLine, 0, len(lines)+1)
	postFollows := false
	for i := len(lines) - 1; i >= 0; i-- {
		l := lines[i]
		if l.kind == diff.Removed {
			out = append(out, l)
			continue
		}
		if l.noNewline && postFollows {
			switch l.kind {
			case diff.Context:
				out = append(out, patchLine{kind: diff.Added, text: l.text, pre: l.pre + 1})
				l.kind = diff.Removed
			case diff.Added:
				l.noNewline = false
			}
		}
		postFollows = true
		out = append(out, l)
	}
	slices.Reverse(out)
	return out
}

func invert(k diff.LineKind) diff.LineKind {
	switch k {
	case diff.Added:
		return diff.Removed
	case diff.Removed:
		return diff.Added
	default:
		return k
	}
}

// removalsFirst reorders every run of changed lines so removals precede
// additions, the order diff tools emit.
func removalsFirst(lines []patchLine) []patchLine {
	out := make([]patchLine, 0, len(lines))
	for i := 0; i < len(lines); {
		if lines[i].kind == diff.Context {
			out = append(out, lines[i])
			i++
			continue
		}
		j := i
		for j < len(lines) && lines[j].kind != diff.Context {
			j++
		}
		for _, l := range lines[i:j] {
			if l.kind == diff.Removed {
				out = append(out, l)
			}
		}
		for _, l := range lines[i:j] {
			if l.kind == diff.Added {
				out = append(out, l)
			}
		}
		i = j
	}
	return out
}

// splitRuns keeps at most n context lines around each change and returns the
// contiguous runs that remain. Runs without changes are never returned.
func splitRuns(lines []patchLine, n int) [][]patchLine {
	if !hasChange(lines) {
		return nil
	}
	if n < 0 {
		return [][]patchLine{lines}
	}
	const far = int(^uint(0) >> 1)
	keep := make([]bool, len(lines))
	dist := far
	for i, l := range lines {
		if l.kind != diff.Context {
			dist = 0
			keep[i] = true
			continue
		}
		if dist != far {
			dist++
		}
		keep[i] = dist <= n
	}
	dist = far
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].kind != diff.Context {
			dist = 0
			continue
		}
		if dist != far {
			dist++
		}
		keep[i] = keep[i] || dist <= n
	}
	var runs [][]patchLine
	for i := 0; i < len(lines); {
		if !keep[i] {
			i++
			continue
		}
		j := i
		for j < len(lines) && keep[j] {
			j++
		}
		runs = append(runs, lines[i:j])
		i = j
	}
	return runs
}

func hasChange(lines []patchLine) bool {
	for _, l := range lines {
		if l.kind != diff.Context {
			return true
		}
	}
	return false
}

type hunk struct {
	preStart, preCount   int
	postStart, postCount int
	section              string
	lines                []patchLine
}

// newHunk computes the header of a run. The preimage keeps its original
// numbering and the postimage is shifted by the delta of earlier hunks.
func newHunk(run []patchLine, offset int) hunk {
	h := hunk{lines: run}
	for _, l := range run {
		switch l.kind {
		case diff.Context:
			h.preCount++
			h.postCount++
		case diff.Removed:
			h.preCount++
		case diff.Added:
			h.postCount++
		}
	}
	base := run[0].pre
	h.preStart = base
	if h.preCount == 0 {
		h.preStart = base - 1
	}
	h.postStart = base + offset
	if h.postCount == 0 {
		h.postStart = base + offset - 1
	}
	return h
}

func fileHeader(snap *diff.Snapshot, sel Selector, mode Mode) []string {
	info := snap.Info()
	oldPath, newPath := info.OldPath, info.NewPath
	created, deleted := info.NewFile, info.Deleted
	if mode.inverse() {
		oldPath, newPath = newPath, oldPath
		created, deleted = deleted, created
	}
	// A deletion stays a deletion only if every preimage line goes away.
	if deleted && !removesEverything(snap, sel, mode) {
		deleted = false
	}
	name := snap.Path
	if oldPath == "" {
		oldPath = newPath
	}
	if newPath == "" {
		newPath = oldPath
	}
	if oldPath == "" {
		oldPath, newPath = name, name
	}

	header := []string{"diff --git " + quotePath("a/"+oldPath) + " " + quotePath("b/"+newPath)}
	fileMode := info.FileMode
	if fileMode == "" {
		fileMode = "100644"
	}
	switch {
	case created:
		header = append(header, "new file mode "+fileMode, "--- /dev/null", "+++ "+quotePath("b/"+newPath))
	case deleted:
		header = append(header, "deleted file mode "+fileMode, "--- "+quotePath("a/"+oldPath), "+++ /dev/null")
	default:
		header = append(header, "--- "+quotePath("a/"+oldPath), "+++ "+quotePath("b/"+newPath))
	}
	return header
}

// removesEverything reports whether the built patch leaves an empty
// postimage, i.e. every line the patch starts from is selected for removal.
func removesEverything(snap *diff.Snapshot, sel Selector, mode Mode) bool {
	drop := diff.Removed
	if mode.inverse() {
		drop = diff.Added
	}
	for ci, c := range snap.Chunks {
		for li, l := range c.Lines {
			if l.Kind == diff.Context {
				return false
			}
			if l.Kind == drop && !sel.IsSelected(ci, li) {
				return false
			}
		}
	}
	return true
}

func quotePath(p string) string {
	if !strings.ContainsAny(p, "\"\\\t\n") {
		return p
	}
	return strconv.Quote(p)
}

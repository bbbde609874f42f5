// Package diff holds the parsed form of a single-file unified diff.
package diff

import (
	"fmt"
	"strings"
)

// Mode selects which pair of trees a diff compares.
type Mode uint8

const (
	// Unstaged compares the index with the working tree.
	Unstaged Mode = iota
	// Staged compares HEAD with the index.
	Staged
)

func (m Mode) String() string {
	if m == Staged {
		return "staged"
	}
	return "unstaged"
}

type LineKind uint8

const (
	Context LineKind = iota
	Added
	Removed
)

func (k LineKind) marker() byte {
	switch k {
	case Added:
		return '+'
	case Removed:
		return '-'
	default:
		return ' '
	}
}

func (k LineKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "context"
	}
}

// Line is one body line of a hunk. OldLine and NewLine are 1-based; zero
// means the line does not exist on that side.
type Line struct {
	Kind      LineKind
	Text      string
	OldLine   int
	NewLine   int
	NoNewline bool // followed by "\ No newline at end of file"
}

// IsChange reports whether the line adds or removes content.
func (l Line) IsChange() bool {
	return l.Kind != Context
}

type Chunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Section  string // text after the closing @@, usually a function name
	Lines    []Line
}

// HasChanges reports whether the chunk contains at least one added or
// removed line.
func (c Chunk) HasChanges() bool {
	for _, l := range c.Lines {
		if l.IsChange() {
			return true
		}
	}
	return false
}

// Header formats the "@@ -a,b +c,d @@" line of the chunk.
func (c Chunk) Header() string {
	return FormatHunkHeader(c.OldStart, c.OldCount, c.NewStart, c.NewCount, c.Section)
}

// Snapshot is the parsed diff of one path at one revision token. It is never
// mutated after Parse returns; a new snapshot replaces it after any change.
type Snapshot struct {
	Path   string
	Mode   Mode
	Header []string
	Chunks []Chunk
	Binary bool
	Token  string
}

// Empty reports whether the snapshot carries no hunks.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Chunks) == 0
}

// LineCount returns the total number of body lines across all chunks.
func (s *Snapshot) LineCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, c := range s.Chunks {
		n += len(c.Lines)
	}
	return n
}

// String re-serialises the snapshot as unified diff text.
func (s *Snapshot) String() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	for _, h := range s.Header {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	for _, c := range s.Chunks {
		b.WriteString(c.Header())
		b.WriteByte('\n')
		for _, l := range c.Lines {
			WriteLine(&b, l.Kind, l.Text, l.NoNewline)
		}
	}
	return b.String()
}

// FormatHunkHeader renders a hunk header the way git does: a count of one is
// omitted.
func FormatHunkHeader(oldStart, oldCount, newStart, newCount int, section string) string {
	h := "@@ -" + formatRange(oldStart, oldCount) + " +" + formatRange(newStart, newCount) + " @@"
	if section != "" {
		h += " " + section
	}
	return h
}

func formatRange(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// WriteLine appends one marked body line, plus the no-newline marker if set.
func WriteLine(b *strings.Builder, kind LineKind, text string, noNewline bool) {
	b.WriteByte(kind.marker())
	b.WriteString(text)
	b.WriteByte('\n')
	if noNewline {
		b.WriteString(noNewlineMarker)
		b.WriteByte('\n')
	}
}

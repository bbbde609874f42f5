// Package status models the per-path state of a working copy.
package status

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Code is a porcelain status letter for one side of an entry.
type Code byte

const (
	Unmodified  Code = ' '
	Modified    Code = 'M'
	TypeChanged Code = 'T'
	Added       Code = 'A'
	Deleted     Code = 'D'
	Renamed     Code = 'R'
	Copied      Code = 'C'
	Unmerged    Code = 'U'
	Untracked   Code = '?'
	Ignored     Code = '!'
)

// Char returns the letter shown in status listings.
func (c Code) Char() byte {
	if c == 0 {
		return byte(Unmodified)
	}
	return byte(c)
}

func (c Code) String() string {
	return string(c.Char())
}

// Entry is the status of one path. OrigPath is set for renames and copies.
type Entry struct {
	Path     string
	OrigPath string
	Index    Code
	Worktree Code
}

// Staged reports whether the index differs from HEAD.
func (e Entry) Staged() bool {
	switch e.Index {
	case 0, Unmodified, Untracked, Ignored:
		return false
	}
	return true
}

// Unstaged reports whether the working tree differs from the index.
func (e Entry) Unstaged() bool {
	switch e.Worktree {
	case 0, Unmodified, Ignored:
		return false
	}
	return true
}

func (e Entry) Clean() bool {
	return !e.Staged() && !e.Unstaged()
}

// Conflicted reports an unmerged path.
func (e Entry) Conflicted() bool {
	return isConflict(e.Index, e.Worktree)
}

func (e Entry) Description() string {
	return Describe(e.Index, e.Worktree)
}

// Code renders the two-letter status, e.g. "M " or "??".
func (e Entry) Code() string {
	return string([]byte{e.Index.Char(), e.Worktree.Char()})
}

// ParsePorcelainV2 reads "git status --porcelain=v2" output. Ignored entries
// and header lines are skipped.
func ParsePorcelainV2(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var (
			e   Entry
			err error
		)
		switch line[0] {
		case '1':
			e, err = parseChanged(line, 9)
		case '2':
			e, err = parseRenamed(line)
		case 'u':
			e, err = parseChanged(line, 11)
		case '?':
			e.Index, e.Worktree = Untracked, Untracked
			e.Path, err = unquotePath(strings.TrimPrefix(line, "? "))
		default:
			// '!' ignored and '#' headers.
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseChanged(line string, fields int) (Entry, error) {
	parts := strings.SplitN(line, " ", fields)
	if len(parts) != fields || len(parts[1]) != 2 {
		return Entry{}, fmt.Errorf("unexpected status line: %q", line)
	}
	path, err := unquotePath(parts[fields-1])
	if err != nil {
		return Entry{}, err
	}
	return Entry{Path: path, Index: codeFrom(parts[1][0]), Worktree: codeFrom(parts[1][1])}, nil
}

func parseRenamed(line string) (Entry, error) {
	parts := strings.SplitN(line, " ", 10)
	if len(parts) != 10 || len(parts[1]) != 2 {
		return Entry{}, fmt.Errorf("unexpected status line: %q", line)
	}
	paths := strings.SplitN(parts[9], "\t", 2)
	if len(paths) != 2 {
		return Entry{}, fmt.Errorf("unexpected rename line: %q", line)
	}
	path, err := unquotePath(paths[0])
	if err != nil {
		return Entry{}, err
	}
	orig, err := unquotePath(paths[1])
	if err != nil {
		return Entry{}, err
	}
	return Entry{Path: path, OrigPath: orig, Index: codeFrom(parts[1][0]), Worktree: codeFrom(parts[1][1])}, nil
}

func codeFrom(b byte) Code {
	if b == '.' {
		return Unmodified
	}
	return Code(b)
}

func unquotePath(p string) (string, error) {
	if !strings.HasPrefix(p, `"`) {
		return p, nil
	}
	s, err := strconv.Unquote(p)
	if err != nil {
		return "", fmt.Errorf("unquote path %s: %w", p, err)
	}
	return s, nil
}

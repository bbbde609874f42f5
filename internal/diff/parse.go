package diff

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrMalformedDiff = errors.New("malformed diff")

const noNewlineMarker = `\ No newline at end of file`

var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@ ?(.*)$`)

// Parse turns the unified diff of a single path into a Snapshot. The token is
// stored as-is so callers can later tell whether the snapshot went stale.
// When path is empty it is taken from the "diff --git" header.
func Parse(raw, path string, mode Mode, token string) (*Snapshot, error) {
	snap := &Snapshot{Path: path, Mode: mode, Token: token}
	if strings.TrimSpace(raw) == "" {
		return snap, nil
	}
	p := parser{lines: strings.Split(strings.TrimSuffix(raw, "\n"), "\n"), snap: snap}
	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	if err := p.parseChunks(); err != nil {
		return nil, err
	}
	if snap.Path == "" {
		snap.Path = pathFromHeader(snap.Header)
	}
	return snap, nil
}

type parser struct {
	lines []string
	pos   int
	snap  *Snapshot
}

func (p *parser) malformed(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformedDiff, p.pos+1, fmt.Sprintf(format, args...))
}

func (p *parser) parseHeader() error {
	files := 0
	for ; p.pos < len(p.lines); p.pos++ {
		line := p.lines[p.pos]
		if strings.HasPrefix(line, "@@") {
			return nil
		}
		if strings.HasPrefix(line, "diff --git ") || strings.HasPrefix(line, "Index: ") {
			files++
			if files > 1 {
				return p.malformed("diff spans more than one file")
			}
		}
		if strings.HasPrefix(line, "Binary files ") || line == "GIT binary patch" {
			p.snap.Binary = true
		}
		p.snap.Header = append(p.snap.Header, line)
	}
	return nil
}

func (p *parser) parseChunks() error {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		switch {
		case strings.HasPrefix(line, "@@"):
			chunk, err := p.parseChunk()
			if err != nil {
				return err
			}
			if n := len(p.snap.Chunks); n > 0 {
				prev := p.snap.Chunks[n-1]
				if chunk.OldStart <= prev.OldStart || chunk.OldStart < prev.OldStart+prev.OldCount {
					return fmt.Errorf("%w: hunk at -%d overlaps or precedes hunk at -%d",
						ErrMalformedDiff, chunk.OldStart, prev.OldStart)
				}
			}
			p.snap.Chunks = append(p.snap.Chunks, chunk)
		case strings.HasPrefix(line, "diff --git "):
			return p.malformed("diff spans more than one file")
		default:
			// Trailing text after a complete hunk carries no changes.
			p.pos++
		}
	}
	return nil
}

func (p *parser) parseChunk() (Chunk, error) {
	header := p.lines[p.pos]
	m := hunkHeaderRegex.FindStringSubmatch(header)
	if m == nil {
		return Chunk{}, p.malformed("invalid hunk header %q", header)
	}
	var c Chunk
	var err error
	if c.OldStart, c.OldCount, err = parseRange(m[1], m[2]); err != nil {
		return Chunk{}, p.malformed("invalid old range in %q", header)
	}
	if c.NewStart, c.NewCount, err = parseRange(m[3], m[4]); err != nil {
		return Chunk{}, p.malformed("invalid new range in %q", header)
	}
	c.Section = strings.TrimSpace(m[5])
	p.pos++

	oldLeft, newLeft := c.OldCount, c.NewCount
	oldNo, newNo := c.OldStart, c.NewStart
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if line == noNewlineMarker {
			if len(c.Lines) == 0 {
				return Chunk{}, p.malformed("no-newline marker before any line")
			}
			c.Lines[len(c.Lines)-1].NoNewline = true
			p.pos++
			continue
		}
		if oldLeft == 0 && newLeft == 0 {
			break
		}
		kind, text, ok := classify(line)
		if !ok {
			if line == "" && oldLeft > 0 && newLeft > 0 {
				// Blank context line whose leading space was stripped.
				kind, text, ok = Context, "", true
			} else {
				break
			}
		}
		switch kind {
		case Context:
			if oldLeft == 0 || newLeft == 0 {
				return Chunk{}, p.malformed("context line exceeds declared counts")
			}
			c.Lines = append(c.Lines, Line{Kind: Context, Text: text, OldLine: oldNo, NewLine: newNo})
			oldNo++
			newNo++
			oldLeft--
			newLeft--
		case Removed:
			if oldLeft == 0 {
				return Chunk{}, p.malformed("removed line exceeds declared old count")
			}
			c.Lines = append(c.Lines, Line{Kind: Removed, Text: text, OldLine: oldNo})
			oldNo++
			oldLeft--
		case Added:
			if newLeft == 0 {
				return Chunk{}, p.malformed("added line exceeds declared new count")
			}
			c.Lines = append(c.Lines, Line{Kind: Added, Text: text, NewLine: newNo})
			newNo++
			newLeft--
		}
		p.pos++
	}
	if oldLeft != 0 || newLeft != 0 {
		return Chunk{}, fmt.Errorf("%w: hunk %q is short by %d old and %d new lines",
			ErrMalformedDiff, header, oldLeft, newLeft)
	}
	return c, nil
}

func classify(line string) (LineKind, string, bool) {
	if line == "" {
		return Context, "", false
	}
	switch line[0] {
	case ' ':
		return Context, line[1:], true
	case '+':
		return Added, line[1:], true
	case '-':
		return Removed, line[1:], true
	default:
		return Context, "", false
	}
}

func parseRange(start, count string) (int, int, error) {
	s, err := strconv.Atoi(start)
	if err != nil {
		return 0, 0, err
	}
	n := 1
	if count != "" {
		if n, err = strconv.Atoi(count); err != nil {
			return 0, 0, err
		}
	}
	return s, n, nil
}

package highlight

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"

	"github.com/thiagokokada/gitk-review/internal/diff"
	"github.com/thiagokokada/gitk-review/internal/selection"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiCyan  = "\x1b[36m"
)

// Renderer writes a snapshot as an annotated diff. Every body line carries its
// chunk:line address and, for changes, whether it is selected.
type Renderer struct {
	Palette Palette
	Color   bool
	Syntax  bool
}

func (r Renderer) Render(w io.Writer, snap *diff.Snapshot, isSelected func(chunk, line int) bool) error {
	var b strings.Builder
	switch {
	case snap == nil:
		b.WriteString("no diff loaded\n")
	case snap.Binary:
		fmt.Fprintf(&b, "binary file %s differs\n", snap.Path)
	case snap.Empty():
		fmt.Fprintf(&b, "no changes in %s\n", snap.Path)
	default:
		r.render(&b, snap, isSelected)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r Renderer) render(b *strings.Builder, snap *diff.Snapshot, isSelected func(chunk, line int) bool) {
	var lexer chroma.Lexer
	var style *chroma.Style
	if r.Color && r.Syntax {
		lexer = LexerForPath(snap.Path)
		style = StyleFor(r.Palette)
	}
	var pairs map[selection.Key]selection.Key
	if r.Color {
		pairs = selection.Pairs(snap)
	}

	for _, h := range snap.Header {
		r.styled(b, ansiBold, h)
	}
	for ci, c := range snap.Chunks {
		r.styled(b, ansiCyan, c.Header())
		for li, l := range c.Lines {
			mark := "   "
			if l.IsChange() {
				mark = "[ ]"
				if isSelected != nil && isSelected(ci, li) {
					mark = "[x]"
				}
			}
			addr := fmt.Sprintf("%d:%d", ci, li)
			if !r.Color {
				fmt.Fprintf(b, "%s %s %s%s\n", mark, addr, marker(l.Kind), l.Text)
			} else {
				segs := []Segment{{Text: l.Text}}
				if partner, ok := pairs[selection.Key{Chunk: ci, Line: li}]; ok {
					other := c.Lines[partner.Line].Text
					if l.Kind == diff.Removed {
						segs, _ = WordDiff(l.Text, other)
					} else {
						_, segs = WordDiff(other, l.Text)
					}
				}
				fmt.Fprintf(b, "%s %s%s%s ", mark, ansiDim, addr, ansiReset)
				r.colorLine(b, l.Kind, segs, Tokens(lexer, style, l.Text))
			}
			if l.NoNewline {
				r.styled(b, ansiDim, `\ No newline at end of file`)
			}
		}
	}
}

func marker(k diff.LineKind) string {
	switch k {
	case diff.Added:
		return "+"
	case diff.Removed:
		return "-"
	default:
		return " "
	}
}

func (r Renderer) styled(b *strings.Builder, code, text string) {
	if r.Color {
		b.WriteString(code + text + ansiReset + "\n")
		return
	}
	b.WriteString(text + "\n")
}

func (r Renderer) colorLine(b *strings.Builder, kind diff.LineKind, segs []Segment, spans []Span) {
	bg, fg := "", ""
	switch kind {
	case diff.Added:
		bg, fg = bgCode(r.Palette.Added), ansiGreen
	case diff.Removed:
		bg, fg = bgCode(r.Palette.Removed), ansiRed
	}
	b.WriteString(bg + fg + marker(kind) + ansiReset)
	for _, rn := range mergeRuns(segs, spans) {
		b.WriteString(bg)
		if rn.Color != "" {
			b.WriteString(fgCode(rn.Color))
		}
		if rn.Changed && kind != diff.Context {
			b.WriteString(ansiBold)
		}
		b.WriteString(rn.Text)
		b.WriteString(ansiReset)
	}
	b.WriteByte('\n')
}

type run struct {
	Text    string
	Color   string
	Changed bool
}

// mergeRuns overlays word-diff segments and syntax spans of the same text.
func mergeRuns(segs []Segment, spans []Span) []run {
	if len(spans) == 0 {
		out := make([]run, 0, len(segs))
		for _, s := range segs {
			out = append(out, run{Text: s.Text, Changed: s.Changed})
		}
		return out
	}
	var out []run
	si, soff := 0, 0
	for _, sp := range spans {
		text := sp.Text
		for text != "" {
			for si < len(segs) && soff >= len(segs[si].Text) {
				si++
				soff = 0
			}
			changed := false
			n := len(text)
			if si < len(segs) {
				changed = segs[si].Changed
				if rest := len(segs[si].Text) - soff; rest < n {
					n = rest
				}
			}
			out = append(out, run{Text: text[:n], Color: sp.Color, Changed: changed})
			text = text[n:]
			soff += n
		}
	}
	return out
}

func fgCode(color string) string {
	r, g, b, ok := parseHex(color)
	if !ok {
		return ""
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
}

func bgCode(color string) string {
	r, g, b, ok := parseHex(color)
	if !ok {
		return ""
	}
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm", r, g, b)
}

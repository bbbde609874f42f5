package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Span is a run of code with its foreground colour, "" for the default.
type Span struct {
	Text  string
	Color string
}

func StyleFor(p Palette) *chroma.Style {
	if st := styles.Get(p.Style); st != nil {
		return st
	}
	return styles.Fallback
}

// LexerForPath picks a lexer from the file name; unknown files get the
// plain-text fallback.
func LexerForPath(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// Tokens splits one line of code into coloured spans. The spans always
// concatenate back to code.
func Tokens(lexer chroma.Lexer, style *chroma.Style, code string) []Span {
	if code == "" {
		return nil
	}
	if lexer == nil || style == nil {
		return []Span{{Text: code}}
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return []Span{{Text: code}}
	}
	var spans []Span
	n := 0
	for _, token := range iterator.Tokens() {
		if token.Value == "" {
			continue
		}
		value := token.Value
		if n+len(value) > len(code) {
			value = value[:len(code)-n]
		}
		spans = append(spans, Span{Text: value, Color: colorFromEntry(style.Get(token.Type))})
		n += len(value)
		if n == len(code) {
			break
		}
	}
	if n < len(code) {
		spans = append(spans, Span{Text: code[n:]})
	}
	return spans
}

func colorFromEntry(entry chroma.StyleEntry) string {
	if entry.Colour.IsSet() {
		col := entry.Colour.String()
		col = strings.TrimPrefix(strings.ToLower(col), "#")
		return "#" + col
	}
	return ""
}

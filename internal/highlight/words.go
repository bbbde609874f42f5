package highlight

import (
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Lines longer than this are marked as changed as a whole.
const wordDiffMaxLineLength = 500

// Segment is part of a line and whether it differs from the paired line.
type Segment struct {
	Text    string
	Changed bool
}

// WordDiff compares a removed line with the added line that replaces it.
// The segments of each side concatenate back to that side's line.
func WordDiff(oldLine, newLine string) (oldSegs, newSegs []Segment) {
	if oldLine == "" || newLine == "" ||
		len(oldLine) > wordDiffMaxLineLength || len(newLine) > wordDiffMaxLineLength {
		return whole(oldLine), whole(newLine)
	}
	dmp := diffmatchpatch.New()
	// Tokens are mapped to single runes so the diff runs word by word.
	oldRunes, newRunes, tokens := tokensToRunes(tokenize(oldLine), tokenize(newLine))
	diffs := dmp.DiffMainRunes(oldRunes, newRunes, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	for _, d := range diffs {
		var text strings.Builder
		for _, r := range d.Text {
			text.WriteString(tokens[r])
		}
		seg := text.String()
		if seg == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldSegs = appendSegment(oldSegs, Segment{Text: seg})
			newSegs = appendSegment(newSegs, Segment{Text: seg})
		case diffmatchpatch.DiffDelete:
			oldSegs = appendSegment(oldSegs, Segment{Text: seg, Changed: true})
		case diffmatchpatch.DiffInsert:
			newSegs = appendSegment(newSegs, Segment{Text: seg, Changed: true})
		}
	}
	return oldSegs, newSegs
}

func whole(line string) []Segment {
	if line == "" {
		return nil
	}
	return []Segment{{Text: line, Changed: true}}
}

func appendSegment(segs []Segment, s Segment) []Segment {
	if n := len(segs); n > 0 && segs[n-1].Changed == s.Changed {
		segs[n-1].Text += s.Text
		return segs
	}
	return append(segs, s)
}

// tokenize splits a line into words, single punctuation characters and
// single whitespace characters.
func tokenize(line string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range line {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			flush()
			tokens = append(tokens, string(r))
			continue
		}
		current.WriteRune(r)
	}
	flush()
	return tokens
}

func tokensToRunes(a, b []string) ([]rune, []rune, map[rune]string) {
	ids := map[string]rune{}
	tokens := map[rune]string{}
	next := rune(0xE000) // private use area
	encode := func(words []string) []rune {
		out := make([]rune, 0, len(words))
		for _, w := range words {
			id, ok := ids[w]
			if !ok {
				id = next
				next++
				ids[w] = id
				tokens[id] = w
			}
			out = append(out, id)
		}
		return out
	}
	return encode(a), encode(b), tokens
}

package highlight

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitk-review/internal/diff"
	"github.com/thiagokokada/gitk-review/internal/selection"
)

func TestPreferenceFromString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ThemeDark, PreferenceFromString(" Dark "))
	assert.Equal(t, ThemeLight, PreferenceFromString("light"))
	assert.Equal(t, ThemeAuto, PreferenceFromString("whatever"))
	assert.Equal(t, "auto", ThemeAuto.String())
}

func TestResolveAuto(t *testing.T) {
	orig := detectDarkMode
	t.Cleanup(func() { detectDarkMode = orig })

	detectDarkMode = func() (bool, error) { return true, nil }
	assert.True(t, Resolve(ThemeAuto).IsDark())

	detectDarkMode = func() (bool, error) { return false, errors.New("no desktop") }
	assert.False(t, Resolve(ThemeAuto).IsDark())

	assert.True(t, Resolve(ThemeDark).IsDark())
	assert.False(t, Resolve(ThemeLight).IsDark())
}

func joinSegments(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

func TestWordDiff(t *testing.T) {
	t.Parallel()

	oldLine := `fmt.Println("hello", name)`
	newLine := `fmt.Println("goodbye", name)`
	oldSegs, newSegs := WordDiff(oldLine, newLine)

	assert.Equal(t, oldLine, joinSegments(oldSegs))
	assert.Equal(t, newLine, joinSegments(newSegs))

	var changedOld, changedNew []string
	for _, s := range oldSegs {
		if s.Changed {
			changedOld = append(changedOld, s.Text)
		}
	}
	for _, s := range newSegs {
		if s.Changed {
			changedNew = append(changedNew, s.Text)
		}
	}
	assert.Equal(t, []string{"hello"}, changedOld)
	assert.Equal(t, []string{"goodbye"}, changedNew)
}

func TestWordDiffEmptySide(t *testing.T) {
	t.Parallel()

	oldSegs, newSegs := WordDiff("", "added")
	assert.Nil(t, oldSegs)
	assert.Equal(t, []Segment{{Text: "added", Changed: true}}, newSegs)
}

func TestTokensConcatenateToCode(t *testing.T) {
	t.Parallel()

	code := `func main() { fmt.Println("x") }`
	spans := Tokens(LexerForPath("main.go"), StyleFor(lightPalette), code)
	require.NotEmpty(t, spans)

	var b strings.Builder
	colored := false
	for _, s := range spans {
		b.WriteString(s.Text)
		if s.Color != "" {
			colored = true
		}
	}
	assert.Equal(t, code, b.String())
	assert.True(t, colored)
	assert.Equal(t, []Span{{Text: "plain"}}, Tokens(nil, nil, "plain"))
	assert.Nil(t, Tokens(nil, nil, ""))
}

func TestMergeRuns(t *testing.T) {
	t.Parallel()

	segs := []Segment{{Text: "ab"}, {Text: "cd", Changed: true}}
	spans := []Span{{Text: "a", Color: "#111111"}, {Text: "bcd", Color: "#222222"}}
	assert.Equal(t, []run{
		{Text: "a", Color: "#111111"},
		{Text: "b", Color: "#222222"},
		{Text: "cd", Color: "#222222", Changed: true},
	}, mergeRuns(segs, spans))
}

func TestRenderPlain(t *testing.T) {
	t.Parallel()

	snap, err := diff.Parse("@@ -1,2 +1,3 @@\n context\n-old\n+new1\n+new2\n", "f.txt", diff.Unstaged, "tok")
	require.NoError(t, err)
	sel := selection.New(snap, selection.WithPairing(true))
	sel.ToggleLine(0, 2)

	var b strings.Builder
	require.NoError(t, Renderer{}.Render(&b, snap, sel.IsSelected))
	assert.Equal(t, "@@ -1,2 +1,3 @@\n"+
		"    0:0  context\n"+
		"[x] 0:1 -old\n"+
		"[x] 0:2 +new1\n"+
		"[ ] 0:3 +new2\n", b.String())
}

func TestRenderColorKeepsText(t *testing.T) {
	t.Parallel()

	snap, err := diff.Parse("@@ -1 +1 @@\n-x := 1\n+x := 2\n\\ No newline at end of file\n", "f.go", diff.Unstaged, "")
	require.NoError(t, err)

	var b strings.Builder
	r := Renderer{Palette: darkPalette, Color: true, Syntax: true}
	require.NoError(t, r.Render(&b, snap, nil))
	out := b.String()
	assert.Contains(t, out, "\x1b[48;2;31;61;43m")
	assert.Contains(t, out, "0:1")
	assert.Contains(t, out, `\ No newline at end of file`)
	assert.Contains(t, out, ansiBold+"2")
}

func TestRenderSpecialSnapshots(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	require.NoError(t, Renderer{}.Render(&b, nil, nil))
	require.NoError(t, Renderer{}.Render(&b, &diff.Snapshot{Path: "a"}, nil))
	require.NoError(t, Renderer{}.Render(&b, &diff.Snapshot{Path: "b.png", Binary: true}, nil))
	assert.Equal(t, "no diff loaded\nno changes in a\nbinary file b.png differs\n", b.String())
}

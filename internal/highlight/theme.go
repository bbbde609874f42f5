// Package highlight renders diff snapshots for a terminal with syntax and
// word-level change highlighting.
package highlight

import (
	"log/slog"
	"strconv"
	"strings"

	darkmode "github.com/thiagokokada/dark-mode-go"
)

type Preference int

const (
	ThemeAuto Preference = iota
	ThemeLight
	ThemeDark
)

func (p Preference) String() string {
	switch p {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return "auto"
	}
}

func PreferenceFromString(raw string) Preference {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ThemeDark.String():
		return ThemeDark
	case ThemeLight.String():
		return ThemeLight
	default:
		return ThemeAuto
	}
}

// Palette holds the background colours of a theme as "#rrggbb".
type Palette struct {
	Name     string
	Added    string
	Removed  string
	Header   string
	Selected string
	Style    string // chroma style name
}

var (
	lightPalette = Palette{
		Name:     "light",
		Added:    "#dff5de",
		Removed:  "#f9d6d5",
		Header:   "#e4e4e4",
		Selected: "#fff3bf",
		Style:    "github",
	}
	darkPalette = Palette{
		Name:     "dark",
		Added:    "#1f3d2b",
		Removed:  "#3d1f29",
		Header:   "#2f2f2f",
		Selected: "#4a4220",
		Style:    "github-dark",
	}
	detectDarkMode = darkmode.IsDarkMode
)

// Resolve picks the palette for pref, asking the desktop for its colour
// scheme when pref is ThemeAuto.
func Resolve(pref Preference) Palette {
	switch pref {
	case ThemeDark:
		return darkPalette
	case ThemeLight:
		return lightPalette
	default:
		if detectDarkMode != nil {
			dark, err := detectDarkMode()
			if err != nil {
				slog.Debug("detect dark-mode", slog.Any("error", err))
				return lightPalette
			}
			if dark {
				return darkPalette
			}
		}
		return lightPalette
	}
}

func (p Palette) IsDark() bool {
	return p.Name == darkPalette.Name
}

func parseHex(color string) (r, g, b uint8, ok bool) {
	color = strings.TrimPrefix(color, "#")
	if len(color) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(color, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

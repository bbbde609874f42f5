// Package buildinfo reports how the binary was built.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var readBuildInfo = debug.ReadBuildInfo

// Version returns the module version or "dev" when unset.
func Version() string {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return "dev"
	}
	return version
}

// Revision returns the short VCS revision, with a "-dirty" suffix for
// builds from a modified tree.
func Revision() string {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return ""
	}
	var rev string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			rev = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}

// String is the text printed by --version.
func String() string {
	version := Version()
	if rev := Revision(); rev != "" {
		return fmt.Sprintf("%s (%s)", version, rev)
	}
	return version
}

package backend

import (
	"fmt"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// gitRelease is the major, minor and patch of a git binary.
type gitRelease [3]int

// requiredGit is the oldest git whose "status --porcelain=v2", "switch" and
// "apply --cached --unidiff-zero" behave the way the CLI backend expects.
var requiredGit = gitRelease{2, 23, 0}

func (r gitRelease) String() string {
	return fmt.Sprintf("%d.%d.%d", r[0], r[1], r[2])
}

func (r gitRelease) atLeast(other gitRelease) bool {
	return slices.Compare(r[:], other[:]) >= 0
}

var releasePattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// parseRelease reads "git --version" output. Vendor suffixes such as
// "(Apple Git-146)" or ".windows.1" are ignored.
func parseRelease(out string) (gitRelease, bool) {
	out = strings.TrimSpace(out)
	out = strings.TrimSpace(strings.TrimPrefix(out, "git version"))
	m := releasePattern.FindStringSubmatch(out)
	if m == nil || !strings.HasPrefix(out, m[0]) {
		return gitRelease{}, false
	}
	var r gitRelease
	for i, part := range m[1:] {
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return gitRelease{}, false
		}
		r[i] = n
	}
	return r, true
}

func checkRelease(out string) error {
	got, ok := parseRelease(out)
	if !ok {
		return fmt.Errorf("unable to parse git version output: %q", strings.TrimSpace(out))
	}
	if !got.atLeast(requiredGit) {
		return fmt.Errorf("git %s is too old; gitk-review requires git >= %s", got, requiredGit)
	}
	return nil
}

// gitUsable runs "git --version" once per process.
var gitUsable = sync.OnceValue(func() error {
	out, err := exec.Command("git", "--version").CombinedOutput()
	if err != nil {
		if s := strings.TrimSpace(string(out)); s != "" {
			return fmt.Errorf("git --version: %v: %s", err, s)
		}
		return fmt.Errorf("git --version: %w", err)
	}
	return checkRelease(string(out))
})

package backend

import (
	"fmt"
	"strings"
)

type RefKind uint8

const (
	RefKindBranch RefKind = iota
	RefKindRemoteBranch
	RefKindTag
)

// Ref is a named commit. Name is short: "main", "origin/main", "v1".
type Ref struct {
	Name string
	Kind RefKind
	Hash string
}

// parseRefsFromShowRef reads "git show-ref --dereference" output. Annotated
// tags resolve to the commit they point at.
func parseRefsFromShowRef(out string) ([]Ref, error) {
	peeledByTagRef := map[string]string{}
	type refEntry struct {
		hash string
		ref  string
	}
	var entries []refEntry

	for _, rawLine := range strings.Split(out, "\n") {
		line := strings.TrimRight(rawLine, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		hash, refName, ok := strings.Cut(line, " ")
		hash, refName = strings.TrimSpace(hash), strings.TrimSpace(refName)
		if !ok || hash == "" || refName == "" || strings.ContainsAny(refName, " \t") {
			return nil, fmt.Errorf("unexpected show-ref output line: %q", rawLine)
		}
		if base, peeled := strings.CutSuffix(refName, "^{}"); peeled {
			if base != "" {
				peeledByTagRef[base] = hash
			}
			continue
		}
		entries = append(entries, refEntry{hash: hash, ref: refName})
	}

	var refs []Ref
	for _, entry := range entries {
		kind, short, ok := classifyRef(entry.ref)
		if !ok {
			continue
		}
		hash := entry.hash
		if peeled, ok := peeledByTagRef[entry.ref]; ok && kind == RefKindTag {
			hash = peeled
		}
		refs = append(refs, Ref{Hash: hash, Kind: kind, Name: short})
	}
	return refs, nil
}

func classifyRef(name string) (RefKind, string, bool) {
	prefixes := []struct {
		prefix string
		kind   RefKind
	}{
		{"refs/heads/", RefKindBranch},
		{"refs/remotes/", RefKindRemoteBranch},
		{"refs/tags/", RefKindTag},
	}
	for _, p := range prefixes {
		if short, ok := strings.CutPrefix(name, p.prefix); ok {
			return p.kind, short, short != ""
		}
	}
	return 0, "", false
}

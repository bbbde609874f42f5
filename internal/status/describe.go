package status

import "strings"

func isConflict(index, worktree Code) bool {
	if index == Unmerged || worktree == Unmerged {
		return true
	}
	return (index == Added && worktree == Added) || (index == Deleted && worktree == Deleted)
}

var conflictDescriptions = map[[2]Code]string{
	{Deleted, Deleted}:   "unmerged, both deleted",
	{Added, Unmerged}:    "unmerged, added by us",
	{Unmerged, Deleted}:  "unmerged, deleted by them",
	{Unmerged, Added}:    "unmerged, added by them",
	{Deleted, Unmerged}:  "unmerged, deleted by us",
	{Added, Added}:       "unmerged, both added",
	{Unmerged, Unmerged}: "unmerged, both modified",
}

var indexDescriptions = map[Code]string{
	Modified:    "modified in index",
	TypeChanged: "type changed in index",
	Added:       "added to index",
	Deleted:     "deleted from index",
	Renamed:     "renamed in index",
	Copied:      "copied in index",
}

var worktreeDescriptions = map[Code]string{
	Modified:    "modified in working tree",
	TypeChanged: "type changed in working tree",
	Added:       "intent to add",
	Deleted:     "deleted in working tree",
	Renamed:     "renamed in working tree",
	Copied:      "copied in working tree",
}

// Describe returns a human readable description of a status pair.
func Describe(index, worktree Code) string {
	if index == 0 {
		index = Unmodified
	}
	if worktree == 0 {
		worktree = Unmodified
	}
	switch {
	case index == Untracked || worktree == Untracked:
		return "untracked"
	case index == Ignored || worktree == Ignored:
		return "ignored"
	case isConflict(index, worktree):
		if d, ok := conflictDescriptions[[2]Code{index, worktree}]; ok {
			return d
		}
		return "unmerged"
	}
	var parts []string
	if index != Unmodified {
		parts = append(parts, describeSide(indexDescriptions, index, "index"))
	}
	if worktree != Unmodified {
		parts = append(parts, describeSide(worktreeDescriptions, worktree, "working tree"))
	}
	if len(parts) == 0 {
		return "unmodified"
	}
	return strings.Join(parts, ", ")
}

func describeSide(m map[Code]string, c Code, side string) string {
	if d, ok := m[c]; ok {
		return d
	}
	return "unknown status " + c.String() + " in " + side
}

// Package selection tracks which lines of a diff snapshot the user picked.
package selection

import (
	"slices"

	"github.com/thiagokokada/gitk-review/internal/diff"
)

// Key addresses one line of a snapshot.
type Key struct {
	Chunk int
	Line  int
}

func (k Key) compare(o Key) int {
	if k.Chunk != o.Chunk {
		return k.Chunk - o.Chunk
	}
	return k.Line - o.Line
}

// Selection is bound to the snapshot it was created for through the revision
// token and must be discarded together with it. It is not safe for
// concurrent use; the owning session serialises access.
type Selection struct {
	snap     *diff.Snapshot
	token    string
	pairing  bool
	selected map[Key]struct{}
	partners map[Key]Key
}

type Option func(*Selection)

// WithPairing links the i-th removed line of a change block with the i-th
// added line so that toggling one toggles both.
func WithPairing(on bool) Option {
	return func(s *Selection) { s.pairing = on }
}

func New(snap *diff.Snapshot, opts ...Option) *Selection {
	s := &Selection{snap: snap, selected: map[Key]struct{}{}}
	if snap != nil {
		s.token = snap.Token
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pairing {
		s.partners = Pairs(snap)
	}
	return s
}

func (s *Selection) Token() string {
	return s.token
}

// Snapshot returns the snapshot the selection belongs to.
func (s *Selection) Snapshot() *diff.Snapshot {
	return s.snap
}

func (s *Selection) line(k Key) (diff.Line, bool) {
	if s.snap == nil || k.Chunk < 0 || k.Chunk >= len(s.snap.Chunks) {
		return diff.Line{}, false
	}
	lines := s.snap.Chunks[k.Chunk].Lines
	if k.Line < 0 || k.Line >= len(lines) {
		return diff.Line{}, false
	}
	return lines[k.Line], true
}

func (s *Selection) IsSelected(chunk, line int) bool {
	_, ok := s.selected[Key{Chunk: chunk, Line: line}]
	return ok
}

// SetLine forces the state of one line (and its partner when pairing).
func (s *Selection) SetLine(chunk, line int, selected bool) {
	k := Key{Chunk: chunk, Line: line}
	if _, ok := s.line(k); !ok {
		return
	}
	s.set(k, selected)
	if partner, ok := s.partners[k]; ok {
		s.set(partner, selected)
	}
}

func (s *Selection) ToggleLine(chunk, line int) {
	s.SetLine(chunk, line, !s.IsSelected(chunk, line))
}

// ToggleChunk selects every line of the chunk unless all of its changed lines
// are already selected, in which case the whole chunk is cleared.
func (s *Selection) ToggleChunk(chunk int) {
	if s.snap == nil || chunk < 0 || chunk >= len(s.snap.Chunks) {
		return
	}
	target := !s.chunkFullySelected(chunk)
	for i := range s.snap.Chunks[chunk].Lines {
		s.set(Key{Chunk: chunk, Line: i}, target)
	}
}

func (s *Selection) chunkFullySelected(chunk int) bool {
	c := s.snap.Chunks[chunk]
	changes := c.HasChanges()
	for i, l := range c.Lines {
		if changes && !l.IsChange() {
			continue
		}
		if !s.IsSelected(chunk, i) {
			return false
		}
	}
	return true
}

func (s *Selection) SelectAll() {
	if s.snap == nil {
		return
	}
	for ci, c := range s.snap.Chunks {
		for li := range c.Lines {
			s.set(Key{Chunk: ci, Line: li}, true)
		}
	}
}

func (s *Selection) Clear() {
	clear(s.selected)
}

// Count returns the number of selected added or removed lines.
func (s *Selection) Count() int {
	n := 0
	for k := range s.selected {
		if l, ok := s.line(k); ok && l.IsChange() {
			n++
		}
	}
	return n
}

// Empty reports whether no changed line is selected.
func (s *Selection) Empty() bool {
	return s.Count() == 0
}

// Keys returns the selected keys in snapshot order.
func (s *Selection) Keys() []Key {
	keys := make([]Key, 0, len(s.selected))
	for k := range s.selected {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, Key.compare)
	return keys
}

func (s *Selection) set(k Key, selected bool) {
	if selected {
		s.selected[k] = struct{}{}
		return
	}
	delete(s.selected, k)
}

// Pairs maps the i-th removed line of every change block to the i-th added
// line and back.
func Pairs(snap *diff.Snapshot) map[Key]Key {
	partners := map[Key]Key{}
	if snap == nil {
		return partners
	}
	for ci, c := range snap.Chunks {
		var removed, added []Key
		flush := func() {
			for i := 0; i < len(removed) && i < len(added); i++ {
				partners[removed[i]] = added[i]
				partners[added[i]] = removed[i]
			}
			removed, added = removed[:0], added[:0]
		}
		for li, l := range c.Lines {
			switch l.Kind {
			case diff.Removed:
				removed = append(removed, Key{Chunk: ci, Line: li})
			case diff.Added:
				added = append(added, Key{Chunk: ci, Line: li})
			default:
				flush()
			}
		}
		flush()
	}
	return partners
}

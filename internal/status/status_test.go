package status

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParsePorcelainV2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []Entry
	}{
		{name: "empty", in: "", want: nil},
		{
			name: "worktree_only",
			in:   "1 .M N... 100644 100644 100644 abcdef0 abcdef0 path.txt\n",
			want: []Entry{{Path: "path.txt", Index: Unmodified, Worktree: Modified}},
		},
		{
			name: "staged_only",
			in:   "1 M. N... 100644 100644 100644 abcdef0 abcdef0 path.txt\n",
			want: []Entry{{Path: "path.txt", Index: Modified, Worktree: Unmodified}},
		},
		{
			name: "path_with_spaces",
			in:   "1 A. N... 000000 100644 100644 0000000 abcdef0 dir/my file.txt\n",
			want: []Entry{{Path: "dir/my file.txt", Index: Added, Worktree: Unmodified}},
		},
		{
			name: "quoted_path",
			in:   "1 .M N... 100644 100644 100644 abcdef0 abcdef0 \"tab\\there.txt\"\n",
			want: []Entry{{Path: "tab\there.txt", Index: Unmodified, Worktree: Modified}},
		},
		{
			name: "rename",
			in:   "2 R. N... 100644 100644 100644 abcdef0 abcdef0 R100 new.txt\told.txt\n",
			want: []Entry{{Path: "new.txt", OrigPath: "old.txt", Index: Renamed, Worktree: Unmodified}},
		},
		{
			name: "unmerged",
			in:   "u UU N... 100644 100644 100644 100644 abcdef0 abcdef0 abcdef0 conflict.txt\n",
			want: []Entry{{Path: "conflict.txt", Index: Unmerged, Worktree: Unmerged}},
		},
		{
			name: "untracked",
			in:   "? untracked.txt\n",
			want: []Entry{{Path: "untracked.txt", Index: Untracked, Worktree: Untracked}},
		},
		{
			name: "ignored_and_headers_skipped",
			in:   "# branch.oid abcdef0\n! ignored.txt\n",
			want: nil,
		},
		{
			name: "mixed",
			in: strings.Join([]string{
				"1 .M N... 100644 100644 100644 abcdef0 abcdef0 a.txt",
				"1 D. N... 100644 000000 000000 abcdef0 0000000 b.txt",
				"? c.txt",
			}, "\n") + "\n",
			want: []Entry{
				{Path: "a.txt", Index: Unmodified, Worktree: Modified},
				{Path: "b.txt", Index: Deleted, Worktree: Unmodified},
				{Path: "c.txt", Index: Untracked, Worktree: Untracked},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePorcelainV2(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("ParsePorcelainV2() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParsePorcelainV2() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParsePorcelainV2_Errors(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"1 .M N...\n",
		"2 R. N... 100644 100644 100644 abcdef0 abcdef0 R100 no-tab.txt\n",
		"1 .M N... 100644 100644 100644 abcdef0 abcdef0 \"unterminated\n",
	} {
		if _, err := ParsePorcelainV2(strings.NewReader(in)); err == nil {
			t.Fatalf("ParsePorcelainV2(%q) expected error", in)
		}
	}
	if _, err := ParsePorcelainV2(failingReader{}); err == nil {
		t.Fatal("expected error from reader")
	}
}

func TestEntryFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		entry    Entry
		staged   bool
		unstaged bool
		code     string
	}{
		{entry: Entry{Index: Modified, Worktree: Unmodified}, staged: true, code: "M "},
		{entry: Entry{Index: Unmodified, Worktree: Modified}, unstaged: true, code: " M"},
		{entry: Entry{Index: Added, Worktree: Modified}, staged: true, unstaged: true, code: "AM"},
		{entry: Entry{Index: Untracked, Worktree: Untracked}, unstaged: true, code: "??"},
		{entry: Entry{}, code: "  "},
	}
	for _, tt := range tests {
		if got := tt.entry.Staged(); got != tt.staged {
			t.Fatalf("%q Staged() = %v, want %v", tt.code, got, tt.staged)
		}
		if got := tt.entry.Unstaged(); got != tt.unstaged {
			t.Fatalf("%q Unstaged() = %v, want %v", tt.code, got, tt.unstaged)
		}
		if got := tt.entry.Code(); got != tt.code {
			t.Fatalf("Code() = %q, want %q", got, tt.code)
		}
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		index, worktree Code
		want            string
	}{
		{Unmodified, Unmodified, "unmodified"},
		{Modified, Unmodified, "modified in index"},
		{Unmodified, Modified, "modified in working tree"},
		{Modified, Modified, "modified in index, modified in working tree"},
		{Added, Deleted, "added to index, deleted in working tree"},
		{Renamed, Modified, "renamed in index, modified in working tree"},
		{Unmodified, Added, "intent to add"},
		{TypeChanged, Unmodified, "type changed in index"},
		{Untracked, Untracked, "untracked"},
		{Ignored, Ignored, "ignored"},
		{Unmerged, Unmerged, "unmerged, both modified"},
		{Added, Added, "unmerged, both added"},
		{Deleted, Deleted, "unmerged, both deleted"},
		{Deleted, Unmerged, "unmerged, deleted by us"},
		{Unmerged, Deleted, "unmerged, deleted by them"},
		{Code('X'), Unmodified, "unknown status X in index"},
		{0, 0, "unmodified"},
	}
	for _, tt := range tests {
		if got := Describe(tt.index, tt.worktree); got != tt.want {
			t.Fatalf("Describe(%q, %q) = %q, want %q", tt.index, tt.worktree, got, tt.want)
		}
	}
}

func TestDescribeCoversEveryPair(t *testing.T) {
	t.Parallel()

	codes := []Code{Unmodified, Modified, TypeChanged, Added, Deleted, Renamed, Copied, Unmerged, Untracked, Ignored}
	for _, i := range codes {
		for _, w := range codes {
			got := Describe(i, w)
			if got == "" || strings.Contains(got, "unknown") {
				t.Fatalf("Describe(%q, %q) = %q", i, w, got)
			}
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("boom")
}

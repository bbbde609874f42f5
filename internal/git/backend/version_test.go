package backend

import "testing"

func TestParseRelease(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want gitRelease
		ok   bool
	}{
		{in: "", ok: false},
		{in: "git version 2.44.0\n", want: gitRelease{2, 44, 0}, ok: true},
		{in: "git version 2.39.3 (Apple Git-146)\n", want: gitRelease{2, 39, 3}, ok: true},
		{in: "git version 2.39.3.windows.1\n", want: gitRelease{2, 39, 3}, ok: true},
		{in: "2.42.1", want: gitRelease{2, 42, 1}, ok: true},
		{in: "git version 2.42\n", want: gitRelease{2, 42, 0}, ok: true},
		{in: "git version not-a-version 2.40.0\n", ok: false},
	}
	for _, tt := range tests {
		got, ok := parseRelease(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("parseRelease(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCheckRelease(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "git version 2.23.0", wantErr: false},
		{in: "git version 2.45.1", wantErr: false},
		{in: "git version 3.0", wantErr: false},
		{in: "git version 2.22.9", wantErr: true},
		{in: "git version 1.9.5", wantErr: true},
		{in: "garbage", wantErr: true},
	}
	for _, tt := range tests {
		if err := checkRelease(tt.in); (err != nil) != tt.wantErr {
			t.Fatalf("checkRelease(%q) = %v, want error %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestGitReleaseAtLeast(t *testing.T) {
	t.Parallel()

	if !(gitRelease{2, 23, 0}).atLeast(requiredGit) {
		t.Fatal("required release should satisfy itself")
	}
	if (gitRelease{2, 9, 99}).atLeast(gitRelease{2, 10, 0}) {
		t.Fatal("2.9.99 should be older than 2.10.0")
	}
}

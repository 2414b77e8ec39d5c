package textutil

import "testing"

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"A Calm Mountain Lake", "a-calm-mountain-lake"},
		{"  spaced  out  ", "spaced-out"},
		{"emoji 🎬 cut", "emoji-cut"},
		{"___", "untitled"},
		{"", "untitled"},
		{"Already-Slugged-42", "already-slugged-42"},
	}
	for _, tc := range cases {
		if got := Slug(tc.in); got != tc.want {
			t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace("a\n b\t\tc"); got != "a b c" {
		t.Fatalf("CollapseWhitespace = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 10); got != "abcdef" {
		t.Fatalf("no-op truncate = %q", got)
	}
	if got := Truncate("abcdefghij", 5); got != "ab..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := Truncate("abcdef", 2); got != "ab" {
		t.Fatalf("short truncate = %q", got)
	}
}

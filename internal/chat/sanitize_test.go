package chat

import "testing"

func TestSanitizer(t *testing.T) {
	s := NewSanitizer()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "hello world", "hello world"},
		{"tags stripped", "<b>hello</b> world", "hello world"},
		{"script dropped entirely", `before <script>alert("x")</script> after`, "before  after"},
		{"whitespace trimmed", "  hi  ", "hi"},
		{"only markup collapses to empty", "<img src=x onerror=alert(1)>", ""},
		{"angle comparisons survive", "a < b", "a < b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.Sanitize(tc.in); got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFirstURL(t *testing.T) {
	if got := FirstURL("see https://example.com/page and http://other.io"); got != "https://example.com/page" {
		t.Errorf("FirstURL = %q", got)
	}
	if got := FirstURL("no links here"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

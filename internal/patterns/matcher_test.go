package patterns

import "testing"

func TestMatcherIgnores(t *testing.T) {
	m, err := NewMatcher([]string{
		"*.tmp",
		"",            // blank lines are skipped
		"# a comment", // so are comments
		"*.swp",
		"/var/log/**",
	})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		path string
		want bool
	}{
		{"/tmp/watch/scratch.tmp", true},
		{"/tmp/watch/.file.swp", true},
		{"/var/log/syslog", true},
		{"/tmp/watch/report.txt", false},
		{"/tmp/watch/tmp", false},
	}
	for _, c := range cases {
		if got := m.IsIgnored(c.path); got != c.want {
			t.Errorf("IsIgnored(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestMatcherRejectsBadPattern(t *testing.T) {
	if _, err := NewMatcher([]string{"[unterminated"}); err == nil {
		t.Fatal("expected a compile error")
	}
}

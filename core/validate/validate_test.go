package validate

import "testing"

func TestURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com/path?q=1", true},
		{"  https://example.com  ", true},
		{"ftp://example.com", false},
		{"example.com", false},
		{"https://", false},
		{"", false},
		{"not a url", false},
	}
	for _, c := range cases {
		if got := URL(c.in); got != c.want {
			t.Errorf("URL(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLinkedInURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://linkedin.com/in/jane", true},
		{"https://www.linkedin.com/in/jane-doe", true},
		{"http://LinkedIn.com/in/jane", true},
		{"https://example.com/in/jane", false},
		{"https://linkedin.com.evil.example/in/jane", false},
		{"linkedin.com/in/jane", false},
		{"", false},
	}
	for _, c := range cases {
		if got := LinkedInURL(c.in); got != c.want {
			t.Errorf("LinkedInURL(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

// Package validate checks applicant-supplied values before they enter a
// profile.
package validate

import (
	"net/url"
	"strings"
)

// URL reports whether s is an absolute http or https URL with a host.
func URL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// LinkedInURL reports whether s is a valid URL pointing at a linkedin.com
// host. Subdomains such as www.linkedin.com are accepted.
func LinkedInURL(s string) bool {
	if !URL(s) {
		return false
	}
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com")
}

package matcher

import (
	"regexp"
	"strings"
)

// URLTLDs are the top-level domains that make a bare host look like a link.
var URLTLDs = []string{
	"com", "net", "org", "io", "co", "shop", "store", "app", "ai", "dev",
	"us", "uk", "de", "ca", "au", "in", "me", "biz", "info", "xyz",
}

var (
	reScheme = regexp.MustCompile(`(?i)\bhttps?://\S+`)
	reWWW    = regexp.MustCompile(`(?i)(?:^|\s)www\.\S+`)
	reHost   = regexp.MustCompile(`(?i)(?:^|[\s(])((?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+(?:` +
		strings.Join(URLTLDs, "|") + `))(?:[/:?#]\S*)?(?:$|[\s),.!?])`)
)

// LooksLikeURL reports whether input contains something a user would expect to
// be treated as a link: an http(s) URL, a www. host, or a host ending in a known TLD.
func LooksLikeURL(input string) bool {
	s := strings.TrimSpace(input)
	if s == "" {
		return false
	}
	return reScheme.MatchString(s) || reWWW.MatchString(s) || reHost.MatchString(s)
}

// ExtractURL returns the first link found in input, with https:// added when the
// user omitted the scheme. It returns "" when LooksLikeURL would be false.
func ExtractURL(input string) string {
	s := strings.TrimSpace(input)
	if m := reScheme.FindString(s); m != "" {
		return trimURLPunct(m)
	}
	if m := reWWW.FindString(s); m != "" {
		return "https://" + trimURLPunct(strings.TrimSpace(m))
	}
	if loc := reHost.FindStringSubmatchIndex(s); loc != nil {
		start := loc[2]
		end := strings.IndexFunc(s[start:], func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == ')' })
		host := s[start:]
		if end >= 0 {
			host = s[start : start+end]
		}
		return "https://" + trimURLPunct(host)
	}
	return ""
}

func trimURLPunct(s string) string {
	return strings.TrimRight(s, ".,!?;:)")
}

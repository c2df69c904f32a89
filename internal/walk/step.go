package walk

import "net/url"

// Step names one stop of the walk. Steps are immutable for the process
// lifetime.
type Step struct {
	Name string
	URL  string
}

// DefaultSteps returns the built-in demo itinerary.
func DefaultSteps() []Step {
	return []Step{
		{Name: "Example Domain", URL: "https://example.com"},
		{Name: "Python.org", URL: "https://www.python.org"},
		{Name: "Wikipedia", URL: "https://www.wikipedia.org"},
		{Name: "Google", URL: "https://www.google.com"},
	}
}

// SafeURL reports whether raw is an http(s) URL with a host component. Parse
// failures are rejections, never errors.
func SafeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// FilterSteps drops steps whose URL fails SafeURL. Unsafe entries are removed
// silently; progress math downstream uses the filtered count.
func FilterSteps(steps []Step) []Step {
	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		if SafeURL(s.URL) {
			out = append(out, s)
		}
	}
	return out
}

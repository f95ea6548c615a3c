package middleware

import "strings"

// Public surface of the service: paths that skip authentication entirely,
// as the router sees them. Adding a new public endpoint means adding it here;
// anything unknown goes through the pipeline.
var (
	defaultExemptExact = []string{
		"/errors",
		"/performance",
		"/health",
		"/ping",
		"/api/health",
		"/api/ping",
		"/metrics",
	}
	defaultExemptPrefixes = []string{
		"/errors/",
		"/events/",
		"/api/events/",
		"/analytics/",
		"/api/analytics/",
		"/auth/",
		"/api/auth/",
		"/compliance/",
		"/actuator/",
	}
)

// Classifier decides which request paths are exempt from authentication.
type Classifier struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewClassifier builds the classifier over the default allow-list.
func NewClassifier() *Classifier {
	return NewClassifierWith(defaultExemptExact, defaultExemptPrefixes)
}

// NewClassifierWith builds a classifier over explicit lists. Used by tests
// and by deployments that trim the public surface.
func NewClassifierWith(exact, prefixes []string) *Classifier {
	c := &Classifier{
		exact:    make(map[string]struct{}, len(exact)),
		prefixes: prefixes,
	}
	for _, p := range exact {
		c.exact[p] = struct{}{}
	}
	return c
}

// ShouldSkip reports whether path is exempt from authentication.
func (c *Classifier) ShouldSkip(path string) bool {
	if _, ok := c.exact[path]; ok {
		return true
	}
	for _, prefix := range c.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

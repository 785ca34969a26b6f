package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Revision is the opaque version token issued by the store on each write.
// Tokens have the form "<counter>-<hash>" but may also be a bare counter.
// Only Counter() may be used for ordering comparisons; the hash suffix
// identifies content, not order.
type Revision string

// NewRevision builds a token from a counter and a content hash suffix.
func NewRevision(counter int, suffix string) Revision {
	if suffix == "" {
		return Revision(strconv.Itoa(counter))
	}
	return Revision(fmt.Sprintf("%d-%s", counter, suffix))
}

// Counter returns the ordering-significant component of the token.
// An empty or malformed token reports 0.
func (r Revision) Counter() int {
	s := string(r)
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Suffix returns the content hash component, or "" for bare-counter tokens.
func (r Revision) Suffix() string {
	if i := strings.IndexByte(string(r), '-'); i >= 0 {
		return string(r)[i+1:]
	}
	return ""
}

// SameCounter reports whether two tokens share the ordering component.
// This is the compatibility comparison used by the eligibility gate.
func (r Revision) SameCounter(other Revision) bool {
	return r.Counter() == other.Counter()
}

package transition

import (
	"github.com/fieldworks/sentinel/pkg/core"
)

// revSame reports whether the transition's recorded last revision matches
// the document's current revision. Lenient comparison uses counters only
// (two hash-suffixed tokens sharing a counter are equal); strict comparison
// requires identical tokens.
func revSame(doc *core.Document, name string, strict bool) bool {
	rec, ok := doc.Transition(name)
	if !ok {
		return false
	}
	if strict {
		return rec.LastRev == doc.Rev
	}
	return rec.LastRev.SameCounter(doc.Rev)
}

// CanRun decides whether a transition may run for a change: the change is
// not a deletion, the filter accepts the current document state, and the
// transition has not already stamped bookkeeping at the document's current
// revision. A transition that left no bookkeeping is free to re-evaluate on
// every delivery; that is what makes redelivery idempotent.
func CanRun(change core.Change, doc *core.Document, t Transition, strict bool) bool {
	return doc != nil &&
		!change.Deleted &&
		t != nil &&
		t.Filter(doc) &&
		!revSame(doc, t.Name(), strict)
}

// Package transition provides the business-rule contract, the allow-listed
// registry and the pipeline executor that applies rules to changed
// documents.
package transition

import (
	"context"
	"regexp"

	"github.com/fieldworks/sentinel/pkg/core"
)

// Transition is the contract each business rule implements. Filter must be
// pure and synchronous; Apply reports whether it mutated the document.
// Rules mutate the shared document instance and rely on the executor for
// bookkeeping and persistence.
type Transition interface {
	Name() string
	Filter(doc *core.Document) bool
	Apply(ctx context.Context, change core.Change, doc *core.Document) (changed bool, err error)
}

// Transition names must be lowercase identifiers, max 64 chars. Anything a
// config file could smuggle in beyond that is rejected before lookup.
var nameRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// ValidateName checks a transition name against the naming rules.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return core.ErrInvalidTransitionName
	}
	return nil
}

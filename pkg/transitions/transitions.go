// Package transitions holds the concrete business rules the pipeline runs:
// patient registration, report acceptance with reminder silencing, and
// conditional alerting.
//
// Validation rules and the sandboxed expression evaluator are external
// collaborators injected through the narrow interfaces below.
package transitions

import (
	"context"

	"github.com/fieldworks/sentinel/pkg/core"
)

// ValidationRule is one configured domain validation entry. Rule grammar and
// execution belong to the injected Validator.
type ValidationRule struct {
	Property string `yaml:"property"`
	Rule     string `yaml:"rule"`
	Message  string `yaml:"message"`
}

// Validator applies configured validation rules to a document and returns
// the failures. An empty result means the document is valid.
type Validator interface {
	Validate(ctx context.Context, doc *core.Document, rules []ValidationRule) []core.DocError
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, doc *core.Document, rules []ValidationRule) []core.DocError

func (f ValidatorFunc) Validate(ctx context.Context, doc *core.Document, rules []ValidationRule) []core.DocError {
	return f(ctx, doc, rules)
}

// NoopValidator accepts everything. Used when no validation backend is
// configured.
var NoopValidator Validator = ValidatorFunc(
	func(context.Context, *core.Document, []ValidationRule) []core.DocError { return nil },
)

// Evaluator is the sandboxed expression evaluator used by conditional
// alerting: expression text and bindings in, boolean or error out. Its
// internals are out of scope here.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, bindings map[string]any) (bool, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, expression string, bindings map[string]any) (bool, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, expression string, bindings map[string]any) (bool, error) {
	return f(ctx, expression, bindings)
}

// patientID returns the patient identifier from the typed field or the
// schemaless remainder.
func patientID(doc *core.Document) string {
	if doc.PatientID != "" {
		return doc.PatientID
	}
	if v, ok := doc.Fields["patient_id"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

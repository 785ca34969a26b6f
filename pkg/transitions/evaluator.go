package transitions

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprEvaluator evaluates alert conditions with the expr language. The
// document binding is exposed as plain maps keyed by the wire field names,
// so conditions read like "doc.fields.temperature > 39". Compiled programs
// are cached per condition.
type ExprEvaluator struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

// NewExprEvaluator creates an expression evaluator.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{programs: make(map[string]*vm.Program)}
}

func (e *ExprEvaluator) compile(expression string) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if program, ok := e.programs[expression]; ok {
		return program, nil
	}
	program, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile condition: %w", err)
	}
	e.programs[expression] = program
	return program, nil
}

// Evaluate runs a condition against the bindings and reports the boolean
// outcome. A non-boolean result is an error.
func (e *ExprEvaluator) Evaluate(ctx context.Context, expression string, bindings map[string]any) (bool, error) {
	program, err := e.compile(expression)
	if err != nil {
		return false, err
	}

	env := make(map[string]any, len(bindings))
	for key, value := range bindings {
		plain, err := toPlain(value)
		if err != nil {
			return false, err
		}
		env[key] = plain
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate condition: %w", err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, fmt.Errorf("condition %q returned %T, want bool", expression, result)
	}
	return ok, nil
}

// toPlain converts a binding to maps and slices via its JSON form, so the
// expression sees the same field names the wire format uses.
func toPlain(value any) (any, error) {
	switch value.(type) {
	case nil, bool, string, int, int64, float64, map[string]any, []any:
		return value, nil
	}
	body, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("bind condition value: %w", err)
	}
	var plain any
	if err := json.Unmarshal(body, &plain); err != nil {
		return nil, fmt.Errorf("bind condition value: %w", err)
	}
	return plain, nil
}

package transition

import (
	"fmt"
	"log/slog"
)

// Available is the closed set of transition names this build knows how to
// run. Configured names outside this list are ignored with a warning; we
// never resolve a transition from arbitrary input.
var Available = []string{
	"registration",
	"accept_patient_reports",
	"conditional_alerts",
}

// Config is the per-transition configuration entry.
type Config struct {
	Disable bool `yaml:"disable"`
}

// Registry is the fixed, ordered set of transitions the pipeline runs.
// Built once at process start and immutable thereafter.
type Registry struct {
	ordered []Transition
	strict  bool
	logger  *slog.Logger
}

// RegistryOption configures registry construction.
type RegistryOption func(*Registry)

// StrictRevisions makes the eligibility gate compare whole revision tokens
// instead of counters only. The lenient default matches the historical
// behavior where two revisions sharing a counter are considered equal.
func StrictRevisions() RegistryOption {
	return func(r *Registry) { r.strict = true }
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry builds a registry from the configured enablement map and the
// statically known implementations, preserving the order of impls. A
// transition runs only when it is implemented, allow-listed, configured and
// not disabled; everything else is skipped with a warning.
func NewRegistry(cfg map[string]Config, impls []Transition, opts ...RegistryOption) *Registry {
	r := &Registry{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}

	available := make(map[string]bool, len(Available))
	for _, name := range Available {
		available[name] = true
	}

	implemented := make(map[string]bool, len(impls))
	for _, t := range impls {
		name := t.Name()
		if err := ValidateName(name); err != nil {
			panic(fmt.Sprintf("sentinel: transition %q: %v", name, err))
		}
		implemented[name] = true
		if !available[name] {
			panic(fmt.Sprintf("sentinel: transition %q not in the available list", name))
		}

		c, configured := cfg[name]
		if !configured || c.Disable {
			r.logger.Warn("transition disabled", "transition", name)
			continue
		}
		r.ordered = append(r.ordered, t)
	}

	for name := range cfg {
		if !available[name] || !implemented[name] {
			r.logger.Warn("transition not available", "transition", name)
		}
	}

	return r
}

// Ordered returns the transitions in execution order.
func (r *Registry) Ordered() []Transition {
	return r.ordered
}

// Strict reports whether whole-token revision comparison is enabled.
func (r *Registry) Strict() bool {
	return r.strict
}

// Len returns the number of enabled transitions.
func (r *Registry) Len() int {
	return len(r.ordered)
}

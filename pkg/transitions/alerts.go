package transitions

import (
	"context"
	"strings"

	"github.com/fieldworks/sentinel/pkg/core"
	"github.com/fieldworks/sentinel/pkg/message"
)

// AlertConfig configures one conditional alert.
type AlertConfig struct {
	Form      string `yaml:"form"`
	Condition string `yaml:"condition"`
	Message   string `yaml:"message"`
	Recipient string `yaml:"recipient,omitempty"`
}

// Alerts evaluates configured conditions against incoming data records and
// raises alert messages when a condition holds. Condition evaluation is
// delegated to the injected sandbox.
type Alerts struct {
	Alerts    []AlertConfig
	Evaluator Evaluator
}

func (t *Alerts) Name() string { return "conditional_alerts" }

func (t *Alerts) hasConfig(form string) bool {
	for _, alert := range t.Alerts {
		if alert.Form != "" && strings.EqualFold(strings.TrimSpace(alert.Form), strings.TrimSpace(form)) {
			return true
		}
	}
	return false
}

func (t *Alerts) Filter(doc *core.Document) bool {
	return doc.Type == core.TypeDataRecord &&
		doc.Form != "" &&
		!doc.HasRun(t.Name()) &&
		t.hasConfig(doc.Form)
}

// Apply evaluates every alert configured for the form. An evaluator error
// aborts the pass but reports any alerts already raised so they are not
// lost.
func (t *Alerts) Apply(ctx context.Context, change core.Change, doc *core.Document) (bool, error) {
	updated := false
	for _, alert := range t.Alerts {
		if !strings.EqualFold(strings.TrimSpace(alert.Form), strings.TrimSpace(doc.Form)) {
			continue
		}
		result, err := t.Evaluator.Evaluate(ctx, alert.Condition, map[string]any{"doc": doc})
		if err != nil {
			return updated, err
		}
		if result {
			message.AddTask(doc, alert.Recipient, alert.Message)
			updated = true
		}
	}
	return updated, nil
}

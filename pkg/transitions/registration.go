package transitions

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldworks/sentinel/pkg/core"
	"github.com/fieldworks/sentinel/pkg/message"
	"github.com/fieldworks/sentinel/pkg/schedule"
)

// ResponseMessage is one configured registration confirmation message.
type ResponseMessage struct {
	Message   string `yaml:"message"`
	Recipient string `yaml:"recipient"`
	Locale    string `yaml:"locale,omitempty"`
}

// RegistrationConfig configures the registration rule for one form.
type RegistrationConfig struct {
	Form        string            `yaml:"form"`
	Type        string            `yaml:"type,omitempty"`
	Validations []ValidationRule  `yaml:"validations,omitempty"`
	Messages    []ResponseMessage `yaml:"messages,omitempty"`
	Schedule    string            `yaml:"schedule,omitempty"`
}

// Registration accepts patient registration forms: it validates the
// submission, mints a patient id, sends the configured confirmations and
// assigns the configured reminder schedule.
type Registration struct {
	Configs   []RegistrationConfig
	Schedules []schedule.Definition
	Validator Validator

	// Now is the clock used for schedule assignment; nil means time.Now.
	Now func() time.Time
}

func (t *Registration) Name() string { return "registration" }

func (t *Registration) config(form string) *RegistrationConfig {
	for i := range t.Configs {
		if strings.EqualFold(strings.TrimSpace(t.Configs[i].Form), strings.TrimSpace(form)) {
			return &t.Configs[i]
		}
	}
	return nil
}

func (t *Registration) definition(name string) (schedule.Definition, bool) {
	for _, def := range t.Schedules {
		if def.Name == name {
			return def, true
		}
	}
	return schedule.Definition{}, false
}

// Filter passes until the document has a patient id: form configured,
// patient name present, reporting phone known, no accumulated errors.
func (t *Registration) Filter(doc *core.Document) bool {
	return doc.Form != "" &&
		t.config(doc.Form) != nil &&
		doc.PatientName != "" &&
		patientID(doc) == "" &&
		doc.ContactPhone() != "" &&
		len(doc.Errors) == 0
}

func (t *Registration) Apply(ctx context.Context, change core.Change, doc *core.Document) (bool, error) {
	cfg := t.config(doc.Form)
	if cfg == nil {
		return false, nil
	}

	validator := t.Validator
	if validator == nil {
		validator = NoopValidator
	}
	if failures := validator.Validate(ctx, doc, cfg.Validations); len(failures) > 0 {
		for _, failure := range failures {
			doc.Errors = append(doc.Errors, failure)
		}
		message.AddTask(doc, "reporting_unit", failures[0].Message)
		return true, nil
	}

	doc.PatientID = newPatientID()

	locale := doc.Locale
	if locale == "" {
		locale = "en"
	}
	for _, msg := range cfg.Messages {
		if msg.Locale != "" && msg.Locale != locale {
			continue
		}
		message.AddTask(doc, msg.Recipient, msg.Message)
	}

	if cfg.Schedule != "" {
		if def, ok := t.definition(cfg.Schedule); ok {
			schedule.Assign(doc, def, t.now())
		}
	}

	return true, nil
}

func (t *Registration) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// newPatientID mints a short unique identifier for the registered patient.
func newPatientID() string {
	return strings.ToUpper(uuid.New().String()[:8])
}

package transitions

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fieldworks/sentinel/pkg/core"
	"github.com/fieldworks/sentinel/pkg/message"
	"github.com/fieldworks/sentinel/pkg/silence"
)

// ReportConfig configures report acceptance for one form.
type ReportConfig struct {
	Form                 string           `yaml:"form"`
	ReportAccepted       string           `yaml:"report_accepted,omitempty"`
	RegistrationNotFound string           `yaml:"registration_not_found,omitempty"`
	SilenceType          string           `yaml:"silence_type,omitempty"`
	SilenceFor           string           `yaml:"silence_for,omitempty"`
	Validations          []ValidationRule `yaml:"validations,omitempty"`
}

// AcceptReports matches incoming reports against existing registrations,
// confirms receipt, and silences the reminders the report answers.
type AcceptReports struct {
	Reports   []ReportConfig
	Finder    core.RegistrationFinder
	Audit     core.AuditWriter
	Validator Validator
	Logger    *slog.Logger

	// Emit, when set, receives a TasksCleared event per silenced
	// registration.
	Emit func(core.Event)
}

func (t *AcceptReports) Name() string { return "accept_patient_reports" }

func (t *AcceptReports) report(form string) *ReportConfig {
	for i := range t.Reports {
		if strings.EqualFold(t.Reports[i].Form, form) {
			return &t.Reports[i]
		}
	}
	return nil
}

// Filter requires a configured form, a reported date, a known reporting
// phone, and that this rule has never stamped bookkeeping here before.
func (t *AcceptReports) Filter(doc *core.Document) bool {
	return doc.Form != "" &&
		doc.ReportedDate != nil &&
		!doc.HasRun(t.Name()) &&
		t.report(doc.Form) != nil &&
		doc.ContactPhone() != ""
}

func (t *AcceptReports) Apply(ctx context.Context, change core.Change, doc *core.Document) (bool, error) {
	report := t.report(doc.Form)
	if report == nil {
		return false, nil
	}

	validator := t.Validator
	if validator == nil {
		validator = NoopValidator
	}
	if failures := validator.Validate(ctx, doc, report.Validations); len(failures) > 0 {
		for _, failure := range failures {
			doc.Errors = append(doc.Errors, failure)
		}
		message.AddTask(doc, "reporting_unit", failures[0].Message)
		return true, nil
	}

	registrations, err := t.Finder.Registrations(ctx, patientID(doc))
	if err != nil {
		return false, err
	}

	if len(registrations) == 0 {
		notFound := report.RegistrationNotFound
		if notFound == "" {
			notFound = "sys.registration_not_found"
		}
		rendered := message.Render(notFound, doc)
		message.AddTask(doc, "reporting_unit", rendered)
		doc.AddError("registration_not_found", rendered)
		return true, nil
	}

	if report.ReportAccepted != "" {
		message.AddTask(doc, "reporting_unit", report.ReportAccepted)
	}

	if report.SilenceType != "" {
		if err := t.silenceRegistrations(ctx, doc, report, registrations); err != nil {
			return true, err
		}
	}

	return true, nil
}

// silenceRegistrations clears the answered reminders on every matched
// registration, persisting each one that actually changed.
func (t *AcceptReports) silenceRegistrations(ctx context.Context, doc *core.Document, report *ReportConfig, registrations []*core.Document) error {
	for _, registration := range registrations {
		toClear := silence.FindToClear(silence.Options{
			Doc:        registration,
			Types:      report.SilenceType,
			Reported:   *doc.ReportedDate,
			SilenceFor: report.SilenceFor,
		})
		cleared := silence.Clear(toClear)
		if cleared == 0 {
			continue
		}
		registration.RefreshNextDue()
		if t.Logger != nil {
			t.Logger.Debug("cleared scheduled reminders",
				"registration", registration.ID, "count", cleared)
		}
		if err := t.Audit.SaveDoc(ctx, registration); err != nil {
			return err
		}
		if t.Emit != nil {
			t.Emit(&core.TasksCleared{
				DocID:     registration.ID,
				Count:     cleared,
				Timestamp: time.Now(),
			})
		}
	}
	return nil
}

package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "sentinel.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.ProcessingDelay)
	assert.Equal(t, 500, cfg.ProgressInterval)
	assert.False(t, cfg.StrictRevisions)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SENTINEL_DATABASE_PATH", "/tmp/s.db")
	t.Setenv("SENTINEL_POLL_INTERVAL", "250ms")
	t.Setenv("SENTINEL_STRICT_REVISIONS", "true")
	t.Setenv("SENTINEL_LOG_LEVEL", "debug")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "/tmp/s.db", cfg.DatabasePath)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.StrictRevisions)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestSlogLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: "noisy"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "WARN"}.SlogLevel())
}

const sampleRules = `
transitions:
  registration: {}
  accept_patient_reports: {}
  conditional_alerts:
    disable: true
schedules:
  - name: anc_reminders
    start_from: reported_date
    type: anc_visit
    messages:
      - group: 1
        offset: 1 week
        send_time: "09:00 +00:00"
        message: "Visit due for {{patient_name}}"
registrations:
  - form: PATR
    type: patient
    schedule: anc_reminders
    messages:
      - message: "thanks {{contact_name}}"
        recipient: reporting_unit
patient_reports:
  - form: V
    report_accepted: "Visit recorded for {{patient_id}}"
    silence_type: anc_visit
    silence_for: 19 days
alerts:
  - form: STCK
    condition: "doc.fields.qty < 10"
    message: "Low stock reported"
`

func TestParseRules(t *testing.T) {
	rules, err := ParseRules([]byte(sampleRules))

	require.NoError(t, err)
	assert.True(t, rules.Transitions["conditional_alerts"].Disable)
	assert.False(t, rules.Transitions["registration"].Disable)

	require.Len(t, rules.Schedules, 1)
	assert.Equal(t, "anc_reminders", rules.Schedules[0].Name)
	require.Len(t, rules.Schedules[0].Messages, 1)
	assert.Equal(t, "1 week", rules.Schedules[0].Messages[0].Offset)
	assert.Equal(t, "09:00 +00:00", rules.Schedules[0].Messages[0].SendTime)

	require.Len(t, rules.Registrations, 1)
	assert.Equal(t, "anc_reminders", rules.Registrations[0].Schedule)
	require.Len(t, rules.PatientReports, 1)
	assert.Equal(t, "19 days", rules.PatientReports[0].SilenceFor)
	require.Len(t, rules.Alerts, 1)

	assert.Equal(t, []string{"PATR"}, rules.RegistrationForms())
}

func TestParseRulesSkipsUnknownTransition(t *testing.T) {
	rules, err := ParseRules([]byte("transitions:\n  mystery_rule: {}\n  registration: {}\n"))

	// An unimplemented name is dropped with a warning, never fatal.
	require.NoError(t, err)
	_, ok := rules.Transitions["mystery_rule"]
	assert.False(t, ok)
	_, ok = rules.Transitions["registration"]
	assert.True(t, ok)
}

func TestParseRulesRejectsInvalidName(t *testing.T) {
	_, err := ParseRules([]byte("transitions:\n  \"Bad Name\": {}\n"))

	assert.Error(t, err)
}

func TestParseRulesRejectsUnknownScheduleReference(t *testing.T) {
	_, err := ParseRules([]byte(`
registrations:
  - form: PATR
    schedule: missing
`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schedule")
}

func TestParseRulesRejectsDuplicateSchedule(t *testing.T) {
	_, err := ParseRules([]byte(`
schedules:
  - name: a
  - name: a
`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate schedule")
}

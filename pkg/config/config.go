// Package config loads the processor's environment settings and the YAML
// rules file that configures transitions, schedules and alerts.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/fieldworks/sentinel/pkg/schedule"
	"github.com/fieldworks/sentinel/pkg/transition"
	"github.com/fieldworks/sentinel/pkg/transitions"
)

// Config holds the environment-driven settings, prefixed SENTINEL_.
type Config struct {
	DatabasePath     string        `envconfig:"DATABASE_PATH" default:"sentinel.db"`
	RulesPath        string        `envconfig:"RULES_PATH" default:"rules.yml"`
	PollInterval     time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	ProcessingDelay  time.Duration `envconfig:"PROCESSING_DELAY" default:"50ms"`
	ProgressInterval int           `envconfig:"PROGRESS_INTERVAL" default:"500"`
	BatchLimit       int           `envconfig:"BATCH_LIMIT" default:"100"`
	DispatchInterval time.Duration `envconfig:"DISPATCH_INTERVAL" default:"1m"`
	// DispatchAt, when set, replaces the interval with one daily scan at a
	// reminder send time ("HH:MM +02:00").
	DispatchAt      string `envconfig:"DISPATCH_AT" default:""`
	StrictRevisions bool   `envconfig:"STRICT_REVISIONS" default:"false"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("sentinel", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured log level onto slog.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Rules is the YAML rules document: which transitions run and how the
// business rules behave.
type Rules struct {
	Transitions    map[string]transition.Config     `yaml:"transitions"`
	Schedules      []schedule.Definition            `yaml:"schedules"`
	Registrations  []transitions.RegistrationConfig `yaml:"registrations"`
	PatientReports []transitions.ReportConfig       `yaml:"patient_reports"`
	Alerts         []transitions.AlertConfig        `yaml:"alerts"`
}

// LoadRules reads and validates the YAML rules file. Well-formed transition
// names outside the closed available list are dropped with a warning;
// malformed names are rejected.
func LoadRules(path string) (*Rules, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read rules: %w", err)
	}
	return ParseRules(body)
}

// ParseRules parses and validates a YAML rules document.
func ParseRules(body []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(body, &rules); err != nil {
		return nil, fmt.Errorf("config: parse rules: %w", err)
	}
	if err := rules.validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

func (r *Rules) validate() error {
	available := make(map[string]bool, len(transition.Available))
	for _, name := range transition.Available {
		available[name] = true
	}
	for name := range r.Transitions {
		if err := transition.ValidateName(name); err != nil {
			return fmt.Errorf("config: transition %q: %w", name, err)
		}
		if !available[name] {
			// Same policy as the registry: a name this build does not
			// implement is ignored, never fatal.
			slog.Warn("ignoring unknown configured transition", "transition", name)
			delete(r.Transitions, name)
		}
	}

	seen := make(map[string]bool, len(r.Schedules))
	for _, def := range r.Schedules {
		if def.Name == "" {
			return fmt.Errorf("config: schedule with empty name")
		}
		if seen[def.Name] {
			return fmt.Errorf("config: duplicate schedule %q", def.Name)
		}
		seen[def.Name] = true
	}

	for _, reg := range r.Registrations {
		if reg.Form == "" {
			return fmt.Errorf("config: registration with empty form")
		}
		if reg.Schedule != "" && !seen[reg.Schedule] {
			return fmt.Errorf("config: registration %q references unknown schedule %q", reg.Form, reg.Schedule)
		}
	}
	return nil
}

// RegistrationForms lists the form codes configured for registration,
// used to scope the store's registration lookup.
func (r *Rules) RegistrationForms() []string {
	forms := make([]string, 0, len(r.Registrations))
	for _, reg := range r.Registrations {
		forms = append(forms, reg.Form)
	}
	return forms
}

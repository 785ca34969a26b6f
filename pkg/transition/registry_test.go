package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRegistrySkipsUnconfigured(t *testing.T) {
	a := &fakeTransition{name: "registration"}
	b := &fakeTransition{name: "conditional_alerts"}

	r := NewRegistry(enabledConfig("registration"), []Transition{a, b})

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, "registration", r.Ordered()[0].Name())
}

func TestNewRegistrySkipsDisabled(t *testing.T) {
	a := &fakeTransition{name: "registration"}
	cfg := map[string]Config{"registration": {Disable: true}}

	r := NewRegistry(cfg, []Transition{a})

	assert.Zero(t, r.Len())
}

func TestNewRegistryIgnoresUnknownConfiguredNames(t *testing.T) {
	a := &fakeTransition{name: "registration"}
	cfg := enabledConfig("registration", "twilio_message")

	// Unknown names are warned about and ignored, never loaded.
	r := NewRegistry(cfg, []Transition{a})

	assert.Equal(t, 1, r.Len())
}

func TestNewRegistryPanicsOnUnlistedImplementation(t *testing.T) {
	rogue := &fakeTransition{name: "rogue_rule"}

	assert.Panics(t, func() {
		NewRegistry(enabledConfig("rogue_rule"), []Transition{rogue})
	})
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("accept_patient_reports"))
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName("Registration"))
	assert.Error(t, ValidateName("../etc/passwd"))
	assert.Error(t, ValidateName("9lives"))
}

func TestStrictRevisionsOption(t *testing.T) {
	r := NewRegistry(nil, nil, StrictRevisions())
	assert.True(t, r.Strict())
	assert.False(t, NewRegistry(nil, nil).Strict())
}

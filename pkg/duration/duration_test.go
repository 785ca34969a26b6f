package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBadSyntax(t *testing.T) {
	for _, s := range []string{
		"x",
		"2 muppets",
		"one week",
		"",
		"2  weeks",
		"2",
		"weeks",
		"2 weeks later",
	} {
		o, ok := Parse(s)
		assert.False(t, ok, "expected %q to be invalid", s)
		assert.False(t, o.Valid())
	}
}

func TestParseGoodSyntax(t *testing.T) {
	o, ok := Parse("2 weeks")
	require.True(t, ok)
	assert.Equal(t, 14, o.Days())

	o, ok = Parse("81 days")
	require.True(t, ok)
	assert.Equal(t, 81, o.Days())

	o, ok = Parse("1 day")
	require.True(t, ok)
	assert.Equal(t, 1, o.Days())
}

func TestParseCaseInsensitiveUnit(t *testing.T) {
	o, ok := Parse("3 Weeks")
	require.True(t, ok)
	assert.Equal(t, 21, o.Days())

	// Any casing works, including forms where the plural "s" would only
	// survive after lowercasing the whole input.
	o, ok = Parse("3 WEEKS")
	require.True(t, ok)
	assert.Equal(t, 21, o.Days())

	o, ok = Parse("2 weekS")
	require.True(t, ok)
	assert.Equal(t, 14, o.Days())

	o, ok = Parse("19 DAYS")
	require.True(t, ok)
	assert.Equal(t, 19, o.Days())
}

func TestParseLooseNumberAgreement(t *testing.T) {
	o, ok := Parse("1 weeks")
	require.True(t, ok)
	assert.Equal(t, 7, o.Days())

	o, ok = Parse("2 week")
	require.True(t, ok)
	assert.Equal(t, 14, o.Days())
}

func TestFromCalendarArithmetic(t *testing.T) {
	anchor := time.Date(2050, 1, 31, 10, 0, 0, 0, time.UTC)

	o, ok := Parse("1 month")
	require.True(t, ok)
	// AddDate normalization, not a fixed 30 days.
	assert.Equal(t, anchor.AddDate(0, 1, 0), o.From(anchor))

	o, ok = Parse("81 days")
	require.True(t, ok)
	assert.Equal(t, anchor.AddDate(0, 0, 81), o.From(anchor))

	o, ok = Parse("2 hours")
	require.True(t, ok)
	assert.Equal(t, anchor.Add(2*time.Hour), o.From(anchor))
}

func TestZeroOffsetIsNoOp(t *testing.T) {
	anchor := time.Now()
	assert.Equal(t, anchor, Offset{}.From(anchor))
}

// Package duration parses human-readable offset strings like "2 weeks" or
// "81 days" into calendar-aware offsets.
package duration

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Unit is a recognized offset unit.
type Unit string

const (
	Seconds Unit = "seconds"
	Minutes Unit = "minutes"
	Hours   Unit = "hours"
	Days    Unit = "days"
	Weeks   Unit = "weeks"
	Months  Unit = "months"
	Years   Unit = "years"
)

// Offset is an exact time span expressed in calendar units. The zero Offset
// is the invalid sentinel: applying it is a no-op and Valid() is false.
type Offset struct {
	Quantity int
	Unit     Unit
}

// Grammar: "<integer> <unit>", exactly one space, unit case-insensitive with
// an optional plural "s". Number agreement is not enforced: "1 weeks" and
// "2 week" both parse, for config compatibility. No locale handling.
// Matched against the lowercased input.
var offsetRe = regexp.MustCompile(`^(\d+) ([a-z]+?)s?$`)

var units = map[string]Unit{
	"second": Seconds,
	"minute": Minutes,
	"hour":   Hours,
	"day":    Days,
	"week":   Weeks,
	"month":  Months,
	"year":   Years,
}

// Parse parses an offset string. Malformed input (misspelled unit,
// non-numeric quantity, missing unit) yields the zero Offset and false
// rather than an error.
func Parse(s string) (Offset, bool) {
	m := offsetRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return Offset{}, false
	}
	unit, ok := units[m[2]]
	if !ok {
		return Offset{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Offset{}, false
	}
	return Offset{Quantity: n, Unit: unit}, true
}

// Valid reports whether the offset came from a successful Parse.
func (o Offset) Valid() bool {
	return o.Unit != ""
}

// From applies the offset to an anchor. Day and larger units use calendar
// arithmetic so month boundaries behave like a human would expect.
func (o Offset) From(t time.Time) time.Time {
	switch o.Unit {
	case Seconds:
		return t.Add(time.Duration(o.Quantity) * time.Second)
	case Minutes:
		return t.Add(time.Duration(o.Quantity) * time.Minute)
	case Hours:
		return t.Add(time.Duration(o.Quantity) * time.Hour)
	case Days:
		return t.AddDate(0, 0, o.Quantity)
	case Weeks:
		return t.AddDate(0, 0, o.Quantity*7)
	case Months:
		return t.AddDate(0, o.Quantity, 0)
	case Years:
		return t.AddDate(o.Quantity, 0, 0)
	}
	return t
}

// Days reports the span in whole days for day and week offsets, 0 otherwise.
func (o Offset) Days() int {
	switch o.Unit {
	case Days:
		return o.Quantity
	case Weeks:
		return o.Quantity * 7
	}
	return 0
}

// Package schedule materializes deferred messages onto a document from a
// declarative schedule definition.
package schedule

import (
	"regexp"
	"strconv"
	"time"

	"github.com/jinzhu/now"

	"github.com/fieldworks/sentinel/pkg/core"
	"github.com/fieldworks/sentinel/pkg/duration"
	"github.com/fieldworks/sentinel/pkg/message"
)

// MessageDef is one deferred message slot in a definition.
type MessageDef struct {
	Group     int    `yaml:"group"`
	Offset    string `yaml:"offset"`
	SendTime  string `yaml:"send_time,omitempty"`
	Message   string `yaml:"message"`
	Recipient string `yaml:"recipient,omitempty"`
}

// Definition is the external, read-only configuration for one schedule.
type Definition struct {
	Name                 string       `yaml:"name"`
	StartFrom            string       `yaml:"start_from"`
	Type                 string       `yaml:"type,omitempty"`
	RegistrationResponse string       `yaml:"registration_response,omitempty"`
	Messages             []MessageDef `yaml:"messages"`
}

// "HH:MM ±HH:MM": wall-clock time of day with an explicit UTC offset.
var sendTimeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2}) ([+-])(\d{2}):(\d{2})$`)

// alreadyRun reports whether a schedule by this name ever landed on the
// document, in either the deferred or the sent collection.
func alreadyRun(doc *core.Document, name string) bool {
	for _, st := range doc.ScheduledTasks {
		if st.Name == name {
			return true
		}
	}
	for _, task := range doc.Tasks {
		if task.Name == name {
			return true
		}
	}
	return false
}

// ResolveSendTime re-anchors the time-of-day component of due to the given
// wall-clock time in its explicit UTC offset ("HH:MM ±HH:MM"). The calendar
// day is due's day as seen in that offset. The dispatcher reuses this to
// align its scan cadence with message send times.
func ResolveSendTime(due time.Time, sendTime string) (time.Time, bool) {
	m := sendTimeRe.FindStringSubmatch(sendTime)
	if m == nil {
		return due, false
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	offH, _ := strconv.Atoi(m[4])
	offM, _ := strconv.Atoi(m[5])
	offset := offH*3600 + offM*60
	if m[3] == "-" {
		offset = -offset
	}
	loc := time.FixedZone(sendTime[len(sendTime)-6:], offset)

	day := now.New(due.In(loc)).BeginningOfDay()
	return day.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute), true
}

// Assign materializes the definition's deferred messages onto the document
// relative to its anchor timestamp, skipping empty-bodied slots and slots
// already in the past. A configured registration response is emitted as an
// immediate task regardless of whether deferred tasks were created.
//
// Returns false when a schedule by this name already ran or nothing useful
// came out of the definition. Duplicate prevention is checked before any
// other work.
func Assign(doc *core.Document, def Definition, at time.Time) bool {
	if alreadyRun(doc, def.Name) {
		return false
	}

	added := false
	start := doc.StartValue(def.StartFrom)
	if start != nil {
		for _, md := range def.Messages {
			offset, ok := duration.Parse(md.Offset)
			if !ok {
				continue
			}
			body := message.Render(md.Message, doc)
			if body == "" {
				// Intentionally suppressed slot; never reaches the
				// past-due check.
				continue
			}
			// A usable slot existed even if the due date has passed.
			added = true

			due := offset.From(*start)
			if md.SendTime != "" {
				if resolved, ok := ResolveSendTime(due, md.SendTime); ok {
					due = resolved
				}
			}
			if due.Before(at) {
				continue
			}
			doc.ScheduledTasks = append(doc.ScheduledTasks, &core.ScheduledTask{
				Name:  def.Name,
				Group: md.Group,
				Type:  def.Type,
				State: core.TaskScheduled,
				Due:   due,
				Messages: []core.Message{
					message.NewMessage(message.RecipientPhone(doc, md.Recipient), body),
				},
			})
		}
	}

	if def.RegistrationResponse != "" {
		body := message.Render(def.RegistrationResponse, doc)
		if body != "" {
			// Named after the definition so the duplicate guard catches
			// re-delivery even when no deferred task was created.
			doc.AddTask(&core.Task{
				Name: def.Name,
				Messages: []core.Message{
					message.NewMessage(message.RecipientPhone(doc, "reporting_unit"), body),
				},
			})
			added = true
		}
	}

	return added
}

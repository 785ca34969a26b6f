// Package silence cancels previously scheduled tasks in response to a new
// event, either within a time window (clearing the whole matched group) or
// from a cutoff onward.
package silence

import (
	"strings"
	"time"

	"github.com/fieldworks/sentinel/pkg/core"
	"github.com/fieldworks/sentinel/pkg/duration"
)

// Options selects which of a document's scheduled tasks to cancel.
type Options struct {
	// Doc is the document owning the tasks, typically a registration.
	Doc *core.Document

	// Types is a comma-separated list of task types to match.
	Types string

	// Reported is the timestamp of the event answering the reminders.
	Reported time.Time

	// SilenceFor widens Reported into a window ("19 days"). When absent or
	// unparseable every future-due task is selected instead.
	SilenceFor string
}

func (o Options) typeSet() map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Split(o.Types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = true
		}
	}
	return set
}

// FindToClear selects the tasks to cancel.
//
// With a window, the scan is a single forward pass: the first scheduled task
// whose due falls inside [Reported, Reported+SilenceFor] fixes the target
// group, and from that point on every type-matching task in that group is
// selected regardless of its own due; the group is the unit of cancellation.
// Without a window, every type-matching scheduled task due at or after
// Reported is selected.
func FindToClear(opts Options) []*core.ScheduledTask {
	types := opts.typeSet()

	var until *time.Time
	if opts.SilenceFor != "" {
		if offset, ok := duration.Parse(opts.SilenceFor); ok {
			u := offset.From(opts.Reported)
			until = &u
		}
	}

	var (
		selected []*core.ScheduledTask
		first    *core.ScheduledTask
	)
	for _, task := range opts.Doc.ScheduledTasks {
		if !types[task.Type] {
			continue
		}
		if until != nil {
			inWindow := task.State == core.TaskScheduled &&
				!task.Due.Before(opts.Reported) &&
				!task.Due.After(*until)
			if inWindow && first == nil {
				first = task
			}
			if first != nil && first.Group == task.Group {
				selected = append(selected, task)
			}
		} else {
			if task.State == core.TaskScheduled && !task.Due.Before(opts.Reported) {
				selected = append(selected, task)
			}
		}
	}
	return selected
}

// Clear transitions the selected tasks from scheduled to cleared and reports
// how many actually changed. Cleared and sent tasks are never touched. A
// zero return means the caller must not persist.
func Clear(tasks []*core.ScheduledTask) int {
	cleared := 0
	for _, task := range tasks {
		if task.State == core.TaskScheduled {
			task.State = core.TaskCleared
			cleared++
		}
	}
	return cleared
}

package dispatch

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fieldworks/sentinel/pkg/schedule"
)

// Recurrence computes when the dispatcher should next scan for due tasks.
type Recurrence interface {
	// Next returns the next scan time strictly after from.
	Next(from time.Time) time.Time
}

// RecurrenceFunc adapts a function to the Recurrence interface.
type RecurrenceFunc func(from time.Time) time.Time

func (f RecurrenceFunc) Next(from time.Time) time.Time { return f(from) }

// Every scans at fixed intervals. This is the default cadence.
func Every(d time.Duration) Recurrence {
	return RecurrenceFunc(func(from time.Time) time.Time {
		return from.Add(d)
	})
}

// At scans once per day at a wall-clock send time, using the same
// "HH:MM ±HH:MM" grammar reminder schedules use for their send_time slots.
// Deployments that anchor all reminders to one send time can line the scan
// up with it instead of polling.
func At(sendTime string) (Recurrence, error) {
	if _, ok := schedule.ResolveSendTime(time.Now(), sendTime); !ok {
		return nil, fmt.Errorf("dispatch: invalid send time %q", sendTime)
	}
	return RecurrenceFunc(func(from time.Time) time.Time {
		next, _ := schedule.ResolveSendTime(from, sendTime)
		for !next.After(from) {
			next, _ = schedule.ResolveSendTime(next.AddDate(0, 0, 1), sendTime)
		}
		return next
	}), nil
}

// Cron scans on a standard five-field cron expression, for cadences the
// other constructors cannot express (weekday-only scans, multiple fixed
// times per day).
func Cron(expr string) (Recurrence, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("dispatch: invalid cron expression %q: %w", expr, err)
	}
	return RecurrenceFunc(sched.Next), nil
}

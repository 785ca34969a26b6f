package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldworks/sentinel/pkg/core"
)

// Dispatcher periodically scans for documents holding scheduled tasks that
// have come due, marks them sent and hands their messages to the gateway.
type Dispatcher struct {
	finder  core.DueTaskFinder
	gateway core.Gateway
	audit   core.AuditWriter

	recurrence Recurrence
	batchLimit int
	logger     *slog.Logger
	emit       func(core.Event)
	now        func() time.Time
}

// DispatcherOption configures a dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRecurrence sets the scan recurrence. Default is Every(time.Minute).
func WithRecurrence(r Recurrence) DispatcherOption {
	return func(d *Dispatcher) { d.recurrence = r }
}

// WithBatchLimit caps how many documents one scan pass fetches.
func WithBatchLimit(n int) DispatcherOption {
	return func(d *Dispatcher) { d.batchLimit = n }
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithEmitter registers a sink for dispatcher events.
func WithEmitter(emit func(core.Event)) DispatcherOption {
	return func(d *Dispatcher) { d.emit = emit }
}

// WithClock overrides the dispatcher clock.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a due-task dispatcher.
func NewDispatcher(finder core.DueTaskFinder, gateway core.Gateway, audit core.AuditWriter, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		finder:     finder,
		gateway:    gateway,
		audit:      audit,
		recurrence: Every(time.Minute),
		batchLimit: 100,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start runs scan passes on the recurrence. Blocks until the context is
// cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	for {
		next := d.recurrence.Next(d.now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if sent, err := d.runOnce(ctx, d.now()); err != nil {
			d.logger.Error("due-task scan failed", "error", err)
		} else if sent > 0 {
			d.logger.Info("dispatched due tasks", "messages", sent)
		}
	}
}

// runOnce drains every document with a task due by the given time and
// returns how many messages were handed to the gateway. A document whose
// send fails keeps its tasks scheduled and is retried on the next scan.
func (d *Dispatcher) runOnce(ctx context.Context, by time.Time) (int, error) {
	sent := 0
	attempted := map[string]bool{}

	for {
		docs, err := d.finder.DueTaskDocs(ctx, by, d.batchLimit)
		if err != nil {
			return sent, err
		}

		progressed := false
		for _, doc := range docs {
			if attempted[doc.ID] {
				continue
			}
			attempted[doc.ID] = true
			progressed = true

			n, err := d.dispatchDoc(ctx, doc, by)
			if err != nil {
				d.logger.Error("failed to dispatch due tasks",
					"doc", doc.ID, "error", err)
				continue
			}
			sent += n
		}

		if !progressed || len(docs) < d.batchLimit {
			return sent, nil
		}
	}
}

// dispatchDoc marks the due tasks sent, hands their messages over and
// persists the document. The state flip is persisted only after the gateway
// accepted the messages.
func (d *Dispatcher) dispatchDoc(ctx context.Context, doc *core.Document, by time.Time) (int, error) {
	var due []*core.ScheduledTask
	var messages []core.Message
	for _, task := range doc.ScheduledTasks {
		if task.State != core.TaskScheduled || task.Due.After(by) {
			continue
		}
		due = append(due, task)
		messages = append(messages, task.Messages...)
	}
	if len(due) == 0 {
		doc.RefreshNextDue()
		return 0, nil
	}

	if err := d.gateway.Send(ctx, messages); err != nil {
		return 0, err
	}

	for _, task := range due {
		task.State = core.TaskSent
	}
	doc.RefreshNextDue()

	if err := d.audit.SaveDoc(ctx, doc); err != nil {
		return 0, err
	}

	if d.emit != nil {
		d.emit(&core.TasksSent{DocID: doc.ID, Count: len(messages), Timestamp: time.Now()})
	}
	return len(messages), nil
}

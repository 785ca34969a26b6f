package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fieldworks/sentinel/pkg/core"
	"github.com/fieldworks/sentinel/pkg/transition"
)

// Worker consumes the store's change feed and runs every change through the
// transition pipeline, strictly sequentially. The last processed sequence is
// checkpointed after each change so a restart resumes where it left off.
type Worker struct {
	docs        core.DocumentStore
	feed        core.ChangeFeed
	checkpoints core.CheckpointStore
	audit       core.AuditWriter
	pipeline    *transition.Pipeline

	config    Config
	logger    *slog.Logger
	emit      func(core.Event)
	processed int64
}

// NewWorker creates a feed worker over the given stores and pipeline. A
// configured emitter also receives the pipeline's transition failure events.
func NewWorker(docs core.DocumentStore, feed core.ChangeFeed, checkpoints core.CheckpointStore, audit core.AuditWriter, pipeline *transition.Pipeline, opts ...Option) *Worker {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Emit != nil {
		pipeline.SetEmitter(config.Emit)
	}

	return &Worker{
		docs:        docs,
		feed:        feed,
		checkpoints: checkpoints,
		audit:       audit,
		pipeline:    pipeline,
		config:      config,
		logger:      slog.Default(),
		emit:        config.Emit,
	}
}

// SetLogger replaces the worker logger.
func (w *Worker) SetLogger(logger *slog.Logger) {
	w.logger = logger
}

// Start begins processing changes. Blocks until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	seq, err := w.checkpoints.Checkpoint(ctx)
	if err != nil {
		return err
	}
	w.logger.Info("feed worker starting", "worker_id", w.config.WorkerID, "checkpoint", seq)

	seq = w.drain(ctx, seq)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("feed worker stopping", "worker_id", w.config.WorkerID, "checkpoint", seq)
			return ctx.Err()
		case <-ticker.C:
			seq = w.drain(ctx, seq)
		}
	}
}

// drain processes every pending change past seq and returns the new
// position. Batches keep coming until the feed runs dry or ctx is cancelled.
func (w *Worker) drain(ctx context.Context, seq int64) int64 {
	for {
		changes, err := w.feed.ChangesSince(ctx, seq, w.config.BatchLimit)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				w.logger.Error("failed to read change feed", "since", seq, "error", err)
			}
			return seq
		}
		if len(changes) == 0 {
			return seq
		}

		for _, change := range changes {
			if ctx.Err() != nil {
				return seq
			}
			seq = w.processChange(ctx, change)
			if !sleepCtx(ctx, w.config.ProcessingDelay) {
				return seq
			}
		}
	}
}

// processChange runs one change through the pipeline and advances the
// checkpoint. The checkpoint moves forward no matter how the change fared;
// a dropped change is logged, never retried.
func (w *Worker) processChange(ctx context.Context, change core.Change) int64 {
	saved := false

	switch {
	case change.Deleted:
		w.logger.Debug("skipping deleted change", "doc", change.ID, "seq", change.Seq)
	default:
		doc, err := w.docs.Get(ctx, change.ID)
		if err != nil {
			w.logger.Error("failed to fetch changed doc, dropping change",
				"doc", change.ID, "seq", change.Seq, "error", err)
		} else if !doc.KnownType() {
			w.logger.Debug("skipping unknown doc type", "doc", change.ID, "type", doc.Type)
		} else {
			saved = w.runPipeline(ctx, change, doc)
		}
	}

	w.emitEvent(&core.ChangeProcessed{Change: change, Saved: saved, Timestamp: time.Now()})
	w.advanceCheckpoint(ctx, change.Seq)

	w.processed++
	if w.config.ProgressInterval > 0 && w.processed%int64(w.config.ProgressInterval) == 0 {
		w.logger.Info("feed progress", "processed", w.processed, "checkpoint", change.Seq)
	}

	return change.Seq
}

func (w *Worker) runPipeline(ctx context.Context, change core.Change, doc *core.Document) bool {
	if !w.pipeline.Apply(ctx, change, doc) {
		return false
	}

	doc.RefreshNextDue()
	if err := w.audit.SaveDoc(ctx, doc); err != nil {
		// The next unrelated write to this doc re-enqueues it, so no
		// synchronous retry here.
		w.logger.Error("failed to save transitioned doc",
			"doc", doc.ID, "seq", change.Seq, "error", err)
		return false
	}

	w.emitEvent(&core.DocumentSaved{DocID: doc.ID, Rev: doc.Rev, Timestamp: time.Now()})
	return true
}

func (w *Worker) advanceCheckpoint(ctx context.Context, seq int64) {
	if err := w.checkpoints.SetCheckpoint(ctx, seq); err != nil {
		w.logger.Warn("failed to advance checkpoint", "seq", seq, "error", err)
		return
	}
	w.emitEvent(&core.CheckpointSaved{Seq: seq, Timestamp: time.Now()})
}

func (w *Worker) emitEvent(event core.Event) {
	if w.emit != nil {
		w.emit(event)
	}
}

// sleepCtx waits for d or until ctx is cancelled, reporting whether the full
// wait completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

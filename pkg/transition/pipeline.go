package transition

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldworks/sentinel/pkg/core"
)

// Pipeline runs every eligible transition for one document change, in
// registry order, against the same shared document instance.
type Pipeline struct {
	registry *Registry
	logger   *slog.Logger
	emit     func(core.Event)
}

// NewPipeline creates a pipeline executor over the registry.
func NewPipeline(registry *Registry) *Pipeline {
	return &Pipeline{registry: registry, logger: slog.Default()}
}

// SetLogger replaces the pipeline logger.
func (p *Pipeline) SetLogger(logger *slog.Logger) {
	p.logger = logger
}

// SetEmitter registers a sink for transition failure events.
func (p *Pipeline) SetEmitter(emit func(core.Event)) {
	p.emit = emit
}

// Apply runs the eligible transitions sequentially and reports whether the
// document needs persisting (any transition changed it or errored). An
// erroring transition never blocks its siblings: the error is recorded on
// the document and the pipeline moves on.
func (p *Pipeline) Apply(ctx context.Context, change core.Change, doc *core.Document) bool {
	needsSave := false

	for _, t := range p.registry.Ordered() {
		if !CanRun(change, doc, t, p.registry.Strict()) {
			p.logger.Debug("not running transition",
				"transition", t.Name(), "doc", change.ID, "seq", change.Seq)
			continue
		}

		changed, err := t.Apply(ctx, change, doc)

		if err != nil || changed {
			// The write that will carry this effect bumps the counter by
			// one; the hash suffix is unknowable before the save.
			doc.SetTransition(t.Name(), core.TransitionRecord{
				LastRev: core.NewRevision(doc.Rev.Counter()+1, ""),
				Seq:     change.Seq,
				OK:      err == nil,
			})
			needsSave = true
		}

		if err != nil {
			msg := "Transition error on " + t.Name()
			if err.Error() != "" {
				msg += ": " + err.Error()
			}
			doc.AddError(t.Name()+"_error", msg)
			p.logger.Error("transition returned error",
				"transition", t.Name(), "doc", change.ID, "seq", change.Seq, "error", err)
			if p.emit != nil {
				p.emit(&core.TransitionFailed{
					Name:      t.Name(),
					DocID:     change.ID,
					Seq:       change.Seq,
					Error:     err,
					Timestamp: time.Now(),
				})
			}
		}
	}

	return needsSave
}

package feed

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldworks/sentinel/pkg/core"
)

// Config holds feed worker settings.
type Config struct {
	// PollInterval is how often the feed is polled once drained.
	PollInterval time.Duration

	// ProcessingDelay is the pause between consecutive changes.
	ProcessingDelay time.Duration

	// ProgressInterval is how many processed changes between progress log
	// lines. Zero disables progress logging.
	ProgressInterval int

	// BatchLimit caps how many changes one feed read returns.
	BatchLimit int

	// WorkerID identifies this worker in logs.
	WorkerID string

	// Emit, when set, receives processor events.
	Emit func(core.Event)
}

// DefaultConfig returns the worker defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:     5 * time.Second,
		ProcessingDelay:  50 * time.Millisecond,
		ProgressInterval: 500,
		BatchLimit:       100,
		WorkerID:         uuid.New().String(),
	}
}

// Option configures a feed worker.
type Option func(*Config)

// WithPollInterval sets how often the drained feed is re-polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) { c.PollInterval = d }
}

// WithProcessingDelay sets the pause between consecutive changes.
func WithProcessingDelay(d time.Duration) Option {
	return func(c *Config) { c.ProcessingDelay = d }
}

// WithProgressInterval sets how many changes between progress log lines.
func WithProgressInterval(n int) Option {
	return func(c *Config) { c.ProgressInterval = n }
}

// WithBatchLimit caps the number of changes fetched per feed read.
func WithBatchLimit(n int) Option {
	return func(c *Config) { c.BatchLimit = n }
}

// WithWorkerID overrides the generated worker id.
func WithWorkerID(id string) Option {
	return func(c *Config) { c.WorkerID = id }
}

// WithEmitter registers a sink for processor events.
func WithEmitter(emit func(core.Event)) Option {
	return func(c *Config) { c.Emit = emit }
}

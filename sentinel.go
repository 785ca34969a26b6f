// Package sentinel processes a document store's change feed through an
// ordered pipeline of business-rule transitions.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	// Open the store and migrate
//	db, _ := gorm.Open(sqlite.Open("sentinel.db"), &gorm.Config{})
//	store := sentinel.NewGormStore(db)
//	store.Migrate(context.Background())
//
//	// Build the transition registry from configuration
//	registry := sentinel.NewRegistry(rules.Transitions, impls)
//
//	// Start the feed worker
//	worker := sentinel.NewWorker(store, store, store, store, sentinel.NewPipeline(registry))
//	worker.Start(ctx)
package sentinel

import (
	"gorm.io/gorm"

	"github.com/fieldworks/sentinel/pkg/core"
	"github.com/fieldworks/sentinel/pkg/dispatch"
	"github.com/fieldworks/sentinel/pkg/feed"
	"github.com/fieldworks/sentinel/pkg/schedule"
	"github.com/fieldworks/sentinel/pkg/storage"
	"github.com/fieldworks/sentinel/pkg/transition"
)

// Type aliases for the public API surface
type (
	// Document is the mutable business record flowing through the pipeline.
	Document = core.Document

	// Change is a single event from the store's change feed.
	Change = core.Change

	// Revision is the opaque version token issued by the store on each write.
	Revision = core.Revision

	// Message is a single outbound message destined for the SMS gateway.
	Message = core.Message

	// Task is a group of messages dispatched together.
	Task = core.Task

	// ScheduledTask is a deferred, cancellable message placeholder.
	ScheduledTask = core.ScheduledTask

	// TaskState is the lifecycle state of a scheduled task.
	TaskState = core.TaskState

	// TransitionRecord is the per-transition bookkeeping stamped by the
	// pipeline executor.
	TransitionRecord = core.TransitionRecord

	// DocError is a structured error accumulated on a document.
	DocError = core.DocError

	// Contact identifies the reporting unit that submitted a document.
	Contact = core.Contact

	// Event is the interface for all processor events.
	Event = core.Event

	// ChangeProcessed is emitted after a change ran through the pipeline.
	ChangeProcessed = core.ChangeProcessed

	// DocumentSaved is emitted after the audit writer persisted a document.
	DocumentSaved = core.DocumentSaved

	// CheckpointSaved is emitted after the processed sequence was advanced.
	CheckpointSaved = core.CheckpointSaved

	// TasksSent is emitted when the dispatcher hands due tasks to the gateway.
	TasksSent = core.TasksSent

	// DocumentStore provides document fetch and persistence.
	DocumentStore = core.DocumentStore

	// ChangeFeed exposes the store's append-only write log.
	ChangeFeed = core.ChangeFeed

	// CheckpointStore persists the last processed feed position.
	CheckpointStore = core.CheckpointStore

	// AuditWriter records who changed what before persisting.
	AuditWriter = core.AuditWriter

	// Gateway is the outbound message hand-off.
	Gateway = core.Gateway

	// Transition is one business rule run by the pipeline.
	Transition = transition.Transition

	// TransitionConfig is the per-transition configuration entry.
	TransitionConfig = transition.Config

	// Registry is the fixed, ordered set of transitions the pipeline runs.
	Registry = transition.Registry

	// RegistryOption configures registry construction.
	RegistryOption = transition.RegistryOption

	// Pipeline runs every eligible transition for one document change.
	Pipeline = transition.Pipeline

	// Worker consumes the change feed and runs the pipeline.
	Worker = feed.Worker

	// WorkerOption configures a feed worker.
	WorkerOption = feed.Option

	// Dispatcher scans for due scheduled tasks and hands them to the gateway.
	Dispatcher = dispatch.Dispatcher

	// Recurrence computes when the dispatcher should next scan.
	Recurrence = dispatch.Recurrence

	// ScheduleDefinition is the declarative configuration for one reminder
	// schedule.
	ScheduleDefinition = schedule.Definition

	// GormStore is the GORM-backed document store.
	GormStore = storage.GormStore
)

// Task state constants
const (
	TaskScheduled = core.TaskScheduled
	TaskCleared   = core.TaskCleared
	TaskSent      = core.TaskSent
)

// Known document types
const (
	TypeDataRecord   = core.TypeDataRecord
	TypeClinic       = core.TypeClinic
	TypeHealthCenter = core.TypeHealthCenter
	TypeDistrict     = core.TypeDistrict
)

// Error variables
var (
	ErrNotFound              = core.ErrNotFound
	ErrInvalidTransitionName = core.ErrInvalidTransitionName
	ErrUnknownTransition     = core.ErrUnknownTransition
	ErrRevConflict           = core.ErrRevConflict
)

// NewRegistry builds a transition registry from the configured enablement
// map and the statically known implementations.
func NewRegistry(cfg map[string]TransitionConfig, impls []Transition, opts ...RegistryOption) *Registry {
	return transition.NewRegistry(cfg, impls, opts...)
}

// StrictRevisions makes the eligibility gate compare whole revision tokens.
func StrictRevisions() RegistryOption {
	return transition.StrictRevisions()
}

// NewPipeline creates a pipeline executor over the registry.
func NewPipeline(registry *Registry) *Pipeline {
	return transition.NewPipeline(registry)
}

// NewWorker creates a feed worker over the given stores and pipeline.
func NewWorker(docs DocumentStore, changes ChangeFeed, checkpoints CheckpointStore, audit AuditWriter, pipeline *Pipeline, opts ...WorkerOption) *Worker {
	return feed.NewWorker(docs, changes, checkpoints, audit, pipeline, opts...)
}

// NewDispatcher creates a due-task dispatcher.
func NewDispatcher(finder core.DueTaskFinder, gateway Gateway, audit AuditWriter, opts ...dispatch.DispatcherOption) *Dispatcher {
	return dispatch.NewDispatcher(finder, gateway, audit, opts...)
}

// NewGormStore creates a GORM-backed store.
func NewGormStore(db *gorm.DB, opts ...storage.StoreOption) *GormStore {
	return storage.NewGormStore(db, opts...)
}

// ValidateTransitionName checks a transition name against the naming rules.
func ValidateTransitionName(name string) error {
	return transition.ValidateName(name)
}

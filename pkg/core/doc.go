// Package core provides the domain models and interfaces for the sentinel
// processor.
//
// This package contains:
//   - Document, ScheduledTask, Task and the bookkeeping records they carry
//   - Change, the change-feed event consumed by the feed worker
//   - Revision, the opaque version token used for idempotency checks
//   - The storage, audit and gateway interfaces implemented in pkg/storage
//     or injected by the host process
//
// Most users should import the root package github.com/fieldworks/sentinel
// which re-exports the public types.
package core

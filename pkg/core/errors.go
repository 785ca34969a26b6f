package core

import "errors"

var (
	ErrNotFound              = errors.New("sentinel: document not found")
	ErrInvalidTransitionName = errors.New("sentinel: invalid transition name (must be lowercase alphanumeric with underscores, start with letter)")
	ErrUnknownTransition     = errors.New("sentinel: transition not available")
	ErrRevConflict           = errors.New("sentinel: revision conflict on save")
)

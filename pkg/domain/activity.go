package domain

import "time"

// ActivityEvent is one append-only log entry recording a status
// transition of an element. Consumers live outside the engine.
type ActivityEvent struct {
	ID       int64
	Fullname string
	From     Status
	To       Status

	// Detail carries free-form context: diagnostics, WMS handles,
	// attempt numbers.
	Detail Document

	Timestamp time.Time
}

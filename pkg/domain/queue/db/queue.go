package db

import (
	"context"
	"time"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
)

// Outcome is the verdict of a recheck over a queued element.
type Outcome string

const (
	// Reschedule plans the next recheck one interval later and resets
	// the poll failure counter.
	Reschedule Outcome = "reschedule"

	// FailedPoll plans the next recheck one interval later and bumps
	// the poll failure counter.
	FailedPoll Outcome = "failed_poll"

	// Settled stamps the entry finished. The element left running
	// terminally; no further rechecks happen.
	Settled Outcome = "settled"
)

type Interface interface {
	// Push opens a recheck schedule for an element. An element has at
	// most one open entry; pushing again is a no-op.
	Push(ctx context.Context, ref domain.ElementRef, interval time.Duration) error

	// PickDue picks one open entry due for a recheck, locks it, and
	// applies task. The entry is updated per the returned Outcome.
	//
	// Locking is `for update skip locked`, so concurrent pollers never
	// recheck the same element. Returns whether an entry was picked.
	// On task error nothing is updated.
	PickDue(ctx context.Context, task func(domain.QueueEntry) (Outcome, error)) (bool, error)

	// Finish stamps the open entry of an element, if any.
	Finish(ctx context.Context, ref domain.ElementRef) error

	// Poke makes the open entry of an element due now, so the next
	// polling cycle picks it without waiting out the interval. Status
	// changes of children poke the parent for prompt propagation.
	// No-op without an open entry.
	Poke(ctx context.Context, ref domain.ElementRef) error

	// Get retrieves the open entry of an element.
	// Returns domain.ErrMissing when there is none.
	Get(ctx context.Context, ref domain.ElementRef) (domain.QueueEntry, error)
}

package db

import (
	"context"
	"time"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
)

type Interface interface {
	// Create persists a new element in waiting status and returns its
	// reference. Fullname is derived from the parent; sibling name
	// collisions among live records are rejected.
	Create(ctx context.Context, el domain.Element) (domain.ElementRef, error)

	// Get retrieves elements by reference, mapping ref -> element.
	// Missing references are simply absent from the result.
	Get(ctx context.Context, refs []domain.ElementRef) (map[domain.ElementRef]domain.Element, error)

	// GetByFullname retrieves the live (non-superseded) element with
	// the given fullname, the external-facing key.
	GetByFullname(ctx context.Context, fullname string) (domain.Element, error)

	// ChildrenOf lists the non-superseded children of an element.
	ChildrenOf(ctx context.Context, parent domain.ElementRef) ([]domain.Element, error)

	// AncestorsOf lists the ancestors of an element, root first.
	AncestorsOf(ctx context.Context, ref domain.ElementRef) ([]domain.Element, error)

	// SetStatus updates the status of one element, validating the
	// transition with domain.CanTransition.
	//
	// Returns domain.ErrInvalidStatusChanging for an illegal move and
	// domain.ErrMissing when the element does not exist.
	SetStatus(ctx context.Context, ref domain.ElementRef, newStatus domain.Status) error

	// PickAndSetStatus picks the next live element after the cursor
	// matching the cursor's levels and statuses, locks it, and applies
	// task. The status returned by task is persisted when different.
	//
	// Locking is `for no key update skip locked`: concurrent ticks
	// never pick the same element, while task may still create
	// children referencing it. Aggregation results are written as-is
	// (the fold, not the linear machine, governs composite status).
	//
	// Returns the moved cursor, whether a status was changed and
	// saved, and task's error if any.
	PickAndSetStatus(ctx context.Context, cursor domain.ElementCursor, task func(domain.Element) (domain.Status, error)) (domain.ElementCursor, bool, error)

	// PickAndDispatch picks the next ready leaf after the cursor,
	// locks it, and invokes submit. On success the WMS handle, stamp
	// URL, running status and a queue entry scheduled after interval
	// are recorded in the same transaction.
	//
	// A permanent DispatchError from submit marks the element failed
	// (recorded, not returned). A transient one leaves it ready,
	// debounced, for a later cycle.
	PickAndDispatch(ctx context.Context, cursor domain.ElementCursor, interval time.Duration, submit func(domain.Element) (wmsJobId string, stampUrl string, err error)) (domain.ElementCursor, bool, error)

	// Finalize writes a terminal status without consulting the linear
	// state machine. Administrative cancellation uses it to mark any
	// live element rejected.
	Finalize(ctx context.Context, ref domain.ElementRef, newStatus domain.Status) error

	// AddDependency inserts a prerequisite edge.
	//
	// Returns domain.ErrSelfDependency, domain.ErrCyclicDependency or
	// domain.ErrDuplicateDependency for invalid edges; partial state
	// is never persisted.
	AddDependency(ctx context.Context, dep domain.Dependency) error

	// Satisfied reports whether every prerequisite of the element is
	// accepted (considering accepted replacement attempts of
	// superseded prerequisites).
	Satisfied(ctx context.Context, ref domain.ElementRef) (bool, error)

	// Retry supersedes a failed or rejected element together with its
	// live descendants, closes their open queue entries, and creates
	// a fresh attempt in waiting, atomically. Failed or rejected
	// ancestors go back to running so the loops resume the subtree.
	// Counters of the old attempt stay queryable under the superseded
	// records.
	//
	// Returns the new attempt's reference, or
	// domain.ErrNotRetryable / domain.ErrMissing.
	Retry(ctx context.Context, ref domain.ElementRef) (domain.ElementRef, error)

	// Pause holds an element: current status is stashed and the
	// element becomes paused.
	Pause(ctx context.Context, ref domain.ElementRef) error

	// Resume restores the stashed status of a paused element.
	Resume(ctx context.Context, ref domain.ElementRef) error

	// Review settles a reviewable element, to accepted or rejected.
	// Returns domain.ErrNotReviewable otherwise.
	Review(ctx context.Context, ref domain.ElementRef, accept bool) error
}

package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/lsst-dm/cm-service-sub002/pkg/utils/cmp"
)

// ElementRef identifies one element record. IDs are unique per level.
type ElementRef struct {
	Level Level
	ID    int64
}

func (r ElementRef) String() string {
	return fmt.Sprintf("%s:%d", r.Level, r.ID)
}

func (r ElementRef) Zero() bool {
	return r.Level == "" && r.ID == 0
}

// Core part of an element, common to every level.
type ElementBody struct {
	ElementRef

	// Name is unique among siblings and stable.
	Name string

	// Fullname is the slash-joined path from the campaign root.
	// It is the external-facing key and immutable once set.
	Fullname string

	// Parent is zero for campaigns.
	Parent ElementRef

	Status Status

	// StatusOnPause keeps the pre-pause status while Status == Paused.
	StatusOnPause Status

	// Superseded is set when a retry replaced this record. Superseded
	// elements are excluded from processing and aggregation but kept
	// for audit.
	Superseded bool

	// Handler names the strategy which dispatches/evaluates this
	// element. Resolved against the handler registry at creation time.
	Handler string

	// SpecBlock is the name of the template this element was
	// instantiated from.
	SpecBlock string

	Data        Document
	ChildConfig Document
	Collections Document
	SpecAliases Document

	// Metadata is free-form and not interpreted by the engine.
	Metadata Document

	UpdatedAt time.Time
}

func (b *ElementBody) Equal(o *ElementBody) bool {
	if (b == nil) || (o == nil) {
		return (b == nil) && (o == nil)
	}
	return b.ElementRef == o.ElementRef &&
		b.Name == o.Name &&
		b.Fullname == o.Fullname &&
		b.Parent == o.Parent &&
		b.Status == o.Status &&
		b.StatusOnPause == o.StatusOnPause &&
		b.Superseded == o.Superseded &&
		b.Handler == o.Handler &&
		b.SpecBlock == o.SpecBlock &&
		b.Data.Equal(o.Data) &&
		b.ChildConfig.Equal(o.ChildConfig) &&
		b.Collections.Equal(o.Collections) &&
		b.SpecAliases.Equal(o.SpecAliases)
}

// Element is a node of the campaign hierarchy.
//
// The WMS-facing fields are meaningful only for jobs and scripts and
// stay zero for composite levels.
type Element struct {
	ElementBody

	// Attempt counts retries. The first attempt is 0.
	Attempt int

	// WmsJobID is the external handle, empty until dispatched.
	WmsJobID string

	// StampURL points at the external log location, if any.
	StampURL string
}

func (e *Element) Equal(o *Element) bool {
	if (e == nil) || (o == nil) {
		return (e == nil) && (o == nil)
	}
	return e.ElementBody.Equal(&o.ElementBody) &&
		e.Attempt == o.Attempt &&
		e.WmsJobID == o.WmsJobID &&
		e.StampURL == o.StampURL
}

// EffectiveConfig merges the data documents of ancestors (root first)
// under the element's own, child overriding ancestor.
func EffectiveConfig(ancestors []Element, el Element) Document {
	merged := Document{}
	for _, a := range ancestors {
		merged = merged.Merge(a.Data)
	}
	return merged.Merge(el.Data)
}

// ElementCursor drives fair pick-and-transition iteration over
// elements, level by level.
type ElementCursor struct {
	// Head is the element picked last time.
	Head ElementRef

	// Levels to pick from. Empty means all levels.
	Levels []Level

	// Statuses of elements to be picked.
	Statuses []Status

	// interval to pick the same element again when its status did
	// not change.
	Debounce time.Duration
}

func (c ElementCursor) Equal(other ElementCursor) bool {
	return c.Head == other.Head &&
		c.Debounce == other.Debounce &&
		cmp.SliceContentEq(c.Levels, other.Levels) &&
		cmp.SliceContentEq(c.Statuses, other.Statuses)
}

var (
	ErrMissing = errors.New("record not found")
	ErrTooMuch = errors.New("record duplicated unexpectedly")

	ErrElementSuperseded = errors.New("the element is superseded")
	ErrNameCollision     = errors.New("sibling name already used")
	ErrNotRetryable      = errors.New("the element cannot be retried")
	ErrNotReviewable     = errors.New("the element is not reviewable")
)

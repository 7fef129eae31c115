package domain

import (
	"regexp"
	"time"
)

// Counters accumulates per-task (or per-product) execution outcomes
// for one job attempt.
//
// Counters only grow while an attempt lives; they reset only when a
// new attempt supersedes the job.
type Counters struct {
	NExpected       int
	NDone           int
	NFailed         int
	NFailedUpstream int
	NMissing        int
}

// MergeMonotonic overlays newer counts onto c, never decreasing any
// counter. Late-discovered tasks may raise NExpected.
func (c Counters) MergeMonotonic(newer Counters) Counters {
	return Counters{
		NExpected:       maxInt(c.NExpected, newer.NExpected),
		NDone:           maxInt(c.NDone, newer.NDone),
		NFailed:         maxInt(c.NFailed, newer.NFailed),
		NFailedUpstream: maxInt(c.NFailedUpstream, newer.NFailedUpstream),
		NMissing:        maxInt(c.NMissing, newer.NMissing),
	}
}

func maxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// TaskSet is the per-task counter row of a job.
type TaskSet struct {
	Element ElementRef
	Name    string
	Counters
}

// ProductSet is the per-product counter row of a job.
type ProductSet struct {
	Element ElementRef
	Name    string
	Counters
}

// WmsTaskCounts is the external scheduler's view of one job's
// sub-task population.
type WmsTaskCounts struct {
	NUnknown   int
	NMisfit    int
	NUnready   int
	NReady     int
	NPending   int
	NRunning   int
	NDeleted   int
	NHeld      int
	NSucceeded int
	NFailed    int
	NPruned    int
}

// Outstanding reports whether the WMS still holds work which may
// change the outcome.
func (w WmsTaskCounts) Outstanding() bool {
	return w.NUnready+w.NReady+w.NPending+w.NRunning+w.NHeld > 0
}

// Total counts every sub-task the WMS knows about.
func (w WmsTaskCounts) Total() int {
	return w.NUnknown + w.NMisfit + w.NUnready + w.NReady + w.NPending +
		w.NRunning + w.NDeleted + w.NHeld + w.NSucceeded + w.NFailed + w.NPruned
}

// WmsTaskReport is the latest WmsTaskCounts snapshot for a job.
// Each poll replaces the previous snapshot.
type WmsTaskReport struct {
	Element   ElementRef
	WmsJobID  string
	Counts    WmsTaskCounts
	UpdatedAt time.Time
}

// PipetaskErrorType classifies error diagnostics by pattern.
type PipetaskErrorType struct {
	ID int64

	// TaskName the pattern applies to. Empty matches any task.
	TaskName string

	// DiagnosticMatch is a regular expression tried against
	// diagnostic messages.
	DiagnosticMatch string

	Resolved bool
}

// Matches reports whether the error type classifies the given error.
func (t PipetaskErrorType) Matches(e PipetaskError) bool {
	if t.TaskName != "" && t.TaskName != e.TaskName {
		return false
	}
	matched, err := regexp.MatchString(t.DiagnosticMatch, e.DiagnosticMessage)
	return err == nil && matched
}

// PipetaskError is one failing data unit reported for a job.
type PipetaskError struct {
	ID int64

	// ErrorTypeID is nil until the error is triaged, either by
	// classification at poll time or manually.
	ErrorTypeID *int64

	Element           ElementRef
	TaskName          string
	Quanta            string
	DiagnosticMessage string

	// DataID identifies the failing data unit.
	DataID Document
}

// Classify assigns the first matching error type to each error.
// Errors without a match stay unclassified.
func Classify(errs []PipetaskError, types []PipetaskErrorType) []PipetaskError {
	out := make([]PipetaskError, len(errs))
	for i, e := range errs {
		for _, t := range types {
			if t.Matches(e) {
				id := t.ID
				e.ErrorTypeID = &id
				break
			}
		}
		out[i] = e
	}
	return out
}

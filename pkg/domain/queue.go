package domain

import "time"

// QueueEntry is one actively monitored element: while an element is
// running, its entry schedules periodic rechecks against the WMS.
type QueueEntry struct {
	ID int64

	Element ElementRef

	// Interval between rechecks.
	Interval time.Duration

	TimeCreated   time.Time
	TimeUpdated   time.Time
	TimeNextCheck time.Time

	// TimeFinished is stamped when the element leaves running
	// terminally. A finished entry is historical and never reused;
	// a retried element gets a fresh entry.
	TimeFinished *time.Time

	// PollFailures counts consecutive transient poll errors. Reset on
	// a successful poll.
	PollFailures int
}

func (q QueueEntry) Finished() bool {
	return q.TimeFinished != nil
}

func (q QueueEntry) Equal(o QueueEntry) bool {
	return q.ID == o.ID &&
		q.Element == o.Element &&
		q.Interval == o.Interval &&
		q.TimeCreated.Equal(o.TimeCreated) &&
		q.TimeUpdated.Equal(o.TimeUpdated) &&
		q.TimeNextCheck.Equal(o.TimeNextCheck) &&
		q.PollFailures == o.PollFailures &&
		((q.TimeFinished == nil && o.TimeFinished == nil) ||
			(q.TimeFinished != nil && o.TimeFinished != nil && q.TimeFinished.Equal(*o.TimeFinished)))
}

package domain

import (
	"errors"
	"fmt"
)

// DispatchError reports a failed submission to the WMS.
//
// Transient failures (scheduler unreachable, admission congestion)
// may be retried on a later cycle; permanent ones (malformed
// submission) fail the element.
type DispatchError struct {
	Transient bool
	Err       error
}

func (e *DispatchError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("dispatch failed (%s): %s", kind, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// AsTransientDispatch reports whether err is a transient DispatchError.
func AsTransientDispatch(err error) bool {
	de := new(DispatchError)
	return errors.As(err, &de) && de.Transient
}

// PollError reports a failed status query against the WMS. Polls are
// always retried up to a configured limit before the element fails.
type PollError struct {
	Err error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll failed: %s", e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

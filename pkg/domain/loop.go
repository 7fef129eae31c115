package domain

import (
	"errors"
	"fmt"
)

type LoopType string

const (
	Preparing   LoopType = "preparing"
	Activating  LoopType = "activating"
	Dispatching LoopType = "dispatching"
	Evaluating  LoopType = "evaluating"
	Polling     LoopType = "polling"
)

// The loop names live in the domain package: which loops exist is
// part of the engine's model, and loop coordination will move into
// the database when loops are scaled out.

func (lt LoopType) String() string {
	return string(lt)
}

func (lt LoopType) IsKnown() bool {
	switch lt {
	case Preparing, Activating, Dispatching, Evaluating, Polling:
		return true
	default:
		return false
	}
}

func AsLoopType(s string) (LoopType, error) {
	l := LoopType(s)
	if l.IsKnown() {
		return l, nil
	}
	return l, fmt.Errorf(`%w: "%s"`, ErrUnknownLoopType, s)
}

var ErrUnknownLoopType = errors.New("unknown loop type")

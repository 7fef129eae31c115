package domain

import (
	"errors"
	"fmt"
)

// Dependency is a directed prerequisite edge between sibling elements:
// Depend may not leave waiting until Prereq is accepted.
type Dependency struct {
	Prereq ElementRef
	Depend ElementRef
}

func (d Dependency) String() string {
	return fmt.Sprintf("%s -> %s", d.Prereq, d.Depend)
}

var (
	ErrCyclicDependency    = errors.New("dependency would create a cycle")
	ErrDuplicateDependency = errors.New("dependency already exists")
	ErrSelfDependency      = fmt.Errorf("%w: self loop", ErrCyclicDependency)
)

// DetectCycle reports whether adding edge to edges would close a
// cycle, by walking existing edges from edge.Depend looking for a
// path back to edge.Prereq.
//
// It is evaluated inside the transaction inserting the edge, over the
// edges already recorded for the same sibling set.
func DetectCycle(edges []Dependency, edge Dependency) error {
	if edge.Prereq == edge.Depend {
		return ErrSelfDependency
	}

	next := map[ElementRef][]ElementRef{}
	for _, e := range edges {
		if e == edge {
			return ErrDuplicateDependency
		}
		next[e.Prereq] = append(next[e.Prereq], e.Depend)
	}

	stack := []ElementRef{edge.Depend}
	seen := map[ElementRef]bool{}
	for len(stack) != 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == edge.Prereq {
			return fmt.Errorf("%w: %s", ErrCyclicDependency, edge)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, next[n]...)
	}
	return nil
}

package domain_test

import (
	"errors"
	"testing"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
)

func TestDetectCycle(t *testing.T) {
	job := func(id int64) domain.ElementRef {
		return domain.ElementRef{Level: domain.Job, ID: id}
	}
	edge := func(prereq, depend int64) domain.Dependency {
		return domain.Dependency{Prereq: job(prereq), Depend: job(depend)}
	}

	t.Run("a fresh edge over an empty graph is fine", func(t *testing.T) {
		if err := domain.DetectCycle(nil, edge(1, 2)); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("a self loop is rejected", func(t *testing.T) {
		err := domain.DetectCycle(nil, edge(1, 1))
		if !errors.Is(err, domain.ErrSelfDependency) {
			t.Errorf("expected ErrSelfDependency, got %v", err)
		}
		if !errors.Is(err, domain.ErrCyclicDependency) {
			t.Error("self loop should unwrap to ErrCyclicDependency")
		}
	})

	t.Run("a duplicated edge is rejected", func(t *testing.T) {
		err := domain.DetectCycle([]domain.Dependency{edge(1, 2)}, edge(1, 2))
		if !errors.Is(err, domain.ErrDuplicateDependency) {
			t.Errorf("expected ErrDuplicateDependency, got %v", err)
		}
	})

	t.Run("the reverse of an existing edge closes a cycle", func(t *testing.T) {
		err := domain.DetectCycle([]domain.Dependency{edge(1, 2)}, edge(2, 1))
		if !errors.Is(err, domain.ErrCyclicDependency) {
			t.Errorf("expected ErrCyclicDependency, got %v", err)
		}
	})

	t.Run("a transitive cycle is found", func(t *testing.T) {
		existing := []domain.Dependency{edge(1, 2), edge(2, 3), edge(3, 4)}
		err := domain.DetectCycle(existing, edge(4, 1))
		if !errors.Is(err, domain.ErrCyclicDependency) {
			t.Errorf("expected ErrCyclicDependency, got %v", err)
		}
	})

	t.Run("a diamond is not a cycle", func(t *testing.T) {
		existing := []domain.Dependency{edge(1, 2), edge(1, 3), edge(2, 4)}
		if err := domain.DetectCycle(existing, edge(3, 4)); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("disconnected components never interfere", func(t *testing.T) {
		existing := []domain.Dependency{edge(1, 2), edge(10, 11)}
		if err := domain.DetectCycle(existing, edge(11, 12)); err != nil {
			t.Fatal(err)
		}
	})
}

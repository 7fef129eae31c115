package preparing_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/lsst-dm/cm-service-sub002/cmd/loops/tasks/preparing"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	actmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db/mock"
	elemmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db/mock"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/specification"
	specmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/specification/db/mock"
)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// pickOnce wires the mock so the callback sees el, and moves the
// cursor head to el when the callback changes the status.
func pickOnce(m *elemmock.ElementInterface, el domain.Element) {
	m.Impl.PickAndSetStatus = func(
		ctx context.Context, cursor domain.ElementCursor,
		task func(domain.Element) (domain.Status, error),
	) (domain.ElementCursor, bool, error) {
		newStatus, err := task(el)
		next := cursor
		next.Head = el.ElementRef
		if err != nil {
			return next, false, err
		}
		return next, newStatus != el.Status, nil
	}
}

func TestTask(t *testing.T) {
	ctx := context.Background()

	campaign := domain.Element{
		ElementBody: domain.ElementBody{
			ElementRef: domain.ElementRef{Level: domain.Campaign, ID: 1},
			Name:       "c1", Fullname: "c1",
			Status: domain.Waiting,
		},
	}
	step := domain.Element{
		ElementBody: domain.ElementBody{
			ElementRef: domain.ElementRef{Level: domain.Step, ID: 10},
			Name:       "s1", Fullname: "c1/s1",
			Parent: campaign.ElementRef,
			Status: domain.Waiting,
		},
	}

	t.Run("when a campaign root's gates are open, it should become ready", func(t *testing.T) {
		elements := elemmock.NewElementInterface()
		pickOnce(elements, campaign)
		elements.Impl.Satisfied = func(context.Context, domain.ElementRef) (bool, error) {
			return true, nil
		}
		activity := actmock.NewActivityInterface()
		activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }
		specs := specmock.NewSpecificationInterface()

		testee := preparing.Task(
			discard(), elements,
			specification.NewInstantiator(elements, specs),
			activity,
		)

		cursor := preparing.Seed(30 * time.Second)
		next, backlog, err := testee(ctx, cursor)
		if err != nil {
			t.Fatal(err)
		}
		if !backlog {
			t.Error("cursor moved but backlog is false")
		}
		if next.Head != campaign.ElementRef {
			t.Errorf("cursor head unmatch: %s", next.Head)
		}

		if activity.Calls.Append.Times() != 1 {
			t.Fatalf("activity appended %d times", activity.Calls.Append.Times())
		}
		ev := activity.Calls.Append[0]
		if ev.Fullname != "c1" || ev.From != domain.Waiting || ev.To != domain.Ready {
			t.Errorf("unexpected event: %+v", ev)
		}
	})

	t.Run("when the parent is not running, it should stay waiting", func(t *testing.T) {
		elements := elemmock.NewElementInterface()
		pickOnce(elements, step)
		elements.Impl.Get = func(_ context.Context, refs []domain.ElementRef) (map[domain.ElementRef]domain.Element, error) {
			waiting := campaign
			waiting.Status = domain.Waiting
			return map[domain.ElementRef]domain.Element{campaign.ElementRef: waiting}, nil
		}
		activity := actmock.NewActivityInterface()
		specs := specmock.NewSpecificationInterface()

		testee := preparing.Task(
			discard(), elements,
			specification.NewInstantiator(elements, specs),
			activity,
		)

		_, _, err := testee(ctx, preparing.Seed(30*time.Second))
		if err != nil {
			t.Fatal(err)
		}
		if activity.Calls.Append.Times() != 0 {
			t.Error("no transition should be recorded")
		}
		if elements.Calls.Satisfied.Times() != 0 {
			t.Error("prerequisites should not be checked behind a closed parent gate")
		}
	})

	t.Run("when prerequisites are unsatisfied, it should stay waiting", func(t *testing.T) {
		elements := elemmock.NewElementInterface()
		pickOnce(elements, step)
		elements.Impl.Get = func(_ context.Context, refs []domain.ElementRef) (map[domain.ElementRef]domain.Element, error) {
			running := campaign
			running.Status = domain.Running
			return map[domain.ElementRef]domain.Element{campaign.ElementRef: running}, nil
		}
		elements.Impl.Satisfied = func(context.Context, domain.ElementRef) (bool, error) {
			return false, nil
		}
		activity := actmock.NewActivityInterface()
		specs := specmock.NewSpecificationInterface()

		testee := preparing.Task(
			discard(), elements,
			specification.NewInstantiator(elements, specs),
			activity,
		)

		_, _, err := testee(ctx, preparing.Seed(30*time.Second))
		if err != nil {
			t.Fatal(err)
		}
		if activity.Calls.Append.Times() != 0 {
			t.Error("no transition should be recorded")
		}
	})

	t.Run("when child creation fails, the error is returned", func(t *testing.T) {
		expectedErr := errors.New("fake error")

		target := step
		target.ChildConfig = domain.Document{
			"children": []any{
				map[string]any{"name": "g1", "spec_block": "group"},
			},
		}

		elements := elemmock.NewElementInterface()
		pickOnce(elements, target)
		elements.Impl.Get = func(_ context.Context, refs []domain.ElementRef) (map[domain.ElementRef]domain.Element, error) {
			running := campaign
			running.Status = domain.Running
			return map[domain.ElementRef]domain.Element{campaign.ElementRef: running}, nil
		}
		elements.Impl.Satisfied = func(context.Context, domain.ElementRef) (bool, error) {
			return true, nil
		}
		specs := specmock.NewSpecificationInterface()
		specs.Impl.GetBlock = func(context.Context, int64, string) (domain.SpecBlock, error) {
			return domain.SpecBlock{}, expectedErr
		}
		activity := actmock.NewActivityInterface()

		testee := preparing.Task(
			discard(), elements,
			specification.NewInstantiator(elements, specs),
			activity,
		)

		_, _, err := testee(ctx, preparing.Seed(30*time.Second))
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected the child creation error, got %v", err)
		}
	})
}

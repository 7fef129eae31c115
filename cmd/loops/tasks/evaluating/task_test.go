package evaluating_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/lsst-dm/cm-service-sub002/cmd/loops/tasks/evaluating"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	actmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db/mock"
	elemmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db/mock"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/handlers"
)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestTask(t *testing.T) {
	ctx := context.Background()

	group := domain.Element{
		ElementBody: domain.ElementBody{
			ElementRef: domain.ElementRef{Level: domain.Group, ID: 5},
			Name:       "g1", Fullname: "c1/s1/g1",
			Status:  domain.Running,
			Handler: "group",
		},
	}

	child := func(id int64, status domain.Status) domain.Element {
		return domain.Element{
			ElementBody: domain.ElementBody{
				ElementRef: domain.ElementRef{Level: domain.Job, ID: id},
				Parent:     group.ElementRef,
				Status:     status,
			},
		}
	}

	pickOnce := func(m *elemmock.ElementInterface, el domain.Element) {
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

	theory := func(children []domain.Element, registry *handlers.Registry, expected domain.Status) func(*testing.T) {
		return func(t *testing.T) {
			elements := elemmock.NewElementInterface()
			pickOnce(elements, group)
			elements.Impl.ChildrenOf = func(context.Context, domain.ElementRef) ([]domain.Element, error) {
				return children, nil
			}

			activity := actmock.NewActivityInterface()
			activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

			testee := evaluating.Task(discard(), elements, registry, activity)

			_, _, err := testee(ctx, evaluating.Seed(30*time.Second))
			if err != nil {
				t.Fatal(err)
			}

			if expected == group.Status {
				if activity.Calls.Append.Times() != 0 {
					t.Error("no transition should be recorded")
				}
				return
			}

			if activity.Calls.Append.Times() != 1 {
				t.Fatalf("activity appended %d times", activity.Calls.Append.Times())
			}
			ev := activity.Calls.Append[0]
			if ev.Fullname != group.Fullname || ev.From != domain.Running || ev.To != expected {
				t.Errorf("unexpected event: %+v", ev)
			}
		}
	}

	t.Run("when all children are accepted, the composite is accepted",
		theory(
			[]domain.Element{child(1, domain.Accepted), child(2, domain.Accepted)},
			handlers.Defaults(), domain.Accepted,
		))

	t.Run("when a child failed, the composite fails",
		theory(
			[]domain.Element{child(1, domain.Accepted), child(2, domain.Failed)},
			handlers.Defaults(), domain.Failed,
		))

	t.Run("while a child is active, the composite keeps running",
		theory(
			[]domain.Element{child(1, domain.Accepted), child(2, domain.Running)},
			handlers.Defaults(), domain.Running,
		))

	t.Run("a running composite never regresses to waiting",
		theory(
			[]domain.Element{child(1, domain.Waiting)},
			handlers.Defaults(), domain.Running,
		))

	t.Run("a reviewed handler holds the composite at reviewable", func(t *testing.T) {
		reviewed := group
		reviewed.Handler = "reviewed-group"

		elements := elemmock.NewElementInterface()
		pickOnce(elements, reviewed)
		elements.Impl.ChildrenOf = func(context.Context, domain.ElementRef) ([]domain.Element, error) {
			return []domain.Element{child(1, domain.Accepted)}, nil
		}

		activity := actmock.NewActivityInterface()
		activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		testee := evaluating.Task(discard(), elements, handlers.Defaults(), activity)

		if _, _, err := testee(ctx, evaluating.Seed(30*time.Second)); err != nil {
			t.Fatal(err)
		}
		if ev := activity.Calls.Append[0]; ev.To != domain.Reviewable {
			t.Errorf("unexpected event: %+v", ev)
		}
	})
}

package activating_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/lsst-dm/cm-service-sub002/cmd/loops/tasks/activating"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	actmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db/mock"
	elemmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db/mock"
	"github.com/lsst-dm/cm-service-sub002/pkg/utils/cmp"
)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestSeed(t *testing.T) {
	cursor := activating.Seed(30 * time.Second)

	if !cmp.SliceContentEq(cursor.Statuses, []domain.Status{domain.Ready}) {
		t.Errorf("unexpected statuses: %v", cursor.Statuses)
	}
	if cmp.SliceContains(cursor.Levels, domain.Script) {
		t.Error("scripts belong to the dispatching loop")
	}
	if cursor.Debounce != 30*time.Second {
		t.Errorf("unexpected debounce: %s", cursor.Debounce)
	}
}

func TestTask(t *testing.T) {
	ctx := context.Background()

	step := domain.Element{
		ElementBody: domain.ElementBody{
			ElementRef: domain.ElementRef{Level: domain.Step, ID: 2},
			Name:       "s1", Fullname: "c1/s1",
			Parent: domain.ElementRef{Level: domain.Campaign, ID: 1},
			Status: domain.Ready,
		},
	}

	t.Run("when a ready composite is picked, it should start running", func(t *testing.T) {
		elements := elemmock.NewElementInterface()
		elements.Impl.PickAndSetStatus = func(
			ctx context.Context, cursor domain.ElementCursor,
			task func(domain.Element) (domain.Status, error),
		) (domain.ElementCursor, bool, error) {
			newStatus, err := task(step)
			if err != nil {
				t.Fatal(err)
			}
			if newStatus != domain.Running {
				t.Errorf("unexpected status: %s", newStatus)
			}
			next := cursor
			next.Head = step.ElementRef
			return next, true, nil
		}
		activity := actmock.NewActivityInterface()
		activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		testee := activating.Task(discard(), elements, activity)

		cursor := activating.Seed(30 * time.Second)
		next, backlog, err := testee(ctx, cursor)
		if err != nil {
			t.Fatal(err)
		}
		if !backlog {
			t.Error("a moved cursor means more work may remain")
		}
		if next.Head != step.ElementRef {
			t.Errorf("cursor did not move: %v", next.Head)
		}

		logged := activity.Calls.Append
		if logged.Times() != 1 {
			t.Fatalf("Append called %d times", logged.Times())
		}
		if logged[0].Fullname != "c1/s1" ||
			logged[0].From != domain.Ready || logged[0].To != domain.Running {
			t.Errorf("unexpected activity: %+v", logged[0])
		}
	})

	t.Run("when nothing is picked, it should report no backlog", func(t *testing.T) {
		elements := elemmock.NewElementInterface()
		elements.Impl.PickAndSetStatus = func(
			ctx context.Context, cursor domain.ElementCursor,
			task func(domain.Element) (domain.Status, error),
		) (domain.ElementCursor, bool, error) {
			return cursor, false, nil
		}
		activity := actmock.NewActivityInterface()

		testee := activating.Task(discard(), elements, activity)

		cursor := activating.Seed(30 * time.Second)
		next, backlog, err := testee(ctx, cursor)
		if err != nil {
			t.Fatal(err)
		}
		if backlog {
			t.Error("an unmoved cursor means the table is drained")
		}
		if !next.Equal(cursor) {
			t.Errorf("cursor changed: %v", next)
		}
		if activity.Calls.Append.Times() != 0 {
			t.Error("no transition should be recorded")
		}
	})

	t.Run("when the pick fails, the error should propagate", func(t *testing.T) {
		fakeError := errors.New("fake error")
		elements := elemmock.NewElementInterface()
		elements.Impl.PickAndSetStatus = func(
			ctx context.Context, cursor domain.ElementCursor,
			task func(domain.Element) (domain.Status, error),
		) (domain.ElementCursor, bool, error) {
			return cursor, false, fakeError
		}
		activity := actmock.NewActivityInterface()

		testee := activating.Task(discard(), elements, activity)

		if _, _, err := testee(ctx, activating.Seed(30*time.Second)); !errors.Is(err, fakeError) {
			t.Errorf("expected the pick error, got %v", err)
		}
	})
}

package evaluating

import (
	"context"
	"log"
	"time"

	"github.com/lsst-dm/cm-service-sub002/cmd/loops/recurring"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	actdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db"
	elemdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/handlers"
	"github.com/lsst-dm/cm-service-sub002/pkg/utils/slices"
)

// initial value for task
func Seed(debounce time.Duration) domain.ElementCursor {
	return domain.ElementCursor{
		// target: running composites, whose status is a fold over
		// children
		Statuses: []domain.Status{domain.Running},
		Levels: []domain.Level{
			domain.Campaign, domain.Step, domain.Group, domain.Job,
		},
		Debounce: debounce,
	}
}

// Task for the evaluating loop.
//
// Recomputes the status of one running composite per cycle as the
// fold over its live children. The fold is pure and idempotent;
// re-evaluating a composite whose children did not move is a no-op
// held back by the cursor debounce.
func Task(
	logger *log.Logger,
	elements elemdb.Interface,
	registry *handlers.Registry,
	activity actdb.Interface,
) recurring.Task[domain.ElementCursor] {
	return func(ctx context.Context, cursor domain.ElementCursor) (domain.ElementCursor, bool, error) {
		var picked domain.Element
		var verdict domain.Status
		nextCursor, statusChanged, err := elements.PickAndSetStatus(
			ctx, cursor,
			func(target domain.Element) (domain.Status, error) {
				picked = target

				children, err := elements.ChildrenOf(ctx, target.ElementRef)
				if err != nil {
					return target.Status, err
				}

				policy := domain.ReviewPolicy{}
				if handler, ok := registry.Composite(target.Handler); ok {
					policy = handler.Policy()
				}

				verdict = domain.Aggregate(
					slices.Map(children, func(c domain.Element) domain.Status { return c.Status }),
					policy,
				)
				if verdict == domain.Waiting {
					// children not started yet; a running composite
					// never regresses
					return target.Status, nil
				}
				return verdict, nil
			},
		)

		if statusChanged {
			if aerr := activity.Append(ctx, domain.ActivityEvent{
				Fullname: picked.Fullname,
				From:     picked.Status,
				To:       verdict,
			}); aerr != nil {
				logger.Printf("activity log failed for %s: %s", picked.Fullname, aerr)
			}
		}

		return nextCursor, !cursor.Equal(nextCursor), err
	}
}

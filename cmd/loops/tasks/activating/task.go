package activating

import (
	"context"
	"log"
	"time"

	"github.com/lsst-dm/cm-service-sub002/cmd/loops/recurring"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	actdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db"
	elemdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db"
)

// initial value for task
func Seed(debounce time.Duration) domain.ElementCursor {
	return domain.ElementCursor{
		// target: ready composites. Ready scripts belong to the
		// dispatching loop.
		Statuses: []domain.Status{domain.Ready},
		Levels: []domain.Level{
			domain.Campaign, domain.Step, domain.Group, domain.Job,
		},
		Debounce: debounce,
	}
}

// Task for the activating loop.
//
// Moves ready composites to running. From there the preparing loop
// lets their children advance, and the evaluating loop folds the
// children's statuses back up.
func Task(
	logger *log.Logger,
	elements elemdb.Interface,
	activity actdb.Interface,
) recurring.Task[domain.ElementCursor] {
	return func(ctx context.Context, cursor domain.ElementCursor) (domain.ElementCursor, bool, error) {
		var picked domain.Element
		nextCursor, statusChanged, err := elements.PickAndSetStatus(
			ctx, cursor,
			func(target domain.Element) (domain.Status, error) {
				picked = target
				return domain.Running, nil
			},
		)

		if statusChanged {
			if aerr := activity.Append(ctx, domain.ActivityEvent{
				Fullname: picked.Fullname,
				From:     picked.Status,
				To:       domain.Running,
			}); aerr != nil {
				logger.Printf("activity log failed for %s: %s", picked.Fullname, aerr)
			}
		}

		return nextCursor, !cursor.Equal(nextCursor), err
	}
}

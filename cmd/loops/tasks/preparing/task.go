package preparing

import (
	"context"
	"log"
	"time"

	"github.com/lsst-dm/cm-service-sub002/cmd/loops/recurring"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	actdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db"
	elemdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/specification"
)

// initial value for task
func Seed(debounce time.Duration) domain.ElementCursor {
	return domain.ElementCursor{
		// target: every waiting element, any level
		Statuses: []domain.Status{domain.Waiting},
		Debounce: debounce,
	}
}

// Task for the preparing loop.
//
// Promotes waiting elements to ready once their gates open: the
// parent is running (campaign roots have no gate), every prerequisite
// is accepted, and the declared children exist. Child creation is
// idempotent, so a cycle interrupted halfway heals on the next pick.
func Task(
	logger *log.Logger,
	elements elemdb.Interface,
	instantiator *specification.Instantiator,
	activity actdb.Interface,
) recurring.Task[domain.ElementCursor] {
	return func(ctx context.Context, cursor domain.ElementCursor) (domain.ElementCursor, bool, error) {
		var picked domain.Element
		nextCursor, statusChanged, err := elements.PickAndSetStatus(
			ctx, cursor,
			func(target domain.Element) (domain.Status, error) {
				picked = target

				if !target.Parent.Zero() {
					parents, err := elements.Get(ctx, []domain.ElementRef{target.Parent})
					if err != nil {
						return target.Status, err
					}
					parent, ok := parents[target.Parent]
					if !ok {
						// orphan; leave it for inspection
						return target.Status, nil
					}
					if parent.Status != domain.Running {
						return target.Status, nil
					}
				}

				if ok, err := elements.Satisfied(ctx, target.ElementRef); err != nil {
					return target.Status, err
				} else if !ok {
					return target.Status, nil
				}

				if _, err := instantiator.EnsureChildren(ctx, target); err != nil {
					return target.Status, err
				}

				return domain.Ready, nil
			},
		)

		if statusChanged {
			if aerr := activity.Append(ctx, domain.ActivityEvent{
				Fullname: picked.Fullname,
				From:     picked.Status,
				To:       domain.Ready,
			}); aerr != nil {
				logger.Printf("activity log failed for %s: %s", picked.Fullname, aerr)
			}
		}

		return nextCursor, !cursor.Equal(nextCursor), err
	}
}

package dispatching

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lsst-dm/cm-service-sub002/cmd/loops/recurring"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	actdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db"
	elemdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/handlers"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/wms"
)

// initial value for task
func Seed(debounce time.Duration) domain.ElementCursor {
	return domain.ElementCursor{
		// target: ready leaves, waiting for a workload
		Statuses: []domain.Status{domain.Ready},
		Levels:   []domain.Level{domain.Script},
		Debounce: debounce,
	}
}

// Task for the dispatching loop.
//
// Hands one ready script to the workload manager per cycle. The
// handle, running status and the recheck schedule are committed
// atomically with the pick; a transient submit failure leaves the
// script ready for a later cycle, a permanent one fails it.
func Task(
	logger *log.Logger,
	elements elemdb.Interface,
	registry *handlers.Registry,
	w wms.Interface,
	activity actdb.Interface,
	recheckInterval time.Duration,
) recurring.Task[domain.ElementCursor] {
	return func(ctx context.Context, cursor domain.ElementCursor) (domain.ElementCursor, bool, error) {
		var picked domain.Element
		nextCursor, statusChanged, err := elements.PickAndDispatch(
			ctx, cursor, recheckInterval,
			func(target domain.Element) (string, string, error) {
				picked = target

				handler, ok := registry.Script(target.Handler)
				if !ok {
					return "", "", &domain.DispatchError{
						Err: fmt.Errorf("no script handler named %s", target.Handler),
					}
				}

				ancestors, err := elements.AncestorsOf(ctx, target.ElementRef)
				if err != nil {
					return "", "", &domain.DispatchError{Transient: true, Err: err}
				}
				sub, err := handler.BuildSubmission(
					target, domain.EffectiveConfig(ancestors, target),
				)
				if err != nil {
					return "", "", &domain.DispatchError{Err: err}
				}

				handle, err := w.Submit(ctx, sub)
				if err != nil {
					return "", "", err
				}
				return handle.WmsJobID, handle.StampURL, nil
			},
		)

		dispatchErr := new(domain.DispatchError)
		if errors.As(err, &dispatchErr) {
			// recorded against the element already; the loop goes on
			logger.Printf("dispatch of %s: %s", picked.Fullname, err)
			if statusChanged {
				if aerr := activity.Append(ctx, domain.ActivityEvent{
					Fullname: picked.Fullname,
					From:     picked.Status,
					To:       domain.Failed,
					Detail:   domain.Document{"error": err.Error()},
				}); aerr != nil {
					logger.Printf("activity log failed for %s: %s", picked.Fullname, aerr)
				}
			}
			return nextCursor, !cursor.Equal(nextCursor), nil
		}

		if err == nil && statusChanged {
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

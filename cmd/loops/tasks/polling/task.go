package polling

import (
	"context"
	"log"

	"github.com/lsst-dm/cm-service-sub002/cmd/loops/recurring"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	actdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db"
	elemdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db"
	queuedb "github.com/lsst-dm/cm-service-sub002/pkg/domain/queue/db"
	reportdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/report/db"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/wms"
)

// initial value for task
func Seed() struct{} {
	return struct{}{}
}

// countersOf maps a WMS snapshot onto the job-level counter row.
func countersOf(c domain.WmsTaskCounts) domain.Counters {
	return domain.Counters{
		NExpected: c.Total(),
		NDone:     c.NSucceeded,
		NFailed:   c.NFailed,
		NMissing:  c.NUnknown + c.NMisfit + c.NDeleted + c.NPruned,
	}
}

// Task for the polling loop.
//
// Rechecks one due queue entry per cycle: asks the workload manager
// for the script's state, stores the snapshot, merges counters into
// the parent job's sets and settles the script once the manager holds
// no outstanding work. Transient poll failures reschedule the entry
// up to maxPollFailures consecutive times, then the script fails with
// a recorded diagnostic.
func Task(
	logger *log.Logger,
	elements elemdb.Interface,
	queue queuedb.Interface,
	reports reportdb.Interface,
	w wms.Interface,
	activity actdb.Interface,
	maxPollFailures int,
) recurring.Task[struct{}] {
	record := func(ctx context.Context, el domain.Element, to domain.Status, detail domain.Document) {
		if aerr := activity.Append(ctx, domain.ActivityEvent{
			Fullname: el.Fullname, From: el.Status, To: to, Detail: detail,
		}); aerr != nil {
			logger.Printf("activity log failed for %s: %s", el.Fullname, aerr)
		}
	}

	return func(ctx context.Context, t struct{}) (struct{}, bool, error) {
		picked, err := queue.PickDue(ctx, func(entry domain.QueueEntry) (queuedb.Outcome, error) {
			got, err := elements.Get(ctx, []domain.ElementRef{entry.Element})
			if err != nil {
				return queuedb.Reschedule, err
			}
			el, ok := got[entry.Element]
			if !ok || el.Superseded || el.Status.Terminal() {
				// settled or retried elsewhere; close the schedule
				return queuedb.Settled, nil
			}
			if el.Status == domain.Paused {
				return queuedb.Reschedule, nil
			}
			if el.WmsJobID == "" {
				return queuedb.Settled, nil
			}

			report, err := w.Status(ctx, el.WmsJobID)
			if err != nil {
				if entry.PollFailures+1 < maxPollFailures {
					logger.Printf(
						"poll of %s failed (%d so far): %s",
						el.Fullname, entry.PollFailures+1, err,
					)
					return queuedb.FailedPoll, nil
				}

				// the manager lost it for good
				if serr := elements.SetStatus(ctx, el.ElementRef, domain.Failed); serr != nil {
					return queuedb.FailedPoll, serr
				}
				if rerr := reports.AddErrors(ctx, []domain.PipetaskError{{
					Element:           el.Parent,
					TaskName:          el.Name,
					DiagnosticMessage: err.Error(),
				}}); rerr != nil {
					return queuedb.Settled, rerr
				}
				record(ctx, el, domain.Failed, domain.Document{"error": err.Error()})
				return queuedb.Settled, nil
			}

			if rerr := reports.PutWmsReport(ctx, domain.WmsTaskReport{
				Element:  el.ElementRef,
				WmsJobID: el.WmsJobID,
				Counts:   report.Counts,
			}); rerr != nil {
				return queuedb.Reschedule, rerr
			}
			if rerr := reports.MergeTaskSets(ctx, []domain.TaskSet{{
				Element:  el.Parent,
				Name:     el.Name,
				Counters: countersOf(report.Counts),
			}}); rerr != nil {
				return queuedb.Reschedule, rerr
			}
			if len(report.Products) != 0 {
				products := make([]domain.ProductSet, 0, len(report.Products))
				for _, p := range report.Products {
					products = append(products, domain.ProductSet{
						Element:  el.Parent,
						Name:     p.Name,
						Counters: p.Counters,
					})
				}
				if rerr := reports.MergeProductSets(ctx, products); rerr != nil {
					return queuedb.Reschedule, rerr
				}
			}

			if report.Counts.Outstanding() {
				return queuedb.Reschedule, nil
			}

			verdict := domain.Accepted
			if report.Counts.NFailed > 0 || report.Counts.NSucceeded == 0 {
				verdict = domain.Failed
			}
			if verdict == domain.Failed && len(report.Diagnostics) != 0 {
				errs := make([]domain.PipetaskError, 0, len(report.Diagnostics))
				for _, d := range report.Diagnostics {
					errs = append(errs, domain.PipetaskError{
						Element:           el.Parent,
						TaskName:          d.TaskName,
						Quanta:            d.Quanta,
						DiagnosticMessage: d.Message,
						DataID:            d.DataID,
					})
				}
				if rerr := reports.AddErrors(ctx, errs); rerr != nil {
					return queuedb.Reschedule, rerr
				}
			}

			if serr := elements.SetStatus(ctx, el.ElementRef, verdict); serr != nil {
				return queuedb.Reschedule, serr
			}
			record(ctx, el, verdict, domain.Document{"wms_job_id": el.WmsJobID})
			return queuedb.Settled, nil
		})

		return struct{}{}, picked, err
	}
}

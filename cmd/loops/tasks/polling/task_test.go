package polling_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/lsst-dm/cm-service-sub002/cmd/loops/tasks/polling"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	actmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db/mock"
	elemmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db/mock"
	queuedb "github.com/lsst-dm/cm-service-sub002/pkg/domain/queue/db"
	queuemock "github.com/lsst-dm/cm-service-sub002/pkg/domain/queue/db/mock"
	reportmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/report/db/mock"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/wms"
	wmsmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/wms/mock"
)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

const maxPollFailures = 5

func TestTask(t *testing.T) {
	ctx := context.Background()

	script := domain.Element{
		ElementBody: domain.ElementBody{
			ElementRef: domain.ElementRef{Level: domain.Script, ID: 7},
			Name:       "bps-submit", Fullname: "c1/s1/g1/j1/bps-submit",
			Parent: domain.ElementRef{Level: domain.Job, ID: 3},
			Status: domain.Running,
		},
		WmsJobID: "wms-123",
	}

	entry := domain.QueueEntry{
		ID:      1,
		Element: script.ElementRef,
	}

	// pickDueOnce runs the poll callback on entry and records the
	// outcome it settled on.
	pickDueOnce := func(m *queuemock.QueueInterface, entry domain.QueueEntry, outcome *queuedb.Outcome) {
		m.Impl.PickDue = func(
			ctx context.Context, task func(domain.QueueEntry) (queuedb.Outcome, error),
		) (bool, error) {
			o, err := task(entry)
			*outcome = o
			return true, err
		}
	}

	knownElements := func(els ...domain.Element) func(context.Context, []domain.ElementRef) (map[domain.ElementRef]domain.Element, error) {
		return func(_ context.Context, refs []domain.ElementRef) (map[domain.ElementRef]domain.Element, error) {
			got := map[domain.ElementRef]domain.Element{}
			for _, el := range els {
				got[el.ElementRef] = el
			}
			return got, nil
		}
	}

	t.Run("when every sub-task succeeded, the script is accepted and the entry settles", func(t *testing.T) {
		var outcome queuedb.Outcome

		elements := elemmock.NewElementInterface()
		elements.Impl.Get = knownElements(script)
		elements.Impl.SetStatus = func(context.Context, domain.ElementRef, domain.Status) error {
			return nil
		}

		queue := queuemock.NewQueueInterface()
		pickDueOnce(queue, entry, &outcome)

		w := wmsmock.New()
		w.Impl.Status = func(_ context.Context, wmsJobId string) (wms.Report, error) {
			if wmsJobId != "wms-123" {
				t.Errorf("unexpected wms job id: %s", wmsJobId)
			}
			return wms.Report{Counts: domain.WmsTaskCounts{NSucceeded: 10}}, nil
		}

		reports := reportmock.NewReportInterface()
		reports.Impl.PutWmsReport = func(context.Context, domain.WmsTaskReport) error { return nil }
		reports.Impl.MergeTaskSets = func(context.Context, []domain.TaskSet) error { return nil }

		activity := actmock.NewActivityInterface()
		activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		testee := polling.Task(discard(), elements, queue, reports, w, activity, maxPollFailures)

		_, picked, err := testee(ctx, polling.Seed())
		if err != nil {
			t.Fatal(err)
		}
		if !picked {
			t.Error("an entry was picked but backlog is false")
		}
		if outcome != queuedb.Settled {
			t.Errorf("outcome = %s, expected settled", outcome)
		}

		if elements.Calls.SetStatus.Times() != 1 {
			t.Fatalf("SetStatus called %d times", elements.Calls.SetStatus.Times())
		}
		if c := elements.Calls.SetStatus[0]; c.NewStatus != domain.Accepted {
			t.Errorf("unexpected status: %s", c.NewStatus)
		}

		if reports.Calls.MergeTaskSets.Times() != 1 {
			t.Fatalf("MergeTaskSets called %d times", reports.Calls.MergeTaskSets.Times())
		}
		set := reports.Calls.MergeTaskSets[0][0]
		if set.Element != script.Parent {
			t.Errorf("counters should be keyed to the parent job, got %s", set.Element)
		}
		if set.NExpected != 10 || set.NDone != 10 || set.NFailed != 0 {
			t.Errorf("unexpected counters: %+v", set.Counters)
		}
	})

	t.Run("product counts in the report merge into the parent's product sets", func(t *testing.T) {
		var outcome queuedb.Outcome

		elements := elemmock.NewElementInterface()
		elements.Impl.Get = knownElements(script)
		elements.Impl.SetStatus = func(context.Context, domain.ElementRef, domain.Status) error {
			return nil
		}

		queue := queuemock.NewQueueInterface()
		pickDueOnce(queue, entry, &outcome)

		w := wmsmock.New()
		w.Impl.Status = func(context.Context, string) (wms.Report, error) {
			return wms.Report{
				Counts: domain.WmsTaskCounts{NSucceeded: 10},
				Products: []wms.ProductCount{
					{Name: "calexp", Counters: domain.Counters{NExpected: 4, NDone: 4}},
					{Name: "src", Counters: domain.Counters{NExpected: 2, NDone: 1, NMissing: 1}},
				},
			}, nil
		}

		reports := reportmock.NewReportInterface()
		reports.Impl.PutWmsReport = func(context.Context, domain.WmsTaskReport) error { return nil }
		reports.Impl.MergeTaskSets = func(context.Context, []domain.TaskSet) error { return nil }
		reports.Impl.MergeProductSets = func(context.Context, []domain.ProductSet) error { return nil }

		activity := actmock.NewActivityInterface()
		activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		testee := polling.Task(discard(), elements, queue, reports, w, activity, maxPollFailures)

		if _, _, err := testee(ctx, polling.Seed()); err != nil {
			t.Fatal(err)
		}

		if reports.Calls.MergeProductSets.Times() != 1 {
			t.Fatalf("MergeProductSets called %d times", reports.Calls.MergeProductSets.Times())
		}
		merged := reports.Calls.MergeProductSets[0]
		if len(merged) != 2 {
			t.Fatalf("unexpected product sets: %+v", merged)
		}
		for _, set := range merged {
			if set.Element != script.Parent {
				t.Errorf("product counters should be keyed to the parent job, got %s", set.Element)
			}
		}
		if merged[0].Name != "calexp" || merged[0].NDone != 4 {
			t.Errorf("unexpected product set: %+v", merged[0])
		}
		if merged[1].Name != "src" || merged[1].NMissing != 1 {
			t.Errorf("unexpected product set: %+v", merged[1])
		}
	})

	t.Run("while work is outstanding, the entry reschedules", func(t *testing.T) {
		var outcome queuedb.Outcome

		elements := elemmock.NewElementInterface()
		elements.Impl.Get = knownElements(script)

		queue := queuemock.NewQueueInterface()
		pickDueOnce(queue, entry, &outcome)

		w := wmsmock.New()
		w.Impl.Status = func(context.Context, string) (wms.Report, error) {
			return wms.Report{Counts: domain.WmsTaskCounts{NSucceeded: 4, NRunning: 6}}, nil
		}

		reports := reportmock.NewReportInterface()
		reports.Impl.PutWmsReport = func(context.Context, domain.WmsTaskReport) error { return nil }
		reports.Impl.MergeTaskSets = func(context.Context, []domain.TaskSet) error { return nil }

		activity := actmock.NewActivityInterface()

		testee := polling.Task(discard(), elements, queue, reports, w, activity, maxPollFailures)

		if _, _, err := testee(ctx, polling.Seed()); err != nil {
			t.Fatal(err)
		}
		if outcome != queuedb.Reschedule {
			t.Errorf("outcome = %s, expected reschedule", outcome)
		}
		if elements.Calls.SetStatus.Times() != 0 {
			t.Error("no verdict should be set while work is outstanding")
		}
	})

	t.Run("when a sub-task failed and nothing is outstanding, the script fails with a recorded error", func(t *testing.T) {
		var outcome queuedb.Outcome

		elements := elemmock.NewElementInterface()
		elements.Impl.Get = knownElements(script)
		elements.Impl.SetStatus = func(context.Context, domain.ElementRef, domain.Status) error {
			return nil
		}

		queue := queuemock.NewQueueInterface()
		pickDueOnce(queue, entry, &outcome)

		w := wmsmock.New()
		w.Impl.Status = func(context.Context, string) (wms.Report, error) {
			return wms.Report{
				Counts: domain.WmsTaskCounts{NSucceeded: 9, NFailed: 1},
				Diagnostics: []wms.Diagnostic{{
					TaskName: "calibrate",
					Quanta:   "q-17",
					Message:  "out of memory",
				}},
			}, nil
		}

		reports := reportmock.NewReportInterface()
		reports.Impl.PutWmsReport = func(context.Context, domain.WmsTaskReport) error { return nil }
		reports.Impl.MergeTaskSets = func(context.Context, []domain.TaskSet) error { return nil }
		reports.Impl.AddErrors = func(context.Context, []domain.PipetaskError) error { return nil }

		activity := actmock.NewActivityInterface()
		activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		testee := polling.Task(discard(), elements, queue, reports, w, activity, maxPollFailures)

		if _, _, err := testee(ctx, polling.Seed()); err != nil {
			t.Fatal(err)
		}
		if outcome != queuedb.Settled {
			t.Errorf("outcome = %s, expected settled", outcome)
		}
		if c := elements.Calls.SetStatus[0]; c.NewStatus != domain.Failed {
			t.Errorf("unexpected status: %s", c.NewStatus)
		}

		if reports.Calls.AddErrors.Times() != 1 {
			t.Fatalf("AddErrors called %d times", reports.Calls.AddErrors.Times())
		}
		recorded := reports.Calls.AddErrors[0][0]
		if recorded.Element != script.Parent ||
			recorded.TaskName != "calibrate" ||
			recorded.DiagnosticMessage != "out of memory" {
			t.Errorf("unexpected error row: %+v", recorded)
		}
	})

	t.Run("a transient poll failure below the limit bumps the failure count", func(t *testing.T) {
		var outcome queuedb.Outcome

		elements := elemmock.NewElementInterface()
		elements.Impl.Get = knownElements(script)

		queue := queuemock.NewQueueInterface()
		pickDueOnce(queue, entry, &outcome)

		w := wmsmock.New()
		w.Impl.Status = func(context.Context, string) (wms.Report, error) {
			return wms.Report{}, &domain.PollError{Err: errors.New("fake error")}
		}

		reports := reportmock.NewReportInterface()
		activity := actmock.NewActivityInterface()

		testee := polling.Task(discard(), elements, queue, reports, w, activity, maxPollFailures)

		if _, _, err := testee(ctx, polling.Seed()); err != nil {
			t.Fatal(err)
		}
		if outcome != queuedb.FailedPoll {
			t.Errorf("outcome = %s, expected failed poll", outcome)
		}
	})

	t.Run("at the poll failure limit, the script fails and the entry settles", func(t *testing.T) {
		var outcome queuedb.Outcome

		exhausted := entry
		exhausted.PollFailures = maxPollFailures - 1

		elements := elemmock.NewElementInterface()
		elements.Impl.Get = knownElements(script)
		elements.Impl.SetStatus = func(context.Context, domain.ElementRef, domain.Status) error {
			return nil
		}

		queue := queuemock.NewQueueInterface()
		pickDueOnce(queue, exhausted, &outcome)

		w := wmsmock.New()
		w.Impl.Status = func(context.Context, string) (wms.Report, error) {
			return wms.Report{}, &domain.PollError{Err: errors.New("fake error")}
		}

		reports := reportmock.NewReportInterface()
		reports.Impl.AddErrors = func(context.Context, []domain.PipetaskError) error { return nil }

		activity := actmock.NewActivityInterface()
		activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		testee := polling.Task(discard(), elements, queue, reports, w, activity, maxPollFailures)

		if _, _, err := testee(ctx, polling.Seed()); err != nil {
			t.Fatal(err)
		}
		if outcome != queuedb.Settled {
			t.Errorf("outcome = %s, expected settled", outcome)
		}
		if c := elements.Calls.SetStatus[0]; c.NewStatus != domain.Failed {
			t.Errorf("unexpected status: %s", c.NewStatus)
		}
		if reports.Calls.AddErrors.Times() != 1 {
			t.Error("the give-up should be recorded as an error row")
		}
	})

	t.Run("an entry whose element is gone settles quietly", func(t *testing.T) {
		var outcome queuedb.Outcome

		elements := elemmock.NewElementInterface()
		elements.Impl.Get = knownElements() // nothing

		queue := queuemock.NewQueueInterface()
		pickDueOnce(queue, entry, &outcome)

		w := wmsmock.New()
		reports := reportmock.NewReportInterface()
		activity := actmock.NewActivityInterface()

		testee := polling.Task(discard(), elements, queue, reports, w, activity, maxPollFailures)

		if _, _, err := testee(ctx, polling.Seed()); err != nil {
			t.Fatal(err)
		}
		if outcome != queuedb.Settled {
			t.Errorf("outcome = %s, expected settled", outcome)
		}
		if w.Calls.Status.Times() != 0 {
			t.Error("the manager should not be contacted")
		}
	})
}

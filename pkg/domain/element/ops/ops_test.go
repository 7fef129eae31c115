package ops_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	actmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db/mock"
	elemmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db/mock"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/element/ops"
	queuemock "github.com/lsst-dm/cm-service-sub002/pkg/domain/queue/db/mock"
	specmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/specification/db/mock"
	wmsmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/wms/mock"
)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type mocks struct {
	elements *elemmock.ElementInterface
	queue    *queuemock.QueueInterface
	specs    *specmock.SpecificationInterface
	activity *actmock.ActivityInterface
	wms      *wmsmock.WmsInterface
}

func newMocks() mocks {
	return mocks{
		elements: elemmock.NewElementInterface(),
		queue:    queuemock.NewQueueInterface(),
		specs:    specmock.NewSpecificationInterface(),
		activity: actmock.NewActivityInterface(),
		wms:      wmsmock.New(),
	}
}

func (m mocks) build() *ops.Ops {
	return ops.New(m.elements, m.queue, m.specs, m.activity, m.wms, discard())
}

// tree wires GetByFullname and ChildrenOf over a fixed element set.
func (m mocks) tree(elements ...domain.Element) {
	m.elements.Impl.GetByFullname = func(_ context.Context, fullname string) (domain.Element, error) {
		for _, el := range elements {
			if el.Fullname == fullname {
				return el, nil
			}
		}
		return domain.Element{}, domain.ErrMissing
	}
	m.elements.Impl.ChildrenOf = func(_ context.Context, parent domain.ElementRef) ([]domain.Element, error) {
		children := []domain.Element{}
		for _, el := range elements {
			if el.Parent == parent {
				children = append(children, el)
			}
		}
		return children, nil
	}
}

func TestCreateCampaign(t *testing.T) {
	ctx := context.Background()

	t.Run("it should seed a campaign root from the template", func(t *testing.T) {
		m := newMocks()
		m.specs.Impl.GetBlock = func(_ context.Context, specId int64, name string) (domain.SpecBlock, error) {
			if specId != 7 || name != "campaign" {
				return domain.SpecBlock{}, domain.ErrMissing
			}
			return domain.SpecBlock{
				SpecID: 7, Name: "campaign", Handler: "campaign",
				Data: domain.Document{"butler_repo": "/repo/main"},
			}, nil
		}
		want := domain.ElementRef{Level: domain.Campaign, ID: 1}
		m.elements.Impl.Create = func(context.Context, domain.Element) (domain.ElementRef, error) {
			return want, nil
		}
		m.activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		ref, err := m.build().CreateCampaign(ctx, 7, "campaign", "w_2026_30")
		if err != nil {
			t.Fatal(err)
		}
		if ref != want {
			t.Errorf("unexpected ref: %v", ref)
		}

		created := m.elements.Calls.Create
		if created.Times() != 1 {
			t.Fatalf("Create called %d times", created.Times())
		}
		el := created[0]
		if el.Level != domain.Campaign || el.Name != "w_2026_30" || !el.Parent.Zero() {
			t.Errorf("unexpected element: %+v", el.ElementBody)
		}
		if el.Data["butler_repo"] != "/repo/main" {
			t.Errorf("template data not seeded: %v", el.Data)
		}

		logged := m.activity.Calls.Append
		if logged.Times() != 1 || logged[0].To != domain.Waiting {
			t.Errorf("unexpected activity: %v", logged)
		}
	})

	t.Run("when the template is unknown, it should create nothing", func(t *testing.T) {
		m := newMocks()
		m.specs.Impl.GetBlock = func(context.Context, int64, string) (domain.SpecBlock, error) {
			return domain.SpecBlock{}, domain.ErrMissing
		}

		_, err := m.build().CreateCampaign(ctx, 7, "vanished", "w_2026_30")
		if !errors.Is(err, domain.ErrMissing) {
			t.Errorf("expected ErrMissing, got %v", err)
		}
		if m.elements.Calls.Create.Times() != 0 {
			t.Error("Create should not be called")
		}
	})
}

func TestPauseResume(t *testing.T) {
	ctx := context.Background()

	campaign := domain.Element{ElementBody: domain.ElementBody{
		ElementRef: domain.ElementRef{Level: domain.Campaign, ID: 1},
		Name:       "c1", Fullname: "c1", Status: domain.Running,
	}}
	step := domain.Element{ElementBody: domain.ElementBody{
		ElementRef: domain.ElementRef{Level: domain.Step, ID: 2},
		Name:       "s1", Fullname: "c1/s1",
		Parent: campaign.ElementRef, Status: domain.Running,
	}}
	settled := domain.Element{ElementBody: domain.ElementBody{
		ElementRef: domain.ElementRef{Level: domain.Step, ID: 3},
		Name:       "s0", Fullname: "c1/s0",
		Parent: campaign.ElementRef, Status: domain.Accepted,
	}}

	t.Run("it should pause the pausable subtree and skip the rest", func(t *testing.T) {
		m := newMocks()
		m.tree(campaign, step, settled)
		m.elements.Impl.Pause = func(context.Context, domain.ElementRef) error { return nil }
		m.activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		if err := m.build().Pause(ctx, "c1"); err != nil {
			t.Fatal(err)
		}

		paused := m.elements.Calls.Pause
		if paused.Times() != 2 {
			t.Fatalf("Pause called %d times: %v", paused.Times(), paused)
		}
		for _, ref := range paused {
			if ref == settled.ElementRef {
				t.Error("an accepted element should not be paused")
			}
		}
	})

	t.Run("it should resume only paused elements, restoring their status", func(t *testing.T) {
		pausedStep := step
		pausedStep.Status = domain.Paused
		pausedStep.StatusOnPause = domain.Running

		m := newMocks()
		m.tree(campaign, pausedStep, settled)
		m.elements.Impl.Resume = func(context.Context, domain.ElementRef) error { return nil }
		m.activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		if err := m.build().Resume(ctx, "c1"); err != nil {
			t.Fatal(err)
		}

		resumed := m.elements.Calls.Resume
		if resumed.Times() != 1 || resumed[0] != pausedStep.ElementRef {
			t.Errorf("unexpected Resume calls: %v", resumed)
		}

		logged := m.activity.Calls.Append
		if logged.Times() != 1 || logged[0].To != domain.Running {
			t.Errorf("restored status not recorded: %v", logged)
		}
	})

	t.Run("when the fullname is unknown, it should fail", func(t *testing.T) {
		m := newMocks()
		m.tree()

		if err := m.build().Pause(ctx, "no/such"); !errors.Is(err, domain.ErrMissing) {
			t.Errorf("expected ErrMissing, got %v", err)
		}
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	job := domain.Element{ElementBody: domain.ElementBody{
		ElementRef: domain.ElementRef{Level: domain.Job, ID: 4},
		Name:       "j1", Fullname: "c1/s1/g1/j1", Status: domain.Running,
	}}
	script := domain.Element{
		ElementBody: domain.ElementBody{
			ElementRef: domain.ElementRef{Level: domain.Script, ID: 5},
			Name:       "bps_submit", Fullname: "c1/s1/g1/j1/bps_submit",
			Parent: job.ElementRef, Status: domain.Running,
		},
		WmsJobID: "wms-123",
	}
	done := domain.Element{ElementBody: domain.ElementBody{
		ElementRef: domain.ElementRef{Level: domain.Script, ID: 6},
		Name:       "setup", Fullname: "c1/s1/g1/j1/setup",
		Parent: job.ElementRef, Status: domain.Accepted,
	}}

	t.Run("it should cancel running work leaves first", func(t *testing.T) {
		m := newMocks()
		m.tree(job, script, done)
		m.wms.Impl.Cancel = func(context.Context, string) error { return nil }
		m.elements.Impl.Finalize = func(context.Context, domain.ElementRef, domain.Status) error { return nil }
		m.queue.Impl.Finish = func(context.Context, domain.ElementRef) error { return nil }
		m.activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		if err := m.build().Cancel(ctx, "c1/s1/g1/j1"); err != nil {
			t.Fatal(err)
		}

		cancelled := m.wms.Calls.Cancel
		if cancelled.Times() != 1 || cancelled[0] != "wms-123" {
			t.Errorf("unexpected WMS cancels: %v", cancelled)
		}

		finalized := m.elements.Calls.Finalize
		if finalized.Times() != 2 {
			t.Fatalf("Finalize called %d times: %v", finalized.Times(), finalized)
		}
		if finalized[0].Ref != script.ElementRef || finalized[1].Ref != job.ElementRef {
			t.Errorf("leaves should settle before their parent: %v", finalized)
		}
		for _, f := range finalized {
			if f.NewStatus != domain.Rejected {
				t.Errorf("cancellation should reject, got %s", f.NewStatus)
			}
		}

		if m.queue.Calls.Finish.Times() != 2 {
			t.Errorf("recheck schedules not closed: %v", m.queue.Calls.Finish)
		}
	})

	t.Run("when the WMS refuses, nothing should be finalized", func(t *testing.T) {
		m := newMocks()
		m.tree(job, script, done)
		m.wms.Impl.Cancel = func(context.Context, string) error {
			return errors.New("fake error")
		}

		if err := m.build().Cancel(ctx, "c1/s1/g1/j1"); err == nil {
			t.Error("expected the WMS error")
		}
		if m.elements.Calls.Finalize.Times() != 0 {
			t.Errorf("Finalize should not be called: %v", m.elements.Calls.Finalize)
		}
	})
}

func TestReview(t *testing.T) {
	ctx := context.Background()

	group := domain.Element{ElementBody: domain.ElementBody{
		ElementRef: domain.ElementRef{Level: domain.Group, ID: 3},
		Name:       "g1", Fullname: "c1/s1/g1",
		Parent: domain.ElementRef{Level: domain.Step, ID: 2},
		Status: domain.Reviewable,
	}}

	t.Run("it should settle the element and poke the parent", func(t *testing.T) {
		m := newMocks()
		m.tree(group)
		m.elements.Impl.Review = func(context.Context, domain.ElementRef, bool) error { return nil }
		m.queue.Impl.Poke = func(context.Context, domain.ElementRef) error { return nil }
		m.activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		if err := m.build().Review(ctx, "c1/s1/g1", true); err != nil {
			t.Fatal(err)
		}

		reviewed := m.elements.Calls.Review
		if reviewed.Times() != 1 || reviewed[0].Ref != group.ElementRef || !reviewed[0].Accept {
			t.Errorf("unexpected Review calls: %v", reviewed)
		}
		poked := m.queue.Calls.Poke
		if poked.Times() != 1 || poked[0] != group.Parent {
			t.Errorf("parent not poked: %v", poked)
		}
		logged := m.activity.Calls.Append
		if logged.Times() != 1 || logged[0].To != domain.Accepted {
			t.Errorf("unexpected activity: %v", logged)
		}
	})

	t.Run("when a campaign root is reviewed, there is no parent to poke", func(t *testing.T) {
		campaign := domain.Element{ElementBody: domain.ElementBody{
			ElementRef: domain.ElementRef{Level: domain.Campaign, ID: 1},
			Name:       "c1", Fullname: "c1", Status: domain.Reviewable,
		}}

		m := newMocks()
		m.tree(campaign)
		m.elements.Impl.Review = func(context.Context, domain.ElementRef, bool) error { return nil }
		m.activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		if err := m.build().Review(ctx, "c1", false); err != nil {
			t.Fatal(err)
		}
		if m.queue.Calls.Poke.Times() != 0 {
			t.Errorf("Poke should not be called: %v", m.queue.Calls.Poke)
		}
	})

	t.Run("when the element is not reviewable, the error should propagate", func(t *testing.T) {
		m := newMocks()
		m.tree(group)
		m.elements.Impl.Review = func(context.Context, domain.ElementRef, bool) error {
			return domain.ErrNotReviewable
		}

		err := m.build().Review(ctx, "c1/s1/g1", true)
		if !errors.Is(err, domain.ErrNotReviewable) {
			t.Errorf("expected ErrNotReviewable, got %v", err)
		}
	})
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	failed := domain.Element{
		ElementBody: domain.ElementBody{
			ElementRef: domain.ElementRef{Level: domain.Job, ID: 4},
			Name:       "j1", Fullname: "c1/s1/g1/j1",
			Parent: domain.ElementRef{Level: domain.Group, ID: 3},
			Status: domain.Failed,
		},
		Attempt: 1,
	}

	t.Run("it should supersede the element and record the new attempt", func(t *testing.T) {
		m := newMocks()
		m.tree(failed)
		fresh := domain.ElementRef{Level: domain.Job, ID: 44}
		m.elements.Impl.Retry = func(_ context.Context, ref domain.ElementRef) (domain.ElementRef, error) {
			if ref != failed.ElementRef {
				t.Errorf("unexpected element retried: %v", ref)
			}
			return fresh, nil
		}
		m.activity.Impl.Append = func(context.Context, domain.ActivityEvent) error { return nil }

		ref, err := m.build().Retry(ctx, "c1/s1/g1/j1")
		if err != nil {
			t.Fatal(err)
		}
		if ref != fresh {
			t.Errorf("unexpected ref: %v", ref)
		}

		logged := m.activity.Calls.Append
		if logged.Times() != 1 {
			t.Fatalf("Append called %d times", logged.Times())
		}
		if logged[0].From != domain.Failed || logged[0].To != domain.Waiting {
			t.Errorf("unexpected transition recorded: %v", logged[0])
		}
		if logged[0].Detail["attempt"] != 2 {
			t.Errorf("attempt not recorded: %v", logged[0].Detail)
		}
	})

	t.Run("when the element is not retryable, the error should propagate", func(t *testing.T) {
		m := newMocks()
		m.tree(failed)
		m.elements.Impl.Retry = func(context.Context, domain.ElementRef) (domain.ElementRef, error) {
			return domain.ElementRef{}, domain.ErrNotRetryable
		}

		_, err := m.build().Retry(ctx, "c1/s1/g1/j1")
		if !errors.Is(err, domain.ErrNotRetryable) {
			t.Errorf("expected ErrNotRetryable, got %v", err)
		}
	})
}

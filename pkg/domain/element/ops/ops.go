package ops

import (
	"context"
	"log"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	actdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db"
	elemdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db"
	queuedb "github.com/lsst-dm/cm-service-sub002/pkg/domain/queue/db"
	specdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/specification/db"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/specification"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/wms"
)

// Ops bundles the administrative operations over the element tree:
// creating campaigns, pausing, resuming, cancelling, reviewing and
// retrying. Each operation resolves its target by fullname, the
// external-facing key.
type Ops struct {
	elements elemdb.Interface
	queue    queuedb.Interface
	specs    specdb.Interface
	activity actdb.Interface
	wms      wms.Interface

	logger *log.Logger
}

func New(
	elements elemdb.Interface,
	queue queuedb.Interface,
	specs specdb.Interface,
	activity actdb.Interface,
	w wms.Interface,
	logger *log.Logger,
) *Ops {
	return &Ops{
		elements: elements,
		queue:    queue,
		specs:    specs,
		activity: activity,
		wms:      w,
		logger:   logger,
	}
}

// record appends an activity event. The log is advisory; failures are
// logged and swallowed so they never wedge an operation.
func (o *Ops) record(ctx context.Context, fullname string, from, to domain.Status, detail domain.Document) {
	err := o.activity.Append(ctx, domain.ActivityEvent{
		Fullname: fullname, From: from, To: to, Detail: detail,
	})
	if err != nil {
		o.logger.Printf("activity log failed for %s: %s", fullname, err)
	}
}

// CreateCampaign creates a campaign root from a registered template.
// The specification id is stamped into metadata and inherited by
// every descendant.
func (o *Ops) CreateCampaign(ctx context.Context, specId int64, blockName string, name string) (domain.ElementRef, error) {
	block, err := o.specs.GetBlock(ctx, specId, blockName)
	if err != nil {
		return domain.ElementRef{}, err
	}

	el := specification.FromBlock(
		block, domain.ElementRef{}, domain.Campaign, name, specId, nil,
	)
	ref, err := o.elements.Create(ctx, el)
	if err != nil {
		return domain.ElementRef{}, err
	}

	o.record(ctx, name, "", domain.Waiting, domain.Document{"spec_block": blockName})
	return ref, nil
}

// GetByFullname resolves the live element with the given fullname.
func (o *Ops) GetByFullname(ctx context.Context, fullname string) (domain.Element, error) {
	return o.elements.GetByFullname(ctx, fullname)
}

// Activity lists the recorded transitions of a fullname, oldest first.
func (o *Ops) Activity(ctx context.Context, fullname string) ([]domain.ActivityEvent, error) {
	return o.activity.For(ctx, fullname)
}

// walk applies visit to the subtree rooted at el, leaves first.
func (o *Ops) walk(ctx context.Context, el domain.Element, visit func(domain.Element) error) error {
	children, err := o.elements.ChildrenOf(ctx, el.ElementRef)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := o.walk(ctx, child, visit); err != nil {
			return err
		}
	}
	return visit(el)
}

// Pause holds an element and its whole live subtree. Elements not in
// a pausable status (already settled, or still waiting on the parent)
// are left alone.
func (o *Ops) Pause(ctx context.Context, fullname string) error {
	root, err := o.elements.GetByFullname(ctx, fullname)
	if err != nil {
		return err
	}
	return o.walk(ctx, root, func(el domain.Element) error {
		if !el.Status.Pausable() {
			return nil
		}
		if err := o.elements.Pause(ctx, el.ElementRef); err != nil {
			return err
		}
		o.record(ctx, el.Fullname, el.Status, domain.Paused, nil)
		return nil
	})
}

// Resume restores the pre-pause status of an element and its subtree.
func (o *Ops) Resume(ctx context.Context, fullname string) error {
	root, err := o.elements.GetByFullname(ctx, fullname)
	if err != nil {
		return err
	}
	return o.walk(ctx, root, func(el domain.Element) error {
		if el.Status != domain.Paused {
			return nil
		}
		if err := o.elements.Resume(ctx, el.ElementRef); err != nil {
			return err
		}
		o.record(ctx, el.Fullname, domain.Paused, el.StatusOnPause, nil)
		return nil
	})
}

// Cancel stops an element and its subtree: running workloads are
// cancelled at the WMS, every non-terminal element is marked rejected
// and recheck schedules are closed. Leaves are cancelled before their
// parents so no poll resurrects a cancelled branch.
func (o *Ops) Cancel(ctx context.Context, fullname string) error {
	root, err := o.elements.GetByFullname(ctx, fullname)
	if err != nil {
		return err
	}
	return o.walk(ctx, root, func(el domain.Element) error {
		if el.Status.Terminal() {
			return nil
		}
		if el.Level.Leaf() && el.WmsJobID != "" {
			if err := o.wms.Cancel(ctx, el.WmsJobID); err != nil {
				return err
			}
		}
		if err := o.elements.Finalize(ctx, el.ElementRef, domain.Rejected); err != nil {
			return err
		}
		if err := o.queue.Finish(ctx, el.ElementRef); err != nil {
			return err
		}
		o.record(ctx, el.Fullname, el.Status, domain.Rejected, domain.Document{"cancelled": true})
		return nil
	})
}

// Review settles a reviewable element. The parent is poked so the
// verdict propagates on the next polling cycle instead of one
// interval later.
func (o *Ops) Review(ctx context.Context, fullname string, accept bool) error {
	el, err := o.elements.GetByFullname(ctx, fullname)
	if err != nil {
		return err
	}
	if err := o.elements.Review(ctx, el.ElementRef, accept); err != nil {
		return err
	}

	verdict := domain.Rejected
	if accept {
		verdict = domain.Accepted
	}
	o.record(ctx, el.Fullname, el.Status, verdict, nil)

	if !el.Parent.Zero() {
		if err := o.queue.Poke(ctx, el.Parent); err != nil {
			return err
		}
	}
	return nil
}

// Retry supersedes a failed or rejected element, with its subtree,
// and makes a fresh waiting attempt. Settled ancestors re-open so the
// loops pick the new attempt up; its children are instantiated again
// by the preparing cycle. Counters of the old attempt stay queryable
// under the superseded records.
func (o *Ops) Retry(ctx context.Context, fullname string) (domain.ElementRef, error) {
	el, err := o.elements.GetByFullname(ctx, fullname)
	if err != nil {
		return domain.ElementRef{}, err
	}

	newRef, err := o.elements.Retry(ctx, el.ElementRef)
	if err != nil {
		return domain.ElementRef{}, err
	}
	o.record(ctx, el.Fullname, el.Status, domain.Waiting, domain.Document{
		"retry":   true,
		"attempt": el.Attempt + 1,
	})
	return newRef, nil
}

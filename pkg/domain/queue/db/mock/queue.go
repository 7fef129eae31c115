package mock

import (
	"context"
	"errors"
	"time"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	dbmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/internal/db/mock"
	kdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/queue/db"
)

type QueueInterface struct {
	Impl struct {
		Push    func(ctx context.Context, ref domain.ElementRef, interval time.Duration) error
		PickDue func(ctx context.Context, task func(domain.QueueEntry) (kdb.Outcome, error)) (bool, error)
		Finish  func(ctx context.Context, ref domain.ElementRef) error
		Poke    func(ctx context.Context, ref domain.ElementRef) error
		Get     func(ctx context.Context, ref domain.ElementRef) (domain.QueueEntry, error)
	}

	Calls struct {
		Push dbmock.CallLog[struct {
			Ref      domain.ElementRef
			Interval time.Duration
		}]
		PickDue dbmock.CallLog[struct{}]
		Finish  dbmock.CallLog[domain.ElementRef]
		Poke    dbmock.CallLog[domain.ElementRef]
		Get     dbmock.CallLog[domain.ElementRef]
	}
}

func NewQueueInterface() *QueueInterface {
	return &QueueInterface{}
}

var _ kdb.Interface = &QueueInterface{}

func (m *QueueInterface) Push(ctx context.Context, ref domain.ElementRef, interval time.Duration) error {
	m.Calls.Push = append(m.Calls.Push, struct {
		Ref      domain.ElementRef
		Interval time.Duration
	}{Ref: ref, Interval: interval})
	if m.Impl.Push != nil {
		return m.Impl.Push(ctx, ref, interval)
	}
	panic(errors.New("it should not be called"))
}

func (m *QueueInterface) PickDue(ctx context.Context, task func(domain.QueueEntry) (kdb.Outcome, error)) (bool, error) {
	m.Calls.PickDue = append(m.Calls.PickDue, struct{}{})
	if m.Impl.PickDue != nil {
		return m.Impl.PickDue(ctx, task)
	}
	panic(errors.New("it should not be called"))
}

func (m *QueueInterface) Finish(ctx context.Context, ref domain.ElementRef) error {
	m.Calls.Finish = append(m.Calls.Finish, ref)
	if m.Impl.Finish != nil {
		return m.Impl.Finish(ctx, ref)
	}
	panic(errors.New("it should not be called"))
}

func (m *QueueInterface) Poke(ctx context.Context, ref domain.ElementRef) error {
	m.Calls.Poke = append(m.Calls.Poke, ref)
	if m.Impl.Poke != nil {
		return m.Impl.Poke(ctx, ref)
	}
	panic(errors.New("it should not be called"))
}

func (m *QueueInterface) Get(ctx context.Context, ref domain.ElementRef) (domain.QueueEntry, error) {
	m.Calls.Get = append(m.Calls.Get, ref)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, ref)
	}
	panic(errors.New("it should not be called"))
}

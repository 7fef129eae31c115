package mock

import (
	"context"
	"errors"
	"time"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	kdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db"
	dbmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/internal/db/mock"
)

type ElementInterface struct {
	Impl struct {
		Create           func(ctx context.Context, el domain.Element) (domain.ElementRef, error)
		Get              func(ctx context.Context, refs []domain.ElementRef) (map[domain.ElementRef]domain.Element, error)
		GetByFullname    func(ctx context.Context, fullname string) (domain.Element, error)
		ChildrenOf       func(ctx context.Context, parent domain.ElementRef) ([]domain.Element, error)
		AncestorsOf      func(ctx context.Context, ref domain.ElementRef) ([]domain.Element, error)
		SetStatus        func(ctx context.Context, ref domain.ElementRef, newStatus domain.Status) error
		PickAndSetStatus func(ctx context.Context, cursor domain.ElementCursor, task func(domain.Element) (domain.Status, error)) (domain.ElementCursor, bool, error)
		PickAndDispatch  func(ctx context.Context, cursor domain.ElementCursor, interval time.Duration, submit func(domain.Element) (string, string, error)) (domain.ElementCursor, bool, error)
		Finalize         func(ctx context.Context, ref domain.ElementRef, newStatus domain.Status) error
		AddDependency    func(ctx context.Context, dep domain.Dependency) error
		Satisfied        func(ctx context.Context, ref domain.ElementRef) (bool, error)
		Retry            func(ctx context.Context, ref domain.ElementRef) (domain.ElementRef, error)
		Pause            func(ctx context.Context, ref domain.ElementRef) error
		Resume           func(ctx context.Context, ref domain.ElementRef) error
		Review           func(ctx context.Context, ref domain.ElementRef, accept bool) error
	}

	Calls struct {
		Create        dbmock.CallLog[domain.Element]
		Get           dbmock.CallLog[[]domain.ElementRef]
		GetByFullname dbmock.CallLog[string]
		ChildrenOf    dbmock.CallLog[domain.ElementRef]
		AncestorsOf   dbmock.CallLog[domain.ElementRef]
		SetStatus     dbmock.CallLog[struct {
			Ref       domain.ElementRef
			NewStatus domain.Status
		}]
		PickAndSetStatus dbmock.CallLog[domain.ElementCursor]
		PickAndDispatch  dbmock.CallLog[domain.ElementCursor]
		Finalize         dbmock.CallLog[struct {
			Ref       domain.ElementRef
			NewStatus domain.Status
		}]
		AddDependency dbmock.CallLog[domain.Dependency]
		Satisfied     dbmock.CallLog[domain.ElementRef]
		Retry         dbmock.CallLog[domain.ElementRef]
		Pause         dbmock.CallLog[domain.ElementRef]
		Resume        dbmock.CallLog[domain.ElementRef]
		Review        dbmock.CallLog[struct {
			Ref    domain.ElementRef
			Accept bool
		}]
	}
}

func NewElementInterface() *ElementInterface {
	return &ElementInterface{}
}

var _ kdb.Interface = &ElementInterface{}

func (m *ElementInterface) Create(ctx context.Context, el domain.Element) (domain.ElementRef, error) {
	m.Calls.Create = append(m.Calls.Create, el)
	if m.Impl.Create != nil {
		return m.Impl.Create(ctx, el)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) Get(ctx context.Context, refs []domain.ElementRef) (map[domain.ElementRef]domain.Element, error) {
	m.Calls.Get = append(m.Calls.Get, refs)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, refs)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) GetByFullname(ctx context.Context, fullname string) (domain.Element, error) {
	m.Calls.GetByFullname = append(m.Calls.GetByFullname, fullname)
	if m.Impl.GetByFullname != nil {
		return m.Impl.GetByFullname(ctx, fullname)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) ChildrenOf(ctx context.Context, parent domain.ElementRef) ([]domain.Element, error) {
	m.Calls.ChildrenOf = append(m.Calls.ChildrenOf, parent)
	if m.Impl.ChildrenOf != nil {
		return m.Impl.ChildrenOf(ctx, parent)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) AncestorsOf(ctx context.Context, ref domain.ElementRef) ([]domain.Element, error) {
	m.Calls.AncestorsOf = append(m.Calls.AncestorsOf, ref)
	if m.Impl.AncestorsOf != nil {
		return m.Impl.AncestorsOf(ctx, ref)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) SetStatus(ctx context.Context, ref domain.ElementRef, newStatus domain.Status) error {
	m.Calls.SetStatus = append(m.Calls.SetStatus, struct {
		Ref       domain.ElementRef
		NewStatus domain.Status
	}{Ref: ref, NewStatus: newStatus})
	if m.Impl.SetStatus != nil {
		return m.Impl.SetStatus(ctx, ref, newStatus)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) PickAndSetStatus(ctx context.Context, cursor domain.ElementCursor, task func(domain.Element) (domain.Status, error)) (domain.ElementCursor, bool, error) {
	m.Calls.PickAndSetStatus = append(m.Calls.PickAndSetStatus, cursor)
	if m.Impl.PickAndSetStatus != nil {
		return m.Impl.PickAndSetStatus(ctx, cursor, task)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) PickAndDispatch(ctx context.Context, cursor domain.ElementCursor, interval time.Duration, submit func(domain.Element) (string, string, error)) (domain.ElementCursor, bool, error) {
	m.Calls.PickAndDispatch = append(m.Calls.PickAndDispatch, cursor)
	if m.Impl.PickAndDispatch != nil {
		return m.Impl.PickAndDispatch(ctx, cursor, interval, submit)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) Finalize(ctx context.Context, ref domain.ElementRef, newStatus domain.Status) error {
	m.Calls.Finalize = append(m.Calls.Finalize, struct {
		Ref       domain.ElementRef
		NewStatus domain.Status
	}{Ref: ref, NewStatus: newStatus})
	if m.Impl.Finalize != nil {
		return m.Impl.Finalize(ctx, ref, newStatus)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) AddDependency(ctx context.Context, dep domain.Dependency) error {
	m.Calls.AddDependency = append(m.Calls.AddDependency, dep)
	if m.Impl.AddDependency != nil {
		return m.Impl.AddDependency(ctx, dep)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) Satisfied(ctx context.Context, ref domain.ElementRef) (bool, error) {
	m.Calls.Satisfied = append(m.Calls.Satisfied, ref)
	if m.Impl.Satisfied != nil {
		return m.Impl.Satisfied(ctx, ref)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) Retry(ctx context.Context, ref domain.ElementRef) (domain.ElementRef, error) {
	m.Calls.Retry = append(m.Calls.Retry, ref)
	if m.Impl.Retry != nil {
		return m.Impl.Retry(ctx, ref)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) Pause(ctx context.Context, ref domain.ElementRef) error {
	m.Calls.Pause = append(m.Calls.Pause, ref)
	if m.Impl.Pause != nil {
		return m.Impl.Pause(ctx, ref)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) Resume(ctx context.Context, ref domain.ElementRef) error {
	m.Calls.Resume = append(m.Calls.Resume, ref)
	if m.Impl.Resume != nil {
		return m.Impl.Resume(ctx, ref)
	}
	panic(errors.New("it should not be called"))
}

func (m *ElementInterface) Review(ctx context.Context, ref domain.ElementRef, accept bool) error {
	m.Calls.Review = append(m.Calls.Review, struct {
		Ref    domain.ElementRef
		Accept bool
	}{Ref: ref, Accept: accept})
	if m.Impl.Review != nil {
		return m.Impl.Review(ctx, ref, accept)
	}
	panic(errors.New("it should not be called"))
}

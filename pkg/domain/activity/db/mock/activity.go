package mock

import (
	"context"
	"errors"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	kdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db"
	dbmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/internal/db/mock"
)

type ActivityInterface struct {
	Impl struct {
		Append func(ctx context.Context, ev domain.ActivityEvent) error
		For    func(ctx context.Context, fullname string) ([]domain.ActivityEvent, error)
	}

	Calls struct {
		Append dbmock.CallLog[domain.ActivityEvent]
		For    dbmock.CallLog[string]
	}
}

func NewActivityInterface() *ActivityInterface {
	return &ActivityInterface{}
}

var _ kdb.Interface = &ActivityInterface{}

func (m *ActivityInterface) Append(ctx context.Context, ev domain.ActivityEvent) error {
	m.Calls.Append = append(m.Calls.Append, ev)
	if m.Impl.Append != nil {
		return m.Impl.Append(ctx, ev)
	}
	panic(errors.New("it should not be called"))
}

func (m *ActivityInterface) For(ctx context.Context, fullname string) ([]domain.ActivityEvent, error) {
	m.Calls.For = append(m.Calls.For, fullname)
	if m.Impl.For != nil {
		return m.Impl.For(ctx, fullname)
	}
	panic(errors.New("it should not be called"))
}

package mock

import (
	"context"
	"errors"

	dbmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/internal/db/mock"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/wms"
)

type WmsInterface struct {
	Impl struct {
		Submit func(ctx context.Context, sub wms.Submission) (wms.Handle, error)
		Status func(ctx context.Context, wmsJobId string) (wms.Report, error)
		Cancel func(ctx context.Context, wmsJobId string) error
	}

	Calls struct {
		Submit dbmock.CallLog[wms.Submission]
		Status dbmock.CallLog[string]
		Cancel dbmock.CallLog[string]
	}
}

func New() *WmsInterface {
	return &WmsInterface{}
}

var _ wms.Interface = &WmsInterface{}

func (m *WmsInterface) Submit(ctx context.Context, sub wms.Submission) (wms.Handle, error) {
	m.Calls.Submit = append(m.Calls.Submit, sub)
	if m.Impl.Submit != nil {
		return m.Impl.Submit(ctx, sub)
	}
	panic(errors.New("it should not be called"))
}

func (m *WmsInterface) Status(ctx context.Context, wmsJobId string) (wms.Report, error) {
	m.Calls.Status = append(m.Calls.Status, wmsJobId)
	if m.Impl.Status != nil {
		return m.Impl.Status(ctx, wmsJobId)
	}
	panic(errors.New("it should not be called"))
}

func (m *WmsInterface) Cancel(ctx context.Context, wmsJobId string) error {
	m.Calls.Cancel = append(m.Calls.Cancel, wmsJobId)
	if m.Impl.Cancel != nil {
		return m.Impl.Cancel(ctx, wmsJobId)
	}
	panic(errors.New("it should not be called"))
}

package mock

import (
	"context"
	"errors"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	dbmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/internal/db/mock"
	kdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/report/db"
)

type ReportInterface struct {
	Impl struct {
		PutWmsReport     func(ctx context.Context, report domain.WmsTaskReport) error
		GetWmsReport     func(ctx context.Context, ref domain.ElementRef) (domain.WmsTaskReport, error)
		MergeTaskSets    func(ctx context.Context, sets []domain.TaskSet) error
		MergeProductSets func(ctx context.Context, sets []domain.ProductSet) error
		TaskSetsFor      func(ctx context.Context, ref domain.ElementRef) ([]domain.TaskSet, error)
		ProductSetsFor   func(ctx context.Context, ref domain.ElementRef) ([]domain.ProductSet, error)
		AddErrors        func(ctx context.Context, errs []domain.PipetaskError) error
		ErrorTypes       func(ctx context.Context) ([]domain.PipetaskErrorType, error)
		PutErrorType     func(ctx context.Context, t domain.PipetaskErrorType) (int64, error)
		ErrorsFor        func(ctx context.Context, ref domain.ElementRef) ([]domain.PipetaskError, error)
	}

	Calls struct {
		PutWmsReport     dbmock.CallLog[domain.WmsTaskReport]
		GetWmsReport     dbmock.CallLog[domain.ElementRef]
		MergeTaskSets    dbmock.CallLog[[]domain.TaskSet]
		MergeProductSets dbmock.CallLog[[]domain.ProductSet]
		TaskSetsFor      dbmock.CallLog[domain.ElementRef]
		ProductSetsFor   dbmock.CallLog[domain.ElementRef]
		AddErrors        dbmock.CallLog[[]domain.PipetaskError]
		ErrorTypes       dbmock.CallLog[struct{}]
		PutErrorType     dbmock.CallLog[domain.PipetaskErrorType]
		ErrorsFor        dbmock.CallLog[domain.ElementRef]
	}
}

func NewReportInterface() *ReportInterface {
	return &ReportInterface{}
}

var _ kdb.Interface = &ReportInterface{}

func (m *ReportInterface) PutWmsReport(ctx context.Context, report domain.WmsTaskReport) error {
	m.Calls.PutWmsReport = append(m.Calls.PutWmsReport, report)
	if m.Impl.PutWmsReport != nil {
		return m.Impl.PutWmsReport(ctx, report)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReportInterface) GetWmsReport(ctx context.Context, ref domain.ElementRef) (domain.WmsTaskReport, error) {
	m.Calls.GetWmsReport = append(m.Calls.GetWmsReport, ref)
	if m.Impl.GetWmsReport != nil {
		return m.Impl.GetWmsReport(ctx, ref)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReportInterface) MergeTaskSets(ctx context.Context, sets []domain.TaskSet) error {
	m.Calls.MergeTaskSets = append(m.Calls.MergeTaskSets, sets)
	if m.Impl.MergeTaskSets != nil {
		return m.Impl.MergeTaskSets(ctx, sets)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReportInterface) MergeProductSets(ctx context.Context, sets []domain.ProductSet) error {
	m.Calls.MergeProductSets = append(m.Calls.MergeProductSets, sets)
	if m.Impl.MergeProductSets != nil {
		return m.Impl.MergeProductSets(ctx, sets)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReportInterface) TaskSetsFor(ctx context.Context, ref domain.ElementRef) ([]domain.TaskSet, error) {
	m.Calls.TaskSetsFor = append(m.Calls.TaskSetsFor, ref)
	if m.Impl.TaskSetsFor != nil {
		return m.Impl.TaskSetsFor(ctx, ref)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReportInterface) ProductSetsFor(ctx context.Context, ref domain.ElementRef) ([]domain.ProductSet, error) {
	m.Calls.ProductSetsFor = append(m.Calls.ProductSetsFor, ref)
	if m.Impl.ProductSetsFor != nil {
		return m.Impl.ProductSetsFor(ctx, ref)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReportInterface) AddErrors(ctx context.Context, errs []domain.PipetaskError) error {
	m.Calls.AddErrors = append(m.Calls.AddErrors, errs)
	if m.Impl.AddErrors != nil {
		return m.Impl.AddErrors(ctx, errs)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReportInterface) ErrorTypes(ctx context.Context) ([]domain.PipetaskErrorType, error) {
	m.Calls.ErrorTypes = append(m.Calls.ErrorTypes, struct{}{})
	if m.Impl.ErrorTypes != nil {
		return m.Impl.ErrorTypes(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReportInterface) PutErrorType(ctx context.Context, t domain.PipetaskErrorType) (int64, error) {
	m.Calls.PutErrorType = append(m.Calls.PutErrorType, t)
	if m.Impl.PutErrorType != nil {
		return m.Impl.PutErrorType(ctx, t)
	}
	panic(errors.New("it should not be called"))
}

func (m *ReportInterface) ErrorsFor(ctx context.Context, ref domain.ElementRef) ([]domain.PipetaskError, error) {
	m.Calls.ErrorsFor = append(m.Calls.ErrorsFor, ref)
	if m.Impl.ErrorsFor != nil {
		return m.Impl.ErrorsFor(ctx, ref)
	}
	panic(errors.New("it should not be called"))
}

package db

import (
	"context"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
)

type Interface interface {
	// PutWmsReport replaces the WMS snapshot of an element.
	PutWmsReport(ctx context.Context, report domain.WmsTaskReport) error

	// GetWmsReport retrieves the latest WMS snapshot of an element.
	// Returns domain.ErrMissing when no poll has reported yet.
	GetWmsReport(ctx context.Context, ref domain.ElementRef) (domain.WmsTaskReport, error)

	// MergeTaskSets overlays newer task counters onto the stored ones,
	// monotonically: counters never decrease.
	MergeTaskSets(ctx context.Context, sets []domain.TaskSet) error

	// MergeProductSets overlays newer product counters, monotonically.
	MergeProductSets(ctx context.Context, sets []domain.ProductSet) error

	// TaskSetsFor lists the task counters of an element, by name.
	TaskSetsFor(ctx context.Context, ref domain.ElementRef) ([]domain.TaskSet, error)

	// ProductSetsFor lists the product counters of an element, by name.
	ProductSetsFor(ctx context.Context, ref domain.ElementRef) ([]domain.ProductSet, error)

	// AddErrors records failing data units, classified against the
	// known error types at insert time.
	AddErrors(ctx context.Context, errs []domain.PipetaskError) error

	// ErrorTypes lists the known error type patterns.
	ErrorTypes(ctx context.Context) ([]domain.PipetaskErrorType, error)

	// PutErrorType registers a new error type pattern and returns its id.
	PutErrorType(ctx context.Context, t domain.PipetaskErrorType) (int64, error)

	// ErrorsFor lists the recorded errors of an element.
	ErrorsFor(ctx context.Context, ref domain.ElementRef) ([]domain.PipetaskError, error)
}

package wms

import (
	"context"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
)

// Submission is one unit of work handed to the workload manager.
type Submission struct {
	// Fullname of the element being dispatched. Used to derive a
	// stable external name, so resubmitting after a crash reattaches
	// to the same workload.
	Fullname string

	Image   string
	Command []string
	Env     map[string]string
}

// Handle identifies a submitted workload.
type Handle struct {
	WmsJobID string

	// StampURL points at the workload's log location, if the manager
	// exposes one.
	StampURL string
}

// Report is the manager's current view of a submitted workload.
type Report struct {
	Counts domain.WmsTaskCounts

	// Products counts the data products of the workload, per product
	// name. Managers that do not track products leave it empty.
	Products []ProductCount

	// Diagnostics carries failure messages of settled sub-tasks, for
	// classification against the known error types.
	Diagnostics []Diagnostic
}

// ProductCount is one product population as the manager reports it.
type ProductCount struct {
	Name     string
	Counters domain.Counters
}

// Diagnostic is one failing sub-task as the manager reports it.
type Diagnostic struct {
	TaskName string
	Quanta   string
	Message  string
	DataID   domain.Document
}

// Interface abstracts the external workload manager.
//
// Submit failures must be wrapped in domain.DispatchError so the
// engine can tell transient congestion from a malformed submission.
// Status failures must be wrapped in domain.PollError.
type Interface interface {
	// Submit hands a workload to the manager and returns its handle.
	// Submitting the same Fullname twice returns the same handle.
	Submit(ctx context.Context, sub Submission) (Handle, error)

	// Status reports the current state of a workload.
	Status(ctx context.Context, wmsJobId string) (Report, error)

	// Cancel stops a workload. Unknown handles are not an error.
	Cancel(ctx context.Context, wmsJobId string) error
}

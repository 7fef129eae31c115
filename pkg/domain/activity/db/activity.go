package db

import (
	"context"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
)

type Interface interface {
	// Append records a status transition. The log is append-only.
	Append(ctx context.Context, ev domain.ActivityEvent) error

	// For lists the recorded events of a fullname, oldest first.
	For(ctx context.Context, fullname string) ([]domain.ActivityEvent, error)
}

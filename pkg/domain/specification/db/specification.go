package db

import (
	"context"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
)

type Interface interface {
	// PutBlock upserts a configuration template. Elements already
	// created from the old version keep their copies.
	PutBlock(ctx context.Context, block domain.SpecBlock) error

	// GetBlock retrieves a template by specification id and name.
	// Returns domain.ErrMissing when unknown.
	GetBlock(ctx context.Context, specId int64, name string) (domain.SpecBlock, error)

	// Blocks lists the templates of a specification, by name.
	Blocks(ctx context.Context, specId int64) ([]domain.SpecBlock, error)
}

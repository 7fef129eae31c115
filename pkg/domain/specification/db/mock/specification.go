package mock

import (
	"context"
	"errors"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	dbmock "github.com/lsst-dm/cm-service-sub002/pkg/domain/internal/db/mock"
	kdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/specification/db"
)

type SpecificationInterface struct {
	Impl struct {
		PutBlock func(ctx context.Context, block domain.SpecBlock) error
		GetBlock func(ctx context.Context, specId int64, name string) (domain.SpecBlock, error)
		Blocks   func(ctx context.Context, specId int64) ([]domain.SpecBlock, error)
	}

	Calls struct {
		PutBlock dbmock.CallLog[domain.SpecBlock]
		GetBlock dbmock.CallLog[struct {
			SpecId int64
			Name   string
		}]
		Blocks dbmock.CallLog[int64]
	}
}

func NewSpecificationInterface() *SpecificationInterface {
	return &SpecificationInterface{}
}

var _ kdb.Interface = &SpecificationInterface{}

func (m *SpecificationInterface) PutBlock(ctx context.Context, block domain.SpecBlock) error {
	m.Calls.PutBlock = append(m.Calls.PutBlock, block)
	if m.Impl.PutBlock != nil {
		return m.Impl.PutBlock(ctx, block)
	}
	panic(errors.New("it should not be called"))
}

func (m *SpecificationInterface) GetBlock(ctx context.Context, specId int64, name string) (domain.SpecBlock, error) {
	m.Calls.GetBlock = append(m.Calls.GetBlock, struct {
		SpecId int64
		Name   string
	}{SpecId: specId, Name: name})
	if m.Impl.GetBlock != nil {
		return m.Impl.GetBlock(ctx, specId, name)
	}
	panic(errors.New("it should not be called"))
}

func (m *SpecificationInterface) Blocks(ctx context.Context, specId int64) ([]domain.SpecBlock, error) {
	m.Calls.Blocks = append(m.Calls.Blocks, specId)
	if m.Impl.Blocks != nil {
		return m.Impl.Blocks(ctx, specId)
	}
	panic(errors.New("it should not be called"))
}

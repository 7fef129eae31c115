package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	kpool "github.com/lsst-dm/cm-service-sub002/pkg/conn/db/postgres/pool"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	kpgerr "github.com/lsst-dm/cm-service-sub002/pkg/domain/errors/dberrors"
	kdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/specification/db"
)

// a struct for DB operations related to configuration templates.
type specificationPG struct { // implements kdb.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *specificationPG {
	return &specificationPG{pool: pool}
}

var _ kdb.Interface = &specificationPG{}

func marshalDoc(d domain.Document) ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

func (m *specificationPG) PutBlock(ctx context.Context, block domain.SpecBlock) error {
	data, err := marshalDoc(block.Data)
	if err != nil {
		return err
	}
	collections, err := marshalDoc(block.Collections)
	if err != nil {
		return err
	}
	childConfig, err := marshalDoc(block.ChildConfig)
	if err != nil {
		return err
	}
	specAliases, err := marshalDoc(block.SpecAliases)
	if err != nil {
		return err
	}
	scripts, err := json.Marshal(block.Scripts)
	if err != nil {
		return err
	}
	if block.Scripts == nil {
		scripts = []byte("[]")
	}

	_, err = m.pool.Exec(
		ctx,
		`
		insert into "spec_block" (
			"spec_id", "name", "handler",
			"data", "collections", "child_config", "spec_aliases", "scripts"
		) values ($1, $2, $3, $4::jsonb, $5::jsonb, $6::jsonb, $7::jsonb, $8::jsonb)
		on conflict ("spec_id", "name") do update set
			"handler" = excluded."handler",
			"data" = excluded."data",
			"collections" = excluded."collections",
			"child_config" = excluded."child_config",
			"spec_aliases" = excluded."spec_aliases",
			"scripts" = excluded."scripts"
		`,
		block.SpecID, block.Name, block.Handler,
		data, collections, childConfig, specAliases, scripts,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBlock(row rowScanner) (domain.SpecBlock, error) {
	var block domain.SpecBlock
	var data, collections, childConfig, specAliases, scripts []byte
	if err := row.Scan(
		&block.SpecID, &block.Name, &block.Handler,
		&data, &collections, &childConfig, &specAliases, &scripts,
	); err != nil {
		return domain.SpecBlock{}, err
	}

	for _, doc := range []struct {
		raw  []byte
		dest *domain.Document
	}{
		{data, &block.Data},
		{collections, &block.Collections},
		{childConfig, &block.ChildConfig},
		{specAliases, &block.SpecAliases},
	} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.dest); err != nil {
			return domain.SpecBlock{}, err
		}
	}
	if len(scripts) != 0 {
		if err := json.Unmarshal(scripts, &block.Scripts); err != nil {
			return domain.SpecBlock{}, err
		}
	}
	return block, nil
}

const blockColumns = `
	"spec_id", "name", "handler",
	"data", "collections", "child_config", "spec_aliases", "scripts"
`

func (m *specificationPG) GetBlock(ctx context.Context, specId int64, name string) (domain.SpecBlock, error) {
	block, err := scanBlock(m.pool.QueryRow(
		ctx,
		`select `+blockColumns+` from "spec_block"
		 where "spec_id" = $1 and "name" = $2`,
		specId, name,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SpecBlock{}, kpgerr.Missing{
				Table: "spec_block", Identity: fmt.Sprintf("%d/%s", specId, name),
			}
		}
		return domain.SpecBlock{}, err
	}
	return block, nil
}

func (m *specificationPG) Blocks(ctx context.Context, specId int64) ([]domain.SpecBlock, error) {
	rows, err := m.pool.Query(
		ctx,
		`select `+blockColumns+` from "spec_block"
		 where "spec_id" = $1 order by "name"`,
		specId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := []domain.SpecBlock{}
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

package schema

import (
	"context"
	_ "embed"

	kpool "github.com/lsst-dm/cm-service-sub002/pkg/conn/db/postgres/pool"
)

//go:embed schema.sql
var ddl string

// Apply creates the campaign-management tables if they do not exist.
//
// Statements are idempotent, so Apply is safe to run at every startup.
func Apply(ctx context.Context, pool kpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, ddl); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

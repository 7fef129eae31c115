package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	kpgerr "github.com/lsst-dm/cm-service-sub002/pkg/domain/errors/dberrors"
)

func (m *elementPG) Retry(ctx context.Context, ref domain.ElementRef) (domain.ElementRef, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.ElementRef{}, err
	}
	defer tx.Rollback(ctx)

	old, err := scanElement(tx.QueryRow(
		ctx,
		`select `+elementColumns+` from "element"
		 where "level" = $1 and "element_id" = $2
		 for update`,
		ref.Level.String(), ref.ID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ElementRef{}, kpgerr.Missing{Table: "element", Identity: ref.String()}
		}
		return domain.ElementRef{}, err
	}
	if old.Superseded {
		return domain.ElementRef{}, fmt.Errorf("%w: %s", domain.ErrElementSuperseded, ref)
	}
	if !old.Status.Retryable() {
		return domain.ElementRef{}, fmt.Errorf(
			"%w: %s is %s", domain.ErrNotRetryable, ref, old.Status,
		)
	}

	// The whole old attempt goes: descendants keep their fullnames on
	// the live side of the partial unique index otherwise, and the
	// children created for the new attempt would collide with them.
	const subtree = `
		with recursive "subtree" ("level", "element_id") as (
		    select "level", "element_id" from "element"
		     where "level" = $1 and "element_id" = $2
		    union all
		    select "c"."level", "c"."element_id"
		      from "element" "c"
		     inner join "subtree" "s"
		        on "c"."parent_level" = "s"."level" and "c"."parent_id" = "s"."element_id"
		     where not "c"."superseded"
		)`

	// Close the poll loops of the old attempt first: the subtree walk
	// stops at superseded records.
	if _, err := tx.Exec(
		ctx,
		subtree+`
		 update "queue" set "time_finished" = now(), "time_updated" = now()
		 where ("element_level", "element_id") in (select "level", "element_id" from "subtree")
		   and "time_finished" is null`,
		ref.Level.String(), ref.ID,
	); err != nil {
		return domain.ElementRef{}, err
	}

	if _, err := tx.Exec(
		ctx,
		subtree+`
		 update "element" set "superseded" = true, "updated_at" = now()
		 where ("level", "element_id") in (select "level", "element_id" from "subtree")`,
		ref.Level.String(), ref.ID,
	); err != nil {
		return domain.ElementRef{}, err
	}

	fresh := old
	fresh.Attempt = old.Attempt + 1
	fresh.WmsJobID = ""
	fresh.StampURL = ""
	newRef, err := createTx(ctx, tx, fresh)
	if err != nil {
		return domain.ElementRef{}, err
	}

	// Dependency edges carry over to the new attempt, in both roles.
	if _, err := tx.Exec(
		ctx,
		`insert into "dependency" ("prereq_level", "prereq_id", "depend_level", "depend_id")
		 select $3, $4, "depend_level", "depend_id" from "dependency"
		 where "prereq_level" = $1 and "prereq_id" = $2`,
		ref.Level.String(), ref.ID, newRef.Level.String(), newRef.ID,
	); err != nil {
		return domain.ElementRef{}, err
	}
	if _, err := tx.Exec(
		ctx,
		`insert into "dependency" ("prereq_level", "prereq_id", "depend_level", "depend_id")
		 select "prereq_level", "prereq_id", $3, $4 from "dependency"
		 where "depend_level" = $1 and "depend_id" = $2`,
		ref.Level.String(), ref.ID, newRef.Level.String(), newRef.ID,
	); err != nil {
		return domain.ElementRef{}, err
	}

	// Settled ancestors hold the verdict of the old attempt. Re-open
	// them so the preparing gate lets the new attempt through and the
	// evaluating sweep folds them again once it settles.
	if _, err := tx.Exec(
		ctx,
		`with recursive "ancestry" ("level", "element_id") as (
		    select "parent_level", "parent_id" from "element"
		     where "level" = $1 and "element_id" = $2 and "parent_level" is not null
		    union all
		    select "p"."parent_level", "p"."parent_id"
		      from "element" "p"
		     inner join "ancestry" "a"
		        on "p"."level" = "a"."level" and "p"."element_id" = "a"."element_id"
		     where "p"."parent_level" is not null
		 )
		 update "element" set "status" = $3, "updated_at" = now()
		 where ("level", "element_id") in (select "level", "element_id" from "ancestry")
		   and not "superseded"
		   and "status" in ($4, $5)`,
		ref.Level.String(), ref.ID,
		domain.Running.String(), domain.Failed.String(), domain.Rejected.String(),
	); err != nil {
		return domain.ElementRef{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ElementRef{}, err
	}
	return newRef, nil
}

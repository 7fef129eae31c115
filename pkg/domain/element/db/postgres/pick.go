package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	kpool "github.com/lsst-dm/cm-service-sub002/pkg/conn/db/postgres/pool"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	"github.com/lsst-dm/cm-service-sub002/pkg/utils/slices"
)

// pickElement locks the next live element after the cursor head.
//
// The pick is scoped to the cursor's statuses and levels, skips
// elements locked by concurrent transactions and elements suspended
// by a recent no-change pick.
//
// The lock is `for no key update`: the task may insert children
// referencing the locked row from another connection, and those
// foreign-key checks must not block on the pick.
func pickElement(ctx context.Context, tx kpool.Tx, cursor domain.ElementCursor) (domain.Element, bool, error) {
	statuses := slices.Map(cursor.Statuses, func(s domain.Status) string { return s.String() })
	levels := slices.Map(cursor.Levels, func(l domain.Level) string { return l.String() })

	el, err := scanElement(tx.QueryRow(
		ctx,
		`
		select `+elementColumns+` from "element"
		where
			"status" = any($1::varchar[])
			and (cardinality($2::varchar[]) = 0 or "level" = any($2::varchar[]))
			and not "superseded"
			and "lifecycle_suspend_until" <= now()
		order by
			("level", "element_id") <= ($3, $4),
			"level", "element_id"
		limit 1
		for no key update of "element" skip locked
		`,
		statuses, levels, cursor.Head.Level.String(), cursor.Head.ID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Element{}, false, nil
		}
		return domain.Element{}, false, err
	}
	return el, true, nil
}

func suspend(ctx context.Context, tx kpool.Tx, ref domain.ElementRef, debounce time.Duration) error {
	_, err := tx.Exec(
		ctx,
		`update "element" set "lifecycle_suspend_until" = now() + $1
		 where "level" = $2 and "element_id" = $3`,
		debounce, ref.Level.String(), ref.ID,
	)
	return err
}

func (m *elementPG) PickAndSetStatus(ctx context.Context, cursor domain.ElementCursor, task func(domain.Element) (domain.Status, error)) (domain.ElementCursor, bool, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return cursor, false, err
	}
	defer tx.Rollback(ctx)

	el, ok, err := pickElement(ctx, tx, cursor)
	if err != nil || !ok {
		return cursor, false, err
	}
	newCursor := cursor
	newCursor.Head = el.ElementRef

	newStatus, err := task(el)
	if err != nil {
		return newCursor, false, err
	}

	if newStatus == el.Status {
		// hold this element back so others get picked meanwhile
		if err := suspend(ctx, tx, el.ElementRef, cursor.Debounce); err != nil {
			return newCursor, false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return newCursor, false, err
		}
		return newCursor, false, nil
	}

	// The task's verdict is written as-is. For composites it is a
	// fold over children, not a step of the linear machine.
	if err := writeStatus(ctx, tx, el.ElementRef, newStatus, ""); err != nil {
		return newCursor, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return newCursor, false, err
	}
	return newCursor, true, nil
}

func (m *elementPG) PickAndDispatch(ctx context.Context, cursor domain.ElementCursor, interval time.Duration, submit func(domain.Element) (string, string, error)) (domain.ElementCursor, bool, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return cursor, false, err
	}
	defer tx.Rollback(ctx)

	el, ok, err := pickElement(ctx, tx, cursor)
	if err != nil || !ok {
		return cursor, false, err
	}
	newCursor := cursor
	newCursor.Head = el.ElementRef

	wmsJobId, stampUrl, submitErr := submit(el)
	if submitErr != nil {
		if domain.AsTransientDispatch(submitErr) {
			// leave it ready for a later cycle
			if err := suspend(ctx, tx, el.ElementRef, cursor.Debounce); err != nil {
				return newCursor, false, err
			}
			if err := tx.Commit(ctx); err != nil {
				return newCursor, false, err
			}
			return newCursor, false, submitErr
		}

		if err := writeStatus(ctx, tx, el.ElementRef, domain.Failed, ""); err != nil {
			return newCursor, false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return newCursor, false, err
		}
		return newCursor, true, submitErr
	}

	if _, err := tx.Exec(
		ctx,
		`update "element" set
			"status" = $1, "wms_job_id" = $2, "stamp_url" = $3, "updated_at" = now()
		 where "level" = $4 and "element_id" = $5`,
		domain.Running.String(), wmsJobId, stampUrl,
		el.Level.String(), el.ID,
	); err != nil {
		return newCursor, false, err
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "queue" ("element_level", "element_id", "interval_seconds", "time_next_check")
		values ($1, $2, $3, now() + make_interval(secs => $3))
		on conflict ("element_level", "element_id") where "time_finished" is null
		do nothing
		`,
		el.Level.String(), el.ID, int(interval/time.Second),
	); err != nil {
		return newCursor, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return newCursor, false, err
	}
	return newCursor, true, nil
}

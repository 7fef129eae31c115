package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	kpool "github.com/lsst-dm/cm-service-sub002/pkg/conn/db/postgres/pool"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	kpgerr "github.com/lsst-dm/cm-service-sub002/pkg/domain/errors/dberrors"
)

// lockStatus reads and locks the status of one live element.
func lockStatus(ctx context.Context, tx kpool.Tx, ref domain.ElementRef) (domain.Status, domain.Status, error) {
	var status, statusOnPause string
	if err := tx.QueryRow(
		ctx,
		`select "status", "status_on_pause" from "element"
		 where "level" = $1 and "element_id" = $2 and not "superseded"
		 for update`,
		ref.Level.String(), ref.ID,
	).Scan(&status, &statusOnPause); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", kpgerr.Missing{Table: "element", Identity: ref.String()}
		}
		return "", "", err
	}

	current, err := domain.AsStatus(status)
	if err != nil {
		return "", "", err
	}
	var stashed domain.Status
	if statusOnPause != "" {
		if stashed, err = domain.AsStatus(statusOnPause); err != nil {
			return "", "", err
		}
	}
	return current, stashed, nil
}

func writeStatus(ctx context.Context, tx kpool.Tx, ref domain.ElementRef, newStatus domain.Status, stash domain.Status) error {
	_, err := tx.Exec(
		ctx,
		`update "element" set
			"status" = $1, "status_on_pause" = $2, "updated_at" = now()
		 where "level" = $3 and "element_id" = $4`,
		newStatus.String(), string(stash), ref.Level.String(), ref.ID,
	)
	return err
}

func (m *elementPG) SetStatus(ctx context.Context, ref domain.ElementRef, newStatus domain.Status) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, stash, err := lockStatus(ctx, tx, ref)
	if err != nil {
		return err
	}
	if !domain.CanTransition(current, newStatus) {
		return domain.NewErrInvalidStatusChanging(current, newStatus)
	}
	if newStatus == domain.Paused {
		stash = current
	} else {
		stash = ""
	}
	if err := writeStatus(ctx, tx, ref, newStatus, stash); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (m *elementPG) Finalize(ctx context.Context, ref domain.ElementRef, newStatus domain.Status) error {
	if !newStatus.Terminal() {
		return fmt.Errorf("%w: finalize to %s", domain.ErrInvalidStatusChanging, newStatus)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, _, err := lockStatus(ctx, tx, ref); err != nil {
		return err
	}
	if err := writeStatus(ctx, tx, ref, newStatus, ""); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (m *elementPG) Pause(ctx context.Context, ref domain.ElementRef) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, _, err := lockStatus(ctx, tx, ref)
	if err != nil {
		return err
	}
	if !current.Pausable() {
		return domain.NewErrInvalidStatusChanging(current, domain.Paused)
	}
	if err := writeStatus(ctx, tx, ref, domain.Paused, current); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (m *elementPG) Resume(ctx context.Context, ref domain.ElementRef) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, stash, err := lockStatus(ctx, tx, ref)
	if err != nil {
		return err
	}
	if current != domain.Paused || stash == "" {
		return domain.NewErrInvalidStatusChanging(current, stash)
	}
	if err := writeStatus(ctx, tx, ref, stash, ""); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (m *elementPG) Review(ctx context.Context, ref domain.ElementRef, accept bool) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, _, err := lockStatus(ctx, tx, ref)
	if err != nil {
		return err
	}
	if current != domain.Reviewable {
		return fmt.Errorf("%w: %s is %s", domain.ErrNotReviewable, ref, current)
	}

	verdict := domain.Rejected
	if accept {
		verdict = domain.Accepted
	}
	if err := writeStatus(ctx, tx, ref, verdict, ""); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

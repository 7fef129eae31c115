package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	kpool "github.com/lsst-dm/cm-service-sub002/pkg/conn/db/postgres/pool"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	kdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/queue/db"
	kpgerr "github.com/lsst-dm/cm-service-sub002/pkg/domain/errors/dberrors"
)

// a struct for DB operations related to the recheck queue.
type queuePG struct { // implements kdb.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *queuePG {
	return &queuePG{pool: pool}
}

var _ kdb.Interface = &queuePG{}

const queueColumns = `
	"queue_id", "element_level", "element_id", "interval_seconds",
	"time_created", "time_updated", "time_next_check", "time_finished",
	"poll_failures"
`

func scanEntry(row rowScanner) (domain.QueueEntry, error) {
	var (
		entry           domain.QueueEntry
		level           string
		intervalSeconds int
	)
	if err := row.Scan(
		&entry.ID, &level, &entry.Element.ID, &intervalSeconds,
		&entry.TimeCreated, &entry.TimeUpdated, &entry.TimeNextCheck, &entry.TimeFinished,
		&entry.PollFailures,
	); err != nil {
		return domain.QueueEntry{}, err
	}

	var err error
	if entry.Element.Level, err = domain.AsLevel(level); err != nil {
		return domain.QueueEntry{}, err
	}
	entry.Interval = time.Duration(intervalSeconds) * time.Second
	return entry, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (m *queuePG) Push(ctx context.Context, ref domain.ElementRef, interval time.Duration) error {
	_, err := m.pool.Exec(
		ctx,
		`
		insert into "queue" ("element_level", "element_id", "interval_seconds", "time_next_check")
		values ($1, $2, $3, now() + make_interval(secs => $3))
		on conflict ("element_level", "element_id") where "time_finished" is null
		do nothing
		`,
		ref.Level.String(), ref.ID, int(interval/time.Second),
	)
	return err
}

func (m *queuePG) PickDue(ctx context.Context, task func(domain.QueueEntry) (kdb.Outcome, error)) (bool, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	entry, err := scanEntry(tx.QueryRow(
		ctx,
		`
		select `+queueColumns+` from "queue"
		where "time_finished" is null and "time_next_check" <= now()
		order by "time_next_check"
		limit 1
		for update skip locked
		`,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	outcome, err := task(entry)
	if err != nil {
		return true, err
	}

	switch outcome {
	case kdb.Reschedule:
		_, err = tx.Exec(
			ctx,
			`update "queue" set
				"time_next_check" = now() + make_interval(secs => "interval_seconds"),
				"time_updated" = now(), "poll_failures" = 0
			 where "queue_id" = $1`,
			entry.ID,
		)
	case kdb.FailedPoll:
		_, err = tx.Exec(
			ctx,
			`update "queue" set
				"time_next_check" = now() + make_interval(secs => "interval_seconds"),
				"time_updated" = now(), "poll_failures" = "poll_failures" + 1
			 where "queue_id" = $1`,
			entry.ID,
		)
	case kdb.Settled:
		_, err = tx.Exec(
			ctx,
			`update "queue" set "time_finished" = now(), "time_updated" = now()
			 where "queue_id" = $1`,
			entry.ID,
		)
	default:
		return true, fmt.Errorf("unknown recheck outcome: %s", outcome)
	}
	if err != nil {
		return true, err
	}

	return true, tx.Commit(ctx)
}

func (m *queuePG) Finish(ctx context.Context, ref domain.ElementRef) error {
	_, err := m.pool.Exec(
		ctx,
		`update "queue" set "time_finished" = now(), "time_updated" = now()
		 where "element_level" = $1 and "element_id" = $2 and "time_finished" is null`,
		ref.Level.String(), ref.ID,
	)
	return err
}

func (m *queuePG) Poke(ctx context.Context, ref domain.ElementRef) error {
	_, err := m.pool.Exec(
		ctx,
		`update "queue" set "time_next_check" = now(), "time_updated" = now()
		 where "element_level" = $1 and "element_id" = $2 and "time_finished" is null`,
		ref.Level.String(), ref.ID,
	)
	return err
}

func (m *queuePG) Get(ctx context.Context, ref domain.ElementRef) (domain.QueueEntry, error) {
	entry, err := scanEntry(m.pool.QueryRow(
		ctx,
		`select `+queueColumns+` from "queue"
		 where "element_level" = $1 and "element_id" = $2 and "time_finished" is null`,
		ref.Level.String(), ref.ID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.QueueEntry{}, kpgerr.Missing{Table: "queue", Identity: ref.String()}
		}
		return domain.QueueEntry{}, err
	}
	return entry, nil
}

package postgres

import (
	"context"
	"encoding/json"

	kpool "github.com/lsst-dm/cm-service-sub002/pkg/conn/db/postgres/pool"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	kdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db"
)

// a struct for DB operations related to the activity log.
type activityPG struct { // implements kdb.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *activityPG {
	return &activityPG{pool: pool}
}

var _ kdb.Interface = &activityPG{}

func (m *activityPG) Append(ctx context.Context, ev domain.ActivityEvent) error {
	detail := []byte("{}")
	if ev.Detail != nil {
		var err error
		if detail, err = json.Marshal(ev.Detail); err != nil {
			return err
		}
	}
	_, err := m.pool.Exec(
		ctx,
		`insert into "activity_log" ("fullname", "from_status", "to_status", "detail")
		 values ($1, $2, $3, $4::jsonb)`,
		ev.Fullname, ev.From.String(), ev.To.String(), detail,
	)
	return err
}

func (m *activityPG) For(ctx context.Context, fullname string) ([]domain.ActivityEvent, error) {
	rows, err := m.pool.Query(
		ctx,
		`select "event_id", "fullname", "from_status", "to_status", "detail", "timestamp"
		 from "activity_log"
		 where "fullname" = $1
		 order by "timestamp", "event_id"`,
		fullname,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.ActivityEvent{}
	for rows.Next() {
		var ev domain.ActivityEvent
		var from, to string
		var detail []byte
		if err := rows.Scan(&ev.ID, &ev.Fullname, &from, &to, &detail, &ev.Timestamp); err != nil {
			return nil, err
		}
		if from != "" { // creation events have no prior status
			if ev.From, err = domain.AsStatus(from); err != nil {
				return nil, err
			}
		}
		if ev.To, err = domain.AsStatus(to); err != nil {
			return nil, err
		}
		if len(detail) != 0 {
			if err := json.Unmarshal(detail, &ev.Detail); err != nil {
				return nil, err
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

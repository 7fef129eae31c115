package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	kpool "github.com/lsst-dm/cm-service-sub002/pkg/conn/db/postgres/pool"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	kpgerr "github.com/lsst-dm/cm-service-sub002/pkg/domain/errors/dberrors"
	kdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/report/db"
)

// a struct for DB operations related to execution reports.
type reportPG struct { // implements kdb.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *reportPG {
	return &reportPG{pool: pool}
}

var _ kdb.Interface = &reportPG{}

func (m *reportPG) PutWmsReport(ctx context.Context, report domain.WmsTaskReport) error {
	c := report.Counts
	_, err := m.pool.Exec(
		ctx,
		`
		insert into "wms_task_report" (
			"element_level", "element_id", "wms_job_id",
			"n_unknown", "n_misfit", "n_unready", "n_ready", "n_pending",
			"n_running", "n_deleted", "n_held", "n_succeeded", "n_failed", "n_pruned"
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		on conflict ("element_level", "element_id") do update set
			"wms_job_id" = excluded."wms_job_id",
			"n_unknown" = excluded."n_unknown",
			"n_misfit" = excluded."n_misfit",
			"n_unready" = excluded."n_unready",
			"n_ready" = excluded."n_ready",
			"n_pending" = excluded."n_pending",
			"n_running" = excluded."n_running",
			"n_deleted" = excluded."n_deleted",
			"n_held" = excluded."n_held",
			"n_succeeded" = excluded."n_succeeded",
			"n_failed" = excluded."n_failed",
			"n_pruned" = excluded."n_pruned",
			"updated_at" = now()
		`,
		report.Element.Level.String(), report.Element.ID, report.WmsJobID,
		c.NUnknown, c.NMisfit, c.NUnready, c.NReady, c.NPending,
		c.NRunning, c.NDeleted, c.NHeld, c.NSucceeded, c.NFailed, c.NPruned,
	)
	return err
}

func (m *reportPG) GetWmsReport(ctx context.Context, ref domain.ElementRef) (domain.WmsTaskReport, error) {
	report := domain.WmsTaskReport{Element: ref}
	c := &report.Counts
	if err := m.pool.QueryRow(
		ctx,
		`
		select
			"wms_job_id",
			"n_unknown", "n_misfit", "n_unready", "n_ready", "n_pending",
			"n_running", "n_deleted", "n_held", "n_succeeded", "n_failed", "n_pruned",
			"updated_at"
		from "wms_task_report"
		where "element_level" = $1 and "element_id" = $2
		`,
		ref.Level.String(), ref.ID,
	).Scan(
		&report.WmsJobID,
		&c.NUnknown, &c.NMisfit, &c.NUnready, &c.NReady, &c.NPending,
		&c.NRunning, &c.NDeleted, &c.NHeld, &c.NSucceeded, &c.NFailed, &c.NPruned,
		&report.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WmsTaskReport{}, kpgerr.Missing{
				Table: "wms_task_report", Identity: ref.String(),
			}
		}
		return domain.WmsTaskReport{}, err
	}
	return report, nil
}

// mergeCounterSets upserts counter rows into table, keeping each
// counter at its historical maximum.
func (m *reportPG) mergeCounterSets(
	ctx context.Context, table string,
	refs []domain.ElementRef, names []string, counters []domain.Counters,
) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range refs {
		c := counters[i]
		if _, err := tx.Exec(
			ctx,
			`
			insert into "`+table+`" (
				"element_level", "element_id", "name",
				"n_expected", "n_done", "n_failed", "n_failed_upstream", "n_missing"
			) values ($1, $2, $3, $4, $5, $6, $7, $8)
			on conflict ("element_level", "element_id", "name") do update set
				"n_expected" = greatest("`+table+`"."n_expected", excluded."n_expected"),
				"n_done" = greatest("`+table+`"."n_done", excluded."n_done"),
				"n_failed" = greatest("`+table+`"."n_failed", excluded."n_failed"),
				"n_failed_upstream" = greatest("`+table+`"."n_failed_upstream", excluded."n_failed_upstream"),
				"n_missing" = greatest("`+table+`"."n_missing", excluded."n_missing")
			`,
			refs[i].Level.String(), refs[i].ID, names[i],
			c.NExpected, c.NDone, c.NFailed, c.NFailedUpstream, c.NMissing,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (m *reportPG) MergeTaskSets(ctx context.Context, sets []domain.TaskSet) error {
	refs := make([]domain.ElementRef, len(sets))
	names := make([]string, len(sets))
	counters := make([]domain.Counters, len(sets))
	for i, s := range sets {
		refs[i], names[i], counters[i] = s.Element, s.Name, s.Counters
	}
	return m.mergeCounterSets(ctx, "task_set", refs, names, counters)
}

func (m *reportPG) MergeProductSets(ctx context.Context, sets []domain.ProductSet) error {
	refs := make([]domain.ElementRef, len(sets))
	names := make([]string, len(sets))
	counters := make([]domain.Counters, len(sets))
	for i, s := range sets {
		refs[i], names[i], counters[i] = s.Element, s.Name, s.Counters
	}
	return m.mergeCounterSets(ctx, "product_set", refs, names, counters)
}

func (m *reportPG) queryCounterSets(ctx context.Context, table string, ref domain.ElementRef) ([]string, []domain.Counters, error) {
	rows, err := m.pool.Query(
		ctx,
		`
		select "name", "n_expected", "n_done", "n_failed", "n_failed_upstream", "n_missing"
		from "`+table+`"
		where "element_level" = $1 and "element_id" = $2
		order by "name"
		`,
		ref.Level.String(), ref.ID,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	names := []string{}
	counters := []domain.Counters{}
	for rows.Next() {
		var name string
		var c domain.Counters
		if err := rows.Scan(&name, &c.NExpected, &c.NDone, &c.NFailed, &c.NFailedUpstream, &c.NMissing); err != nil {
			return nil, nil, err
		}
		names = append(names, name)
		counters = append(counters, c)
	}
	return names, counters, nil
}

func (m *reportPG) TaskSetsFor(ctx context.Context, ref domain.ElementRef) ([]domain.TaskSet, error) {
	names, counters, err := m.queryCounterSets(ctx, "task_set", ref)
	if err != nil {
		return nil, err
	}
	sets := make([]domain.TaskSet, len(names))
	for i := range names {
		sets[i] = domain.TaskSet{Element: ref, Name: names[i], Counters: counters[i]}
	}
	return sets, nil
}

func (m *reportPG) ProductSetsFor(ctx context.Context, ref domain.ElementRef) ([]domain.ProductSet, error) {
	names, counters, err := m.queryCounterSets(ctx, "product_set", ref)
	if err != nil {
		return nil, err
	}
	sets := make([]domain.ProductSet, len(names))
	for i := range names {
		sets[i] = domain.ProductSet{Element: ref, Name: names[i], Counters: counters[i]}
	}
	return sets, nil
}

func (m *reportPG) AddErrors(ctx context.Context, errs []domain.PipetaskError) error {
	if len(errs) == 0 {
		return nil
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	types, err := errorTypes(ctx, tx)
	if err != nil {
		return err
	}
	classified := domain.Classify(errs, types)

	for _, e := range classified {
		dataId, err := json.Marshal(e.DataID)
		if err != nil {
			return err
		}
		if e.DataID == nil {
			dataId = []byte("{}")
		}
		if _, err := tx.Exec(
			ctx,
			`
			insert into "pipetask_error" (
				"error_type_id", "element_level", "element_id",
				"task_name", "quanta", "diagnostic_message", "data_id"
			) values ($1, $2, $3, $4, $5, $6, $7::jsonb)
			`,
			e.ErrorTypeID, e.Element.Level.String(), e.Element.ID,
			e.TaskName, e.Quanta, e.DiagnosticMessage, dataId,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func errorTypes(ctx context.Context, q kpool.Queryer) ([]domain.PipetaskErrorType, error) {
	rows, err := q.Query(
		ctx,
		`select "error_type_id", "task_name", "diagnostic_match", "resolved"
		 from "pipetask_error_type" order by "error_type_id"`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []domain.PipetaskErrorType{}
	for rows.Next() {
		var t domain.PipetaskErrorType
		if err := rows.Scan(&t.ID, &t.TaskName, &t.DiagnosticMatch, &t.Resolved); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func (m *reportPG) ErrorTypes(ctx context.Context) ([]domain.PipetaskErrorType, error) {
	return errorTypes(ctx, m.pool)
}

func (m *reportPG) PutErrorType(ctx context.Context, t domain.PipetaskErrorType) (int64, error) {
	var id int64
	if err := m.pool.QueryRow(
		ctx,
		`insert into "pipetask_error_type" ("task_name", "diagnostic_match", "resolved")
		 values ($1, $2, $3)
		 returning "error_type_id"`,
		t.TaskName, t.DiagnosticMatch, t.Resolved,
	).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (m *reportPG) ErrorsFor(ctx context.Context, ref domain.ElementRef) ([]domain.PipetaskError, error) {
	rows, err := m.pool.Query(
		ctx,
		`
		select "error_id", "error_type_id", "task_name", "quanta", "diagnostic_message", "data_id"
		from "pipetask_error"
		where "element_level" = $1 and "element_id" = $2
		order by "error_id"
		`,
		ref.Level.String(), ref.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	errs := []domain.PipetaskError{}
	for rows.Next() {
		e := domain.PipetaskError{Element: ref}
		var dataId []byte
		if err := rows.Scan(&e.ID, &e.ErrorTypeID, &e.TaskName, &e.Quanta, &e.DiagnosticMessage, &dataId); err != nil {
			return nil, err
		}
		if len(dataId) != 0 {
			if err := json.Unmarshal(dataId, &e.DataID); err != nil {
				return nil, err
			}
		}
		errs = append(errs, e)
	}
	return errs, nil
}

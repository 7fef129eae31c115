package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	kpool "github.com/lsst-dm/cm-service-sub002/pkg/conn/db/postgres/pool"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	kpgerr "github.com/lsst-dm/cm-service-sub002/pkg/domain/errors/dberrors"
)

// lockEdgeEnd reads and locks one endpoint of a dependency edge,
// returning its parent. Locking both endpoints serializes concurrent
// edge insertions over the same sibling set, so the cycle check sees
// every committed edge.
func lockEdgeEnd(ctx context.Context, tx kpool.Tx, ref domain.ElementRef) (domain.ElementRef, error) {
	var parentLevel *string
	var parentId *int64
	if err := tx.QueryRow(
		ctx,
		`select "parent_level", "parent_id" from "element"
		 where "level" = $1 and "element_id" = $2 and not "superseded"
		 for update`,
		ref.Level.String(), ref.ID,
	).Scan(&parentLevel, &parentId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ElementRef{}, kpgerr.Missing{Table: "element", Identity: ref.String()}
		}
		return domain.ElementRef{}, err
	}

	if parentLevel == nil || parentId == nil {
		return domain.ElementRef{}, nil
	}
	pl, err := domain.AsLevel(*parentLevel)
	if err != nil {
		return domain.ElementRef{}, err
	}
	return domain.ElementRef{Level: pl, ID: *parentId}, nil
}

// siblingEdges lists the committed edges among the children of parent.
func siblingEdges(ctx context.Context, tx kpool.Tx, parent domain.ElementRef) ([]domain.Dependency, error) {
	rows, err := tx.Query(
		ctx,
		`
		select "d"."prereq_level", "d"."prereq_id", "d"."depend_level", "d"."depend_id"
		from "dependency" as "d"
		inner join "element" as "e" on
			"e"."level" = "d"."depend_level" and "e"."element_id" = "d"."depend_id"
		where "e"."parent_level" = $1 and "e"."parent_id" = $2
		`,
		parent.Level.String(), parent.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := []domain.Dependency{}
	for rows.Next() {
		var prereqLevel, dependLevel string
		var dep domain.Dependency
		if err := rows.Scan(&prereqLevel, &dep.Prereq.ID, &dependLevel, &dep.Depend.ID); err != nil {
			return nil, err
		}
		if dep.Prereq.Level, err = domain.AsLevel(prereqLevel); err != nil {
			return nil, err
		}
		if dep.Depend.Level, err = domain.AsLevel(dependLevel); err != nil {
			return nil, err
		}
		edges = append(edges, dep)
	}
	return edges, nil
}

func (m *elementPG) AddDependency(ctx context.Context, dep domain.Dependency) error {
	if dep.Prereq == dep.Depend {
		return domain.ErrSelfDependency
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	prereqParent, err := lockEdgeEnd(ctx, tx, dep.Prereq)
	if err != nil {
		return err
	}
	dependParent, err := lockEdgeEnd(ctx, tx, dep.Depend)
	if err != nil {
		return err
	}
	if prereqParent != dependParent || dep.Prereq.Level != dep.Depend.Level {
		return fmt.Errorf("dependency endpoints are not siblings: %s", dep)
	}

	edges, err := siblingEdges(ctx, tx, dependParent)
	if err != nil {
		return err
	}
	if err := domain.DetectCycle(edges, dep); err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`insert into "dependency" ("prereq_level", "prereq_id", "depend_level", "depend_id")
		 values ($1, $2, $3, $4)`,
		dep.Prereq.Level.String(), dep.Prereq.ID,
		dep.Depend.Level.String(), dep.Depend.ID,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateDependency, dep)
		}
		return err
	}
	return tx.Commit(ctx)
}

func (m *elementPG) Satisfied(ctx context.Context, ref domain.ElementRef) (bool, error) {
	// A prerequisite holds when the recorded endpoint is accepted, or
	// when it was superseded and its live replacement (same parent and
	// name, higher attempt) is accepted.
	var unsatisfied int
	if err := m.pool.QueryRow(
		ctx,
		`
		select count(*) from "dependency" as "d"
		inner join "element" as "p" on
			"p"."level" = "d"."prereq_level" and "p"."element_id" = "d"."prereq_id"
		where
			"d"."depend_level" = $1 and "d"."depend_id" = $2
			and "p"."status" != $3
			and not exists (
				select 1 from "element" as "r"
				where "p"."superseded"
					and "r"."parent_level" = "p"."parent_level"
					and "r"."parent_id" = "p"."parent_id"
					and "r"."name" = "p"."name"
					and not "r"."superseded"
					and "r"."status" = $3
			)
		`,
		ref.Level.String(), ref.ID, domain.Accepted.String(),
	).Scan(&unsatisfied); err != nil {
		return false, err
	}
	return unsatisfied == 0, nil
}

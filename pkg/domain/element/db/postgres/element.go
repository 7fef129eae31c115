package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	kpool "github.com/lsst-dm/cm-service-sub002/pkg/conn/db/postgres/pool"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	kdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db"
	kpgerr "github.com/lsst-dm/cm-service-sub002/pkg/domain/errors/dberrors"
)

// a struct for DB operations related to elements.
type elementPG struct { // implements kdb.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *elementPG {
	return &elementPG{pool: pool}
}

var _ kdb.Interface = &elementPG{}

const elementColumns = `
	"level", "element_id", "name", "fullname",
	"parent_level", "parent_id",
	"status", "status_on_pause", "superseded",
	"handler", "spec_block",
	"data", "child_config", "collections", "spec_aliases", "metadata",
	"attempt", "wms_job_id", "stamp_url", "updated_at"
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanElement(row rowScanner) (domain.Element, error) {
	var (
		el            domain.Element
		level         string
		parentLevel   *string
		parentId      *int64
		status        string
		statusOnPause string
		wmsJobId      *string
		stampUrl      *string

		data, childConfig, collections, specAliases, metadata []byte
	)
	if err := row.Scan(
		&level, &el.ID, &el.Name, &el.Fullname,
		&parentLevel, &parentId,
		&status, &statusOnPause, &el.Superseded,
		&el.Handler, &el.SpecBlock,
		&data, &childConfig, &collections, &specAliases, &metadata,
		&el.Attempt, &wmsJobId, &stampUrl, &el.UpdatedAt,
	); err != nil {
		return domain.Element{}, err
	}

	var err error
	if el.Level, err = domain.AsLevel(level); err != nil {
		return domain.Element{}, err
	}
	if el.Status, err = domain.AsStatus(status); err != nil {
		return domain.Element{}, err
	}
	if statusOnPause != "" {
		if el.StatusOnPause, err = domain.AsStatus(statusOnPause); err != nil {
			return domain.Element{}, err
		}
	}
	if parentLevel != nil && parentId != nil {
		pl, err := domain.AsLevel(*parentLevel)
		if err != nil {
			return domain.Element{}, err
		}
		el.Parent = domain.ElementRef{Level: pl, ID: *parentId}
	}
	if wmsJobId != nil {
		el.WmsJobID = *wmsJobId
	}
	if stampUrl != nil {
		el.StampURL = *stampUrl
	}

	for _, doc := range []struct {
		raw  []byte
		dest *domain.Document
	}{
		{data, &el.Data},
		{childConfig, &el.ChildConfig},
		{collections, &el.Collections},
		{specAliases, &el.SpecAliases},
		{metadata, &el.Metadata},
	} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.dest); err != nil {
			return domain.Element{}, err
		}
	}

	return el, nil
}

func marshalDoc(d domain.Document) ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

func (m *elementPG) Create(ctx context.Context, el domain.Element) (domain.ElementRef, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.ElementRef{}, err
	}
	defer tx.Rollback(ctx)

	ref, err := createTx(ctx, tx, el)
	if err != nil {
		return domain.ElementRef{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ElementRef{}, err
	}
	return ref, nil
}

// createTx inserts an element within tx, used by Create and Retry.
func createTx(ctx context.Context, tx kpool.Tx, el domain.Element) (domain.ElementRef, error) {
	fullname := el.Name
	var parentLevel *string
	var parentId *int64
	if !el.Parent.Zero() {
		if !el.Parent.Level.ParentOf(el.Level) {
			return domain.ElementRef{}, fmt.Errorf(
				"%s cannot own a %s", el.Parent.Level, el.Level,
			)
		}
		var parentFullname string
		if err := tx.QueryRow(
			ctx,
			`select "fullname" from "element"
			 where "level" = $1 and "element_id" = $2 and not "superseded"`,
			el.Parent.Level.String(), el.Parent.ID,
		).Scan(&parentFullname); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ElementRef{}, kpgerr.Missing{
					Table: "element", Identity: el.Parent.String(),
				}
			}
			return domain.ElementRef{}, err
		}
		fullname = parentFullname + "/" + el.Name
		pl := el.Parent.Level.String()
		pid := el.Parent.ID
		parentLevel, parentId = &pl, &pid
	} else if el.Level != domain.Campaign {
		return domain.ElementRef{}, fmt.Errorf("a %s must have a parent", el.Level)
	}

	data, err := marshalDoc(el.Data)
	if err != nil {
		return domain.ElementRef{}, err
	}
	childConfig, err := marshalDoc(el.ChildConfig)
	if err != nil {
		return domain.ElementRef{}, err
	}
	collections, err := marshalDoc(el.Collections)
	if err != nil {
		return domain.ElementRef{}, err
	}
	specAliases, err := marshalDoc(el.SpecAliases)
	if err != nil {
		return domain.ElementRef{}, err
	}
	metadata, err := marshalDoc(el.Metadata)
	if err != nil {
		return domain.ElementRef{}, err
	}

	var id int64
	if err := tx.QueryRow(
		ctx,
		`
		insert into "element" (
			"level", "name", "fullname", "parent_level", "parent_id",
			"status", "handler", "spec_block",
			"data", "child_config", "collections", "spec_aliases", "metadata",
			"attempt"
		) values (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9::jsonb, $10::jsonb, $11::jsonb, $12::jsonb, $13::jsonb,
			$14
		)
		returning "element_id"
		`,
		el.Level.String(), el.Name, fullname, parentLevel, parentId,
		domain.Waiting.String(), el.Handler, el.SpecBlock,
		data, childConfig, collections, specAliases, metadata,
		el.Attempt,
	).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ElementRef{}, fmt.Errorf(
				"%w: %s", domain.ErrNameCollision, fullname,
			)
		}
		return domain.ElementRef{}, err
	}

	return domain.ElementRef{Level: el.Level, ID: id}, nil
}

func (m *elementPG) Get(ctx context.Context, refs []domain.ElementRef) (map[domain.ElementRef]domain.Element, error) {
	levels := make([]string, len(refs))
	ids := make([]int64, len(refs))
	for i, r := range refs {
		levels[i] = r.Level.String()
		ids[i] = r.ID
	}

	rows, err := m.pool.Query(
		ctx,
		`select `+elementColumns+` from "element"
		 where ("level", "element_id") in (select * from unnest($1::varchar[], $2::bigint[]))`,
		levels, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := map[domain.ElementRef]domain.Element{}
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		found[el.ElementRef] = el
	}
	return found, nil
}

func (m *elementPG) GetByFullname(ctx context.Context, fullname string) (domain.Element, error) {
	el, err := scanElement(m.pool.QueryRow(
		ctx,
		`select `+elementColumns+` from "element"
		 where "fullname" = $1 and not "superseded"`,
		fullname,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Element{}, kpgerr.Missing{
				Table: "element", Identity: fmt.Sprintf("fullname = %s", fullname),
			}
		}
		return domain.Element{}, err
	}
	return el, nil
}

func (m *elementPG) ChildrenOf(ctx context.Context, parent domain.ElementRef) ([]domain.Element, error) {
	rows, err := m.pool.Query(
		ctx,
		`select `+elementColumns+` from "element"
		 where "parent_level" = $1 and "parent_id" = $2 and not "superseded"
		 order by "element_id"`,
		parent.Level.String(), parent.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	children := []domain.Element{}
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, el)
	}
	return children, nil
}

func (m *elementPG) AncestorsOf(ctx context.Context, ref domain.ElementRef) ([]domain.Element, error) {
	rows, err := m.pool.Query(
		ctx,
		`
		with recursive "lineage" as (
			select `+elementColumns+` from "element"
			where "level" = $1 and "element_id" = $2

			union all

			select `+qualified(`e`, elementColumns)+` from "element" as "e"
			inner join "lineage" on
				"e"."level" = "lineage"."parent_level"
				and "e"."element_id" = "lineage"."parent_id"
		)
		select `+elementColumns+` from "lineage"
		where not ("level" = $1 and "element_id" = $2)
		`,
		ref.Level.String(), ref.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ancestors := []domain.Element{}
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		ancestors = append(ancestors, el)
	}

	// root first
	sort.Slice(ancestors, func(i, j int) bool {
		return ancestors[i].Level.Depth() < ancestors[j].Level.Depth()
	})
	return ancestors, nil
}

// qualified prefixes each column of columns with a table alias.
func qualified(alias string, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = `"` + alias + `".` + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	kpgerr "github.com/chrisstore/store/pkg/conn/db/postgres/errors"
	kpool "github.com/chrisstore/store/pkg/conn/db/postgres/pool"
	"github.com/chrisstore/store/pkg/conn/db/postgres/scanner"
	"github.com/chrisstore/store/pkg/domain"
	marshal "github.com/chrisstore/store/pkg/domain/internal/db/postgres"
	kdb "github.com/chrisstore/store/pkg/domain/pipeline/db"
	"github.com/chrisstore/store/pkg/domain/pipetree"
	xe "github.com/chrisstore/store/pkg/errors"
)

type pipelinePG struct { // implements kdb.PipelineInterface
	pool kpool.Pool
}

var _ kdb.PipelineInterface = &pipelinePG{}

func New(pool kpool.Pool) *pipelinePG {
	return &pipelinePG{pool: pool}
}

type pipelineRow struct {
	Id          int
	Name        string
	Locked      bool
	Authors     string
	Category    string
	Description string
	Owner       string
	CreatedAt   time.Time `sql:"creation_date"`
	ModifiedAt  time.Time `sql:"modification_date"`
}

func (r pipelineRow) toDomain() *domain.Pipeline {
	return &domain.Pipeline{
		Id:          r.Id,
		Name:        r.Name,
		Locked:      r.Locked,
		Authors:     r.Authors,
		Category:    r.Category,
		Description: r.Description,
		Owner:       r.Owner,
		CreatedAt:   r.CreatedAt,
		ModifiedAt:  r.ModifiedAt,
	}
}

type pipingRow struct {
	Id         int
	PipelineId int
	PluginId   int
	PreviousId pgtype.Int4
	Title      string
}

func (r pipingRow) toDomain() domain.Piping {
	p := domain.Piping{
		Id:         r.Id,
		PipelineId: r.PipelineId,
		PluginId:   r.PluginId,
		Title:      r.Title,
	}
	if r.PreviousId.Status == pgtype.Present {
		prev := int(r.PreviousId.Int)
		p.PreviousId = &prev
	}
	return p
}

type defaultRow struct {
	PipingId     int
	ParameterId  int
	Name         string
	Type         string
	ValueString  pgtype.Text
	ValueInteger pgtype.Int4
	ValueFloat   pgtype.Float8
	ValueBoolean pgtype.Bool
}

func (r defaultRow) toDomain() domain.PipingDefault {
	typ := domain.ParameterType(r.Type)
	return domain.PipingDefault{
		PipingId:    r.PipingId,
		ParameterId: r.ParameterId,
		Name:        r.Name,
		Type:        typ,
		Value: marshal.Columns{
			String:  r.ValueString,
			Integer: r.ValueInteger,
			Float:   r.ValueFloat,
			Boolean: r.ValueBoolean,
		}.Value(typ),
	}
}

const returningPipeline = `
returning
	"id", "name", "locked", "authors", "category", "description", "owner",
	"creation_date", "modification_date"
`

const selectDefaults = `
select
	"d"."piping_id", "d"."parameter_id", "p"."name", "d"."type"::text as "type",
	"d"."value_string", "d"."value_integer", "d"."value_float", "d"."value_boolean"
from "piping_default" as "d"
inner join "plugin_parameter" as "p" on "p"."id" = "d"."parameter_id"
`

func duplicatedName(err error) error {
	if constraint, ok := kpgerr.UniqueViolation(err); ok && constraint == "pipeline_name_key" {
		return xe.Wrap(fmt.Errorf("%w (%s)", domain.ErrDuplicatePipeline, err))
	}
	return xe.Wrap(err)
}

func (m *pipelinePG) Register(
	ctx context.Context, spec *domain.PipelineSpec, tree *pipetree.Tree, plugins map[int]*domain.Plugin,
) (int, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return 0, xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	var pipelineId int
	if err := tx.QueryRow(
		ctx,
		`
		insert into "pipeline" ("name", "locked", "authors", "category", "description", "owner")
		values ($1, $2, $3, $4, $5, $6)
		returning "id"
		`,
		spec.Name, spec.Locked, spec.Authors, spec.Category, spec.Description, spec.Owner,
	).Scan(&pipelineId); err != nil {
		return 0, duplicatedName(err)
	}

	if _, err := pipetree.Materialize(ctx, &txWriter{tx: tx}, pipelineId, tree, plugins); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, duplicatedName(err)
	}
	return pipelineId, nil
}

func (m *pipelinePG) ExistsName(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := m.pool.QueryRow(
		ctx, `select exists (select 1 from "pipeline" where "name" = $1)`, name,
	).Scan(&exists); err != nil {
		return false, xe.Wrap(err)
	}
	return exists, nil
}

func (m *pipelinePG) Get(ctx context.Context, pipelineId int) (*domain.Pipeline, error) {
	rows, err := scanner.New[pipelineRow]().QueryAll(
		ctx, m.pool,
		`
		select
			"id", "name", "locked", "authors", "category", "description", "owner",
			"creation_date", "modification_date"
		from "pipeline" where "id" = $1
		`,
		pipelineId,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	if len(rows) == 0 {
		return nil, kpgerr.Missing{Table: "pipeline", Identity: fmt.Sprintf("id=%d", pipelineId)}
	}
	return rows[0].toDomain(), nil
}

func (m *pipelinePG) Update(ctx context.Context, pipelineId int, update domain.PipelineUpdate) (*domain.Pipeline, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	rows, err := scanner.New[pipelineRow]().QueryAll(
		ctx, tx,
		`
		update "pipeline" set
			"name" = coalesce($2, "name"),
			"locked" = coalesce($3, "locked"),
			"authors" = coalesce($4, "authors"),
			"category" = coalesce($5, "category"),
			"description" = coalesce($6, "description"),
			"modification_date" = now()
		where "id" = $1
		`+returningPipeline,
		pipelineId, update.Name, update.Locked, update.Authors, update.Category, update.Description,
	)
	if err != nil {
		return nil, duplicatedName(err)
	}
	if len(rows) == 0 {
		return nil, kpgerr.Missing{Table: "pipeline", Identity: fmt.Sprintf("id=%d", pipelineId)}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, duplicatedName(err)
	}
	return rows[0].toDomain(), nil
}

func (m *pipelinePG) Pipings(ctx context.Context, pipelineId int) ([]domain.Piping, error) {
	rows, err := scanner.New[pipingRow]().QueryAll(
		ctx, m.pool,
		`
		select "id", "pipeline_id", "plugin_id", "previous_id", "title"
		from "plugin_piping" where "pipeline_id" = $1
		order by "id"
		`,
		pipelineId,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	ret := make([]domain.Piping, 0, len(rows))
	for _, r := range rows {
		ret = append(ret, r.toDomain())
	}
	return ret, nil
}

func (m *pipelinePG) GetPiping(ctx context.Context, pipingId int) (*domain.Piping, error) {
	rows, err := scanner.New[pipingRow]().QueryAll(
		ctx, m.pool,
		`
		select "id", "pipeline_id", "plugin_id", "previous_id", "title"
		from "plugin_piping" where "id" = $1
		`,
		pipingId,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	if len(rows) == 0 {
		return nil, kpgerr.Missing{Table: "plugin_piping", Identity: fmt.Sprintf("id=%d", pipingId)}
	}
	p := rows[0].toDomain()
	return &p, nil
}

func (m *pipelinePG) Defaults(ctx context.Context, pipelineId int) (map[int][]domain.PipingDefault, error) {
	rows, err := scanner.New[defaultRow]().QueryAll(
		ctx, m.pool,
		selectDefaults+`
		inner join "plugin_piping" as "pp" on "pp"."id" = "d"."piping_id"
		where "pp"."pipeline_id" = $1
		order by "d"."piping_id", "d"."parameter_id"
		`,
		pipelineId,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	ret := map[int][]domain.PipingDefault{}
	for _, r := range rows {
		ret[r.PipingId] = append(ret[r.PipingId], r.toDomain())
	}
	return ret, nil
}

func (m *pipelinePG) SaveDefaults(
	ctx context.Context, piping domain.Piping, plugin *domain.Plugin, overrides []pipetree.ParameterDefault,
) ([]domain.PipingDefault, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	saved, err := pipetree.AttachDefaults(ctx, &txWriter{tx: tx}, piping, plugin, overrides)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		ctx, `update "pipeline" set "modification_date" = now() where "id" = $1`, piping.PipelineId,
	); err != nil {
		return nil, xe.Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, xe.Wrap(err)
	}
	return saved, nil
}

// txWriter writes pipings in a transaction.
type txWriter struct {
	tx kpool.Tx
}

var _ pipetree.Writer = &txWriter{}

func (w *txWriter) CreatePiping(ctx context.Context, piping domain.Piping) (*domain.Piping, error) {
	created := piping
	if err := w.tx.QueryRow(
		ctx,
		`
		insert into "plugin_piping" ("pipeline_id", "plugin_id", "previous_id", "title")
		values ($1, $2, $3, $4)
		returning "id"
		`,
		piping.PipelineId, piping.PluginId, piping.PreviousId, piping.Title,
	).Scan(&created.Id); err != nil {
		if constraint, ok := kpgerr.ForeignKeyViolation(err); ok {
			return nil, xe.Wrap(fmt.Errorf("%w: %s (%s)", domain.ErrNotFound, constraint, err))
		}
		return nil, xe.Wrap(err)
	}
	return &created, nil
}

func (w *txWriter) GetPipingDefaults(ctx context.Context, pipingId int) ([]domain.PipingDefault, error) {
	rows, err := scanner.New[defaultRow]().QueryAll(
		ctx, w.tx,
		selectDefaults+`where "d"."piping_id" = $1 order by "d"."parameter_id"`,
		pipingId,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	ret := make([]domain.PipingDefault, 0, len(rows))
	for _, r := range rows {
		ret = append(ret, r.toDomain())
	}
	return ret, nil
}

func (w *txWriter) CreatePipingDefault(ctx context.Context, d domain.PipingDefault) error {
	cols, err := marshal.ToColumns(d.Type, d.Value)
	if err != nil {
		return err
	}
	if _, err := w.tx.Exec(
		ctx,
		`
		insert into "piping_default" (
			"piping_id", "parameter_id", "type",
			"value_string", "value_integer", "value_float", "value_boolean"
		)
		values ($1, $2, $3, $4, $5, $6, $7)
		`,
		d.PipingId, d.ParameterId, string(d.Type),
		cols.String, cols.Integer, cols.Float, cols.Boolean,
	); err != nil {
		return xe.Wrap(err)
	}
	return nil
}

func (w *txWriter) UpdatePipingDefault(ctx context.Context, d domain.PipingDefault) error {
	cols, err := marshal.ToColumns(d.Type, d.Value)
	if err != nil {
		return err
	}
	tag, err := w.tx.Exec(
		ctx,
		`
		update "piping_default" set
			"value_string" = $3, "value_integer" = $4, "value_float" = $5, "value_boolean" = $6
		where "piping_id" = $1 and "parameter_id" = $2
		`,
		d.PipingId, d.ParameterId,
		cols.String, cols.Integer, cols.Float, cols.Boolean,
	)
	if err != nil {
		return xe.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table:    "piping_default",
			Identity: fmt.Sprintf("piping_id=%d, parameter_id=%d", d.PipingId, d.ParameterId),
		}
	}
	return nil
}

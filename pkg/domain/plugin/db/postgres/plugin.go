package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	kpgerr "github.com/chrisstore/store/pkg/conn/db/postgres/errors"
	kpool "github.com/chrisstore/store/pkg/conn/db/postgres/pool"
	"github.com/chrisstore/store/pkg/conn/db/postgres/scanner"
	"github.com/chrisstore/store/pkg/domain"
	marshal "github.com/chrisstore/store/pkg/domain/internal/db/postgres"
	kdb "github.com/chrisstore/store/pkg/domain/plugin/db"
	xe "github.com/chrisstore/store/pkg/errors"
)

type pluginPG struct { // implements kdb.PluginInterface
	pool kpool.Pool
}

var _ kdb.PluginInterface = &pluginPG{}

func New(pool kpool.Pool) *pluginPG {
	return &pluginPG{pool: pool}
}

type pluginRow struct {
	Id          int
	MetaId      int
	Version     string
	DockImage   string
	Execshell   string
	Selfpath    string
	Selfexec    string
	Description string
	MinWorkers  int64     `sql:"min_number_of_workers"`
	MaxWorkers  int64     `sql:"max_number_of_workers"`
	MinCPU      int64     `sql:"min_cpu_limit"`
	MaxCPU      int64     `sql:"max_cpu_limit"`
	MinMemory   int64     `sql:"min_memory_limit"`
	MaxMemory   int64     `sql:"max_memory_limit"`
	MinGPU      int64     `sql:"min_gpu_limit"`
	MaxGPU      int64     `sql:"max_gpu_limit"`
	CreatedAt   time.Time `sql:"creation_date"`
}

type metaRow struct {
	Id            int
	Name          string
	Title         string
	PublicRepo    string
	License       string
	Type          string
	Icon          string
	Category      string
	Authors       string
	Documentation string
	CreatedAt     time.Time `sql:"creation_date"`
	ModifiedAt    time.Time `sql:"modification_date"`
}

type collaboratorRow struct {
	MetaId int
	User   string
	Role   string
}

type parameterRow struct {
	Id        int
	PluginId  int
	Name      string
	Type      string
	Optional  bool
	Flag      string
	ShortFlag string
	Action    string
	Help      string
	UiExposed bool

	DefaultString  pgtype.Text
	DefaultInteger pgtype.Int4
	DefaultFloat   pgtype.Float8
	DefaultBoolean pgtype.Bool
}

func (r parameterRow) toDomain() domain.PluginParameter {
	typ := domain.ParameterType(r.Type)
	return domain.PluginParameter{
		Id:        r.Id,
		Name:      r.Name,
		Type:      typ,
		Optional:  r.Optional,
		Flag:      r.Flag,
		ShortFlag: r.ShortFlag,
		Action:    r.Action,
		Help:      r.Help,
		UIExposed: r.UiExposed,
		Default: marshal.Columns{
			String:  r.DefaultString,
			Integer: r.DefaultInteger,
			Float:   r.DefaultFloat,
			Boolean: r.DefaultBoolean,
		}.Value(typ),
	}
}

const selectPlugin = `
select
	"id", "meta_id", "version", "dock_image", "execshell", "selfpath", "selfexec", "description",
	"min_number_of_workers", "max_number_of_workers",
	"min_cpu_limit", "max_cpu_limit",
	"min_memory_limit", "max_memory_limit",
	"min_gpu_limit", "max_gpu_limit",
	"creation_date"
from "plugin"
`

const selectMeta = `
select
	"id", "name", "title", "public_repo", "license", "type"::text as "type",
	"icon", "category", "authors", "documentation", "creation_date", "modification_date"
from "plugin_meta"
`

func (m *pluginPG) Get(ctx context.Context, pluginIds []int) (map[int]*domain.Plugin, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer conn.Release()

	return getPlugins(ctx, conn, pluginIds)
}

func getPlugins(ctx context.Context, conn kpool.Queryer, pluginIds []int) (map[int]*domain.Plugin, error) {
	ret := map[int]*domain.Plugin{}
	if len(pluginIds) == 0 {
		return ret, nil
	}

	plugins, err := scanner.New[pluginRow]().QueryAll(
		ctx, conn, selectPlugin+`where "id" = any($1) order by "id"`, pluginIds,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	if len(plugins) == 0 {
		return ret, nil
	}

	metaIds := make([]int, 0, len(plugins))
	for _, p := range plugins {
		metaIds = append(metaIds, p.MetaId)
	}
	metas, err := getMetas(ctx, conn, metaIds)
	if err != nil {
		return nil, err
	}

	params, err := scanner.New[parameterRow]().QueryAll(
		ctx, conn,
		`
		select
			"id", "plugin_id", "name", "type"::text as "type", "optional",
			"flag", "short_flag", "action", "help", "ui_exposed",
			"default_string", "default_integer", "default_float", "default_boolean"
		from "plugin_parameter"
		where "plugin_id" = any($1)
		order by "id"
		`,
		pluginIds,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	paramsOf := map[int][]domain.PluginParameter{}
	for _, p := range params {
		paramsOf[p.PluginId] = append(paramsOf[p.PluginId], p.toDomain())
	}

	for _, p := range plugins {
		meta, ok := metas[p.MetaId]
		if !ok {
			return nil, xe.Wrap(kpgerr.Missing{Table: "plugin_meta", Identity: fmt.Sprintf("id=%d", p.MetaId)})
		}
		ret[p.Id] = &domain.Plugin{
			Id:          p.Id,
			Meta:        *meta,
			Version:     p.Version,
			DockImage:   p.DockImage,
			ExecShell:   p.Execshell,
			SelfPath:    p.Selfpath,
			SelfExec:    p.Selfexec,
			Description: p.Description,
			Limits: domain.ResourceLimits{
				MinWorkers: p.MinWorkers, MaxWorkers: p.MaxWorkers,
				MinCPU: p.MinCPU, MaxCPU: p.MaxCPU,
				MinMemory: p.MinMemory, MaxMemory: p.MaxMemory,
				MinGPU: p.MinGPU, MaxGPU: p.MaxGPU,
			},
			Parameters: paramsOf[p.Id],
			CreatedAt:  p.CreatedAt,
		}
	}
	return ret, nil
}

func getMetas(ctx context.Context, conn kpool.Queryer, metaIds []int) (map[int]*domain.PluginMeta, error) {
	metas, err := scanner.New[metaRow]().QueryAll(
		ctx, conn, selectMeta+`where "id" = any($1)`, metaIds,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	collaborators, err := scanner.New[collaboratorRow]().QueryAll(
		ctx, conn,
		`
		select "meta_id", "user", "role"::text as "role"
		from "plugin_meta_collaborator"
		where "meta_id" = any($1)
		order by "role", "user"
		`,
		metaIds,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	ret := map[int]*domain.PluginMeta{}
	for _, m := range metas {
		ret[m.Id] = &domain.PluginMeta{
			Id:            m.Id,
			Name:          m.Name,
			Title:         m.Title,
			PublicRepo:    m.PublicRepo,
			License:       m.License,
			Type:          domain.PluginType(m.Type),
			Icon:          m.Icon,
			Category:      m.Category,
			Authors:       m.Authors,
			Documentation: m.Documentation,
			CreatedAt:     m.CreatedAt,
			ModifiedAt:    m.ModifiedAt,
		}
	}
	for _, c := range collaborators {
		if meta, ok := ret[c.MetaId]; ok {
			meta.Collaborators = append(meta.Collaborators, domain.Collaborator{User: c.User, Role: domain.Role(c.Role)})
		}
	}
	return ret, nil
}

func (m *pluginPG) GetByNameVersion(ctx context.Context, name string, version string) (*domain.Plugin, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer conn.Release()

	var id int
	if err := conn.QueryRow(
		ctx,
		`
		select "plugin"."id" from "plugin"
		inner join "plugin_meta" on "plugin_meta"."id" = "plugin"."meta_id"
		where "plugin_meta"."name" = $1 and "plugin"."version" = $2
		`,
		name, version,
	).Scan(&id); errors.Is(err, pgx.ErrNoRows) {
		return nil, kpgerr.Missing{Table: "plugin", Identity: fmt.Sprintf("name=%q, version=%q", name, version)}
	} else if err != nil {
		return nil, xe.Wrap(err)
	}

	found, err := getPlugins(ctx, conn, []int{id})
	if err != nil {
		return nil, err
	}
	p, ok := found[id]
	if !ok {
		return nil, kpgerr.Missing{Table: "plugin", Identity: fmt.Sprintf("id=%d", id)}
	}
	return p, nil
}

func (m *pluginPG) GetMeta(ctx context.Context, name string) (*domain.PluginMeta, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer conn.Release()

	var id int
	if err := conn.QueryRow(
		ctx, `select "id" from "plugin_meta" where "name" = $1`, name,
	).Scan(&id); errors.Is(err, pgx.ErrNoRows) {
		return nil, kpgerr.Missing{Table: "plugin_meta", Identity: fmt.Sprintf("name=%q", name)}
	} else if err != nil {
		return nil, xe.Wrap(err)
	}

	metas, err := getMetas(ctx, conn, []int{id})
	if err != nil {
		return nil, err
	}
	meta, ok := metas[id]
	if !ok {
		return nil, kpgerr.Missing{Table: "plugin_meta", Identity: fmt.Sprintf("name=%q", name)}
	}
	return meta, nil
}

func (m *pluginPG) ExistsVersion(ctx context.Context, name string, version string) (bool, error) {
	var exists bool
	if err := m.pool.QueryRow(
		ctx,
		`
		select exists (
			select 1 from "plugin"
			inner join "plugin_meta" on "plugin_meta"."id" = "plugin"."meta_id"
			where "plugin_meta"."name" = $1 and "plugin"."version" = $2
		)
		`,
		name, version,
	).Scan(&exists); err != nil {
		return false, xe.Wrap(err)
	}
	return exists, nil
}

func (m *pluginPG) ExistsImage(ctx context.Context, name string, dockImage string) (bool, error) {
	var exists bool
	if err := m.pool.QueryRow(
		ctx,
		`
		select exists (
			select 1 from "plugin"
			inner join "plugin_meta" on "plugin_meta"."id" = "plugin"."meta_id"
			where "plugin_meta"."name" = $1 and "plugin"."dock_image" = $2
		)
		`,
		name, dockImage,
	).Scan(&exists); err != nil {
		return false, xe.Wrap(err)
	}
	return exists, nil
}

func (m *pluginPG) Register(ctx context.Context, spec *domain.PluginSpec) (int, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return 0, xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	metaId, err := upsertMeta(ctx, tx, spec)
	if err != nil {
		return 0, err
	}

	var pluginId int
	if err := tx.QueryRow(
		ctx,
		`
		insert into "plugin" (
			"meta_id", "version", "dock_image", "execshell", "selfpath", "selfexec", "description",
			"min_number_of_workers", "max_number_of_workers",
			"min_cpu_limit", "max_cpu_limit",
			"min_memory_limit", "max_memory_limit",
			"min_gpu_limit", "max_gpu_limit"
		)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		returning "id"
		`,
		metaId, spec.Version, spec.DockImage, spec.ExecShell, spec.SelfPath, spec.SelfExec, spec.Description,
		spec.Limits.MinWorkers, spec.Limits.MaxWorkers,
		spec.Limits.MinCPU, spec.Limits.MaxCPU,
		spec.Limits.MinMemory, spec.Limits.MaxMemory,
		spec.Limits.MinGPU, spec.Limits.MaxGPU,
	).Scan(&pluginId); err != nil {
		return 0, conflictOf(err)
	}

	for _, param := range spec.Parameters {
		cols, err := marshal.ToColumns(param.Type, param.Default)
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(
			ctx,
			`
			insert into "plugin_parameter" (
				"plugin_id", "name", "type", "optional", "flag", "short_flag", "action", "help", "ui_exposed",
				"default_string", "default_integer", "default_float", "default_boolean"
			)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			`,
			pluginId, param.Name, string(param.Type), param.Optional,
			param.Flag, param.ShortFlag, param.Action, param.Help, param.UIExposed,
			cols.String, cols.Integer, cols.Float, cols.Boolean,
		); err != nil {
			return 0, conflictOf(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, conflictOf(err)
	}
	return pluginId, nil
}

// upsertMeta finds the meta of the plugin name, or creates it with the submitter as owner.
func upsertMeta(ctx context.Context, tx kpool.Tx, spec *domain.PluginSpec) (int, error) {
	var metaId int
	err := tx.QueryRow(
		ctx,
		`
		update "plugin_meta" set "modification_date" = now()
		where "name" = $1
		returning "id"
		`,
		spec.Name,
	).Scan(&metaId)
	if err == nil {
		return metaId, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, xe.Wrap(err)
	}

	typ := spec.Type
	if typ == "" {
		typ = domain.DataPlugin
	}
	if err := tx.QueryRow(
		ctx,
		`
		insert into "plugin_meta" (
			"name", "title", "public_repo", "license", "type",
			"icon", "category", "authors", "documentation"
		)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		returning "id"
		`,
		spec.Name, spec.Title, spec.PublicRepo, spec.License, string(typ),
		spec.Icon, spec.Category, spec.Authors, spec.Documentation,
	).Scan(&metaId); err != nil {
		return 0, conflictOf(err)
	}

	if _, err := tx.Exec(
		ctx,
		`insert into "plugin_meta_collaborator" ("meta_id", "user", "role") values ($1, $2, $3)`,
		metaId, spec.Submitter, string(domain.Owner),
	); err != nil {
		return 0, xe.Wrap(err)
	}
	return metaId, nil
}

// conflictOf translates unique violations into domain errors.
func conflictOf(err error) error {
	constraint, ok := kpgerr.UniqueViolation(err)
	if !ok {
		return xe.Wrap(err)
	}
	switch constraint {
	case "plugin_meta_version_key":
		return xe.Wrap(fmt.Errorf("%w (%s)", domain.ErrDuplicateVersion, err))
	case "plugin_meta_dock_image_key":
		return xe.Wrap(fmt.Errorf("%w (%s)", domain.ErrDuplicateImage, err))
	case "plugin_meta_name_key":
		// another user has registered the name concurrently.
		return xe.Wrap(fmt.Errorf("%w (%s)", domain.ErrOwnershipConflict, err))
	}
	return xe.Wrap(err)
}

func (m *pluginPG) UpdateMeta(ctx context.Context, name string, update domain.PluginMetaUpdate) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	var metaId int
	if err := tx.QueryRow(
		ctx,
		`
		update "plugin_meta"
		set "public_repo" = coalesce($2, "public_repo"), "modification_date" = now()
		where "name" = $1
		returning "id"
		`,
		name, update.PublicRepo,
	).Scan(&metaId); errors.Is(err, pgx.ErrNoRows) {
		return kpgerr.Missing{Table: "plugin_meta", Identity: fmt.Sprintf("name=%q", name)}
	} else if err != nil {
		return xe.Wrap(err)
	}

	if update.NewOwner != nil {
		if _, err := tx.Exec(
			ctx,
			`
			insert into "plugin_meta_collaborator" ("meta_id", "user", "role")
			values ($1, $2, $3)
			on conflict ("meta_id", "user") do update set "role" = excluded."role"
			`,
			metaId, *update.NewOwner, string(domain.Owner),
		); err != nil {
			return xe.Wrap(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return xe.Wrap(err)
	}
	return nil
}

func (m *pluginPG) Remove(ctx context.Context, pluginId int) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	var metaId int
	if err := tx.QueryRow(
		ctx, `delete from "plugin" where "id" = $1 returning "meta_id"`, pluginId,
	).Scan(&metaId); errors.Is(err, pgx.ErrNoRows) {
		return kpgerr.Missing{Table: "plugin", Identity: fmt.Sprintf("id=%d", pluginId)}
	} else if err != nil {
		return xe.Wrap(err)
	}

	if _, err := tx.Exec(
		ctx,
		`
		delete from "plugin_meta"
		where "id" = $1 and not exists (select 1 from "plugin" where "meta_id" = $1)
		`,
		metaId,
	); err != nil {
		return xe.Wrap(err)
	}

	return tx.Commit(ctx)
}

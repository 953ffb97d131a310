package postgres

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"

	kpool "github.com/chrisstore/store/pkg/conn/db/postgres/pool"
	schemadb "github.com/chrisstore/store/pkg/domain/schema/db"
	xe "github.com/chrisstore/store/pkg/errors"
)

type pgSchema struct {
	pool       kpool.Pool
	repository string
}

var _ schemadb.SchemaInterface = &pgSchema{}

// New creates a schema backed by a schema repository.
//
// The schema repository is a directory containing directories named by versions (1, 2, ...).
// Each version directory has .sql files applied in lexical order.
func New(pool kpool.Pool, repository string) schemadb.SchemaInterface {
	return &pgSchema{pool: pool, repository: repository}
}

type version struct {
	Version int
	Root    string
}

func (v version) apply(ctx context.Context, q kpool.Queryer) error {
	return filepath.WalkDir(v.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		query, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, string(query)); err != nil {
			return xe.WrapWithNote(path, err)
		}
		return nil
	})
}

func (s *pgSchema) Version(ctx context.Context) (int, error) {
	return currentVersion(ctx, s.pool)
}

func currentVersion(ctx context.Context, q kpool.Queryer) (int, error) {
	var v *int
	if err := q.QueryRow(ctx, `select max("version") from "schema_version"`).Scan(&v); err != nil {
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) && pgerr.Code == pgerrcode.UndefinedTable {
			return 0, nil
		}
		return -1, xe.Wrap(err)
	}
	if v == nil {
		return 0, nil
	}
	return *v, nil
}

func (s *pgSchema) Upgrade(ctx context.Context) error {
	versions, err := s.versions()
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	// a failed select aborts tx, so schema_version should exist before reading it.
	if _, err := tx.Exec(
		ctx, `create table if not exists "schema_version" ("version" integer not null)`,
	); err != nil {
		return xe.Wrap(err)
	}
	if _, err := tx.Exec(ctx, `lock table "schema_version" in exclusive mode`); err != nil {
		return xe.Wrap(err)
	}

	current, err := currentVersion(ctx, tx)
	if err != nil {
		return err
	}

	for _, v := range versions {
		if v.Version <= current {
			continue
		}
		if err := v.apply(ctx, tx); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `delete from "schema_version"`); err != nil {
			return xe.Wrap(err)
		}
		if _, err := tx.Exec(
			ctx, `insert into "schema_version" ("version") values ($1)`, v.Version,
		); err != nil {
			return xe.Wrap(err)
		}
	}

	return tx.Commit(ctx)
}

func (s *pgSchema) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	cctx, cancel := context.WithCancelCause(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		cancel(err)
		return cctx, func() {}
	}
	if err := w.Add(s.repository); err != nil {
		w.Close()
		cancel(err)
		return cctx, func() {}
	}

	check := func() {
		versions, err := s.versions()
		if err != nil {
			cancel(fmt.Errorf("failed to read schema repository: %w", err))
			return
		}
		current, err := s.Version(cctx)
		if err != nil {
			cancel(fmt.Errorf("failed to get current schema version: %w", err))
			return
		}
		if latest := len(versions); latest != 0 && current < versions[latest-1].Version {
			cancel(fmt.Errorf(
				"schema is outdated: %d (in db) < %d (in repository)",
				current, versions[latest-1].Version,
			))
		}
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-cctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
					continue
				}
				if filepath.Clean(s.repository) != filepath.Dir(ev.Name) {
					continue
				}
				check()
			}
		}
	}()

	check()
	return cctx, func() { cancel(nil) }
}

// versions returns versions in the schema repository, sorted by version number.
func (s *pgSchema) versions() ([]version, error) {
	entries, err := os.ReadDir(s.repository)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	versions := make([]version, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		versions = append(versions, version{Version: v, Root: filepath.Join(s.repository, entry.Name())})
	}
	slices.SortFunc(versions, func(a, b version) int { return cmp.Compare(a.Version, b.Version) })
	return versions, nil
}

// Null is a schema without repository. It can not upgrade.
func Null() schemadb.SchemaInterface {
	return nullSchema{}
}

type nullSchema struct{}

func (nullSchema) Upgrade(context.Context) error {
	return errors.New("no schema repository available")
}

func (nullSchema) Version(context.Context) (int, error) {
	return -1, nil
}

func (nullSchema) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(ctx)
}

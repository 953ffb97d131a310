package postgres_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrisstore/store/pkg/conn/db/postgres/pool/testenv"
	kpgschema "github.com/chrisstore/store/pkg/domain/schema/db/postgres"
	"github.com/chrisstore/store/pkg/utils/try"
)

func TestSchema_UpgradeAndVersion(t *testing.T) {
	ctx := context.Background()
	poolBroaker := testenv.NewPoolBroaker(ctx, t)
	pool := poolBroaker.GetPool(ctx, t)

	testee := kpgschema.New(pool, testenv.SchemaRepository(t))

	// testenv has upgraded the schema already.
	before := try.To(testee.Version(ctx)).OrFatal(t)
	if before < 1 {
		t.Fatalf("schema version: %d", before)
	}

	if err := testee.Upgrade(ctx); err != nil {
		t.Fatal(err)
	}
	if after := try.To(testee.Version(ctx)).OrFatal(t); after != before {
		t.Errorf("upgrade without new versions changes version: %d -> %d", before, after)
	}
}

func TestSchema_UpgradeOnEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	pool := testenv.NewEmptyPool(ctx, t)

	testee := kpgschema.New(pool, testenv.SchemaRepository(t))

	if before := try.To(testee.Version(ctx)).OrFatal(t); before != 0 {
		t.Fatalf("empty database has schema version %d", before)
	}

	if err := testee.Upgrade(ctx); err != nil {
		t.Fatal(err)
	}
	upgraded := try.To(testee.Version(ctx)).OrFatal(t)
	if upgraded < 1 {
		t.Errorf("schema version after upgrade: %d", upgraded)
	}

	var plugins int
	if err := pool.QueryRow(ctx, `select count(*) from "plugin_meta"`).Scan(&plugins); err != nil {
		t.Fatalf("tables are not created: %v", err)
	}

	t.Run("upgrading again keeps the version", func(t *testing.T) {
		if err := testee.Upgrade(ctx); err != nil {
			t.Fatal(err)
		}
		if v := try.To(testee.Version(ctx)).OrFatal(t); v != upgraded {
			t.Errorf("version: %d -> %d", upgraded, v)
		}
	})
}

func TestSchema_Context(t *testing.T) {
	ctx := context.Background()
	poolBroaker := testenv.NewPoolBroaker(ctx, t)
	pool := poolBroaker.GetPool(ctx, t)

	// a copy of the repository which we can add a new version to.
	repo := t.TempDir()
	src := testenv.SchemaRepository(t)
	entries := try.To(os.ReadDir(src)).OrFatal(t)
	for _, e := range entries {
		if err := os.Mkdir(filepath.Join(repo, e.Name()), os.ModePerm); err != nil {
			t.Fatal(err)
		}
	}

	testee := kpgschema.New(pool, repo)
	sctx, cancel := testee.Context(ctx)
	defer cancel()

	if err := sctx.Err(); err != nil {
		t.Fatalf("context is done before schema changes: %v", context.Cause(sctx))
	}

	if err := os.Mkdir(filepath.Join(repo, "9999"), os.ModePerm); err != nil {
		t.Fatal(err)
	}

	select {
	case <-sctx.Done():
		if cause := context.Cause(sctx); errors.Is(cause, context.Canceled) {
			t.Errorf("unexpected cause: %v", cause)
		}
	case <-time.After(5 * time.Second):
		t.Error("context is not done after a new schema version is added")
	}
}

package testenv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	kpool "github.com/chrisstore/store/pkg/conn/db/postgres/pool"
	kpgschema "github.com/chrisstore/store/pkg/domain/schema/db/postgres"
)

// EnvDBURI is the environment variable telling the database for tests.
//
// Tests using PoolBroaker are skipped when it is not set.
const EnvDBURI = "STORE_TEST_DBURI"

// PoolBroaker is a interface to get a pool.
type PoolBroaker interface {
	// GetPool returns a pool.
	//
	// Tables are cleaned up before returning and after t.
	GetPool(ctx context.Context, t *testing.T) kpool.Pool
}

type pg struct {
	pool *pgxpool.Pool
}

func (p *pg) GetPool(ctx context.Context, t *testing.T) kpool.Pool {
	t.Cleanup(func() {
		t.Helper()
		ClearTables(ctx, p.pool, t)
	})

	ClearTables(ctx, p.pool, t)
	return kpool.Wrap(p.pool)
}

// NewPoolBroaker returns a PoolBroaker connecting to the database told by STORE_TEST_DBURI.
//
// The schema of the database is upgraded to the latest one in SchemaRepository.
//
// When STORE_TEST_DBURI is empty, t is skipped.
func NewPoolBroaker(ctx context.Context, t *testing.T) PoolBroaker {
	t.Helper()

	uri := os.Getenv(EnvDBURI)
	if uri == "" {
		t.Skipf("%s is not set. skip tests with database.", EnvDBURI)
	}

	pool, err := pgxpool.Connect(ctx, uri)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	if err := kpgschema.New(kpool.Wrap(pool), SchemaRepository(t)).Upgrade(ctx); err != nil {
		t.Fatal(err)
	}

	return &pg{pool: pool}
}

// NewEmptyPool returns a pool whose search_path is a new, empty namespace in the test database.
//
// The namespace is dropped after t. When STORE_TEST_DBURI is empty, t is skipped.
func NewEmptyPool(ctx context.Context, t *testing.T) kpool.Pool {
	t.Helper()

	uri := os.Getenv(EnvDBURI)
	if uri == "" {
		t.Skipf("%s is not set. skip tests with database.", EnvDBURI)
	}

	admin, err := pgxpool.Connect(ctx, uri)
	if err != nil {
		t.Fatal(err)
	}
	namespace := fmt.Sprintf("empty_%d", time.Now().UnixNano())
	if _, err := admin.Exec(ctx, fmt.Sprintf(`create schema "%s"`, namespace)); err != nil {
		admin.Close()
		t.Fatal(err)
	}

	conf, err := pgxpool.ParseConfig(uri)
	if err != nil {
		t.Fatal(err)
	}
	conf.ConnConfig.RuntimeParams["search_path"] = namespace
	pool, err := pgxpool.ConnectConfig(ctx, conf)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		pool.Close()
		if _, err := admin.Exec(
			context.Background(), fmt.Sprintf(`drop schema "%s" cascade`, namespace),
		); err != nil {
			t.Errorf("fail to drop namespace %s: %v", namespace, err)
		}
		admin.Close()
	})

	return kpool.Wrap(pool)
}

// SchemaRepository finds the schema repository of this module, "schema/postgres" next to go.mod.
func SchemaRepository(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "schema", "postgres")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod is not found")
		}
		dir = parent
	}
}

func ClearTables(ctx context.Context, p *pgxpool.Pool, t *testing.T) {
	t.Helper()

	conn, err := p.Acquire(ctx)
	if err != nil {
		t.Errorf("fail to clean-up tables.: %v", err)
		return
	}
	defer conn.Release()

	for _, command := range []string{
		`truncate "pipeline" RESTART IDENTITY cascade`,
		`truncate "plugin_meta" RESTART IDENTITY cascade`,
		// by cascade, all rows in other tables should be deleted.
	} {
		if _, err = conn.Exec(ctx, command); err != nil {
			t.Errorf("fail to clean-up tables.: %v", err)
		}
	}
}

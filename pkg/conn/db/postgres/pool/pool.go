package pool

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	kpgerr "github.com/chrisstore/store/pkg/conn/db/postgres/errors"
)

// Queryer sends SQL.
//
// This is a subset of methods common in *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type Queryer interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Tx is a transaction.
//
// pgx.Tx does not implement Tx. Get Tx from Pool or Conn in this package.
type Tx interface {
	Queryer

	// Begin starts a nested transaction (savepoint).
	Begin(ctx context.Context) (Tx, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is a connection acquired from Pool.
type Conn interface {
	Queryer
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (Tx, error)
	Release()
}

// Pool is a connection pool.
//
// *pgxpool.Pool does not implement Pool. Use Wrap.
type Pool interface {
	Queryer
	Begin(ctx context.Context) (Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (Tx, error)
	Acquire(ctx context.Context) (Conn, error)
	Ping(ctx context.Context) error
	Close()
}

type pgxTx struct {
	pgx.Tx
}

func (tx *pgxTx) Begin(ctx context.Context) (Tx, error) {
	nested, err := tx.Tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{nested}, nil
}

type pgxConn struct {
	*pgxpool.Conn
}

func (c *pgxConn) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (Tx, error) {
	tx, err := c.Conn.BeginTx(ctx, txOptions)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx}, nil
}

// pgxPool acquires connections on demand.
//
// Errors by unreachable database are marked with domain.ErrUnavailable.
type pgxPool struct {
	*pgxpool.Pool
}

type pgxRow struct {
	pgx.Row
}

func (r pgxRow) Scan(dest ...interface{}) error {
	return kpgerr.MarkUnavailable(r.Row.Scan(dest...))
}

func (p *pgxPool) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	tag, err := p.Pool.Exec(ctx, sql, arguments...)
	return tag, kpgerr.MarkUnavailable(err)
}

func (p *pgxPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	rows, err := p.Pool.Query(ctx, sql, args...)
	return rows, kpgerr.MarkUnavailable(err)
}

func (p *pgxPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return pgxRow{p.Pool.QueryRow(ctx, sql, args...)}
}

func (p *pgxPool) Ping(ctx context.Context) error {
	return kpgerr.MarkUnavailable(p.Pool.Ping(ctx))
}

func (p *pgxPool) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, kpgerr.MarkUnavailable(err)
	}
	return &pgxTx{tx}, nil
}

func (p *pgxPool) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (Tx, error) {
	tx, err := p.Pool.BeginTx(ctx, txOptions)
	if err != nil {
		return nil, kpgerr.MarkUnavailable(err)
	}
	return &pgxTx{tx}, nil
}

func (p *pgxPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, kpgerr.MarkUnavailable(err)
	}
	return &pgxConn{conn}, nil
}

func Wrap(p *pgxpool.Pool) Pool {
	return &pgxPool{p}
}

// Connect opens a new pool to the database.
func Connect(ctx context.Context, uri string) (Pool, error) {
	p, err := pgxpool.Connect(ctx, uri)
	if err != nil {
		return nil, err
	}
	return Wrap(p), nil
}

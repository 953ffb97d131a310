// Package store assembles the services of the plugin/pipeline store.
package store

import (
	"context"

	"github.com/chrisstore/store/pkg/domain/pipeline"
	"github.com/chrisstore/store/pkg/domain/plugin"
	schemadb "github.com/chrisstore/store/pkg/domain/schema/db"
	storedb "github.com/chrisstore/store/pkg/domain/store/db"
	"github.com/chrisstore/store/pkg/domain/store/db/postgres"
)

type Store interface {
	Plugin() plugin.Interface
	Pipeline() pipeline.Interface
	Schema() schemadb.SchemaInterface

	// Close releases the database connection.
	Close() error
}

type store struct {
	db       storedb.StoreDatabase
	plugin   plugin.Interface
	pipeline pipeline.Interface
}

// New connects to the database and builds services on it.
func New(ctx context.Context, dburi string, options ...Option) (Store, error) {
	opt := &_options{}
	for _, o := range options {
		o(opt)
	}

	pg, err := postgres.New(ctx, dburi, opt.pg...)
	if err != nil {
		return nil, err
	}
	return Wrap(pg, options...), nil
}

// Wrap builds services on db.
//
// Options about the database connection are ignored.
func Wrap(db storedb.StoreDatabase, options ...Option) Store {
	opt := &_options{}
	for _, o := range options {
		o(opt)
	}
	return &store{
		db:       db,
		plugin:   plugin.New(db.Plugin()),
		pipeline: pipeline.New(db.Pipeline(), db.Plugin(), opt.pipeline...),
	}
}

type Option func(*_options)

type _options struct {
	pg       []postgres.Option
	pipeline []pipeline.Option
}

// WithAdmin sets the user who can see every pipeline.
func WithAdmin(user string) Option {
	return func(o *_options) {
		if user == "" {
			return
		}
		o.pipeline = append(o.pipeline, pipeline.WithAdmin(user))
	}
}

func WithSchemaRepository(repository string) Option {
	return func(o *_options) {
		if repository == "" {
			return
		}
		o.pg = append(o.pg, postgres.WithSchemaRepository(repository))
	}
}

func (s *store) Plugin() plugin.Interface {
	return s.plugin
}

func (s *store) Pipeline() pipeline.Interface {
	return s.pipeline
}

func (s *store) Schema() schemadb.SchemaInterface {
	return s.db.Schema()
}

func (s *store) Close() error {
	return s.db.Close()
}

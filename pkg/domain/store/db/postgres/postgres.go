package postgres

import (
	"context"

	kpool "github.com/chrisstore/store/pkg/conn/db/postgres/pool"
	kpipeline "github.com/chrisstore/store/pkg/domain/pipeline/db"
	kpgpipeline "github.com/chrisstore/store/pkg/domain/pipeline/db/postgres"
	kplugin "github.com/chrisstore/store/pkg/domain/plugin/db"
	kpgplugin "github.com/chrisstore/store/pkg/domain/plugin/db/postgres"
	kschema "github.com/chrisstore/store/pkg/domain/schema/db"
	kpgschema "github.com/chrisstore/store/pkg/domain/schema/db/postgres"
	dbInterface "github.com/chrisstore/store/pkg/domain/store/db"
	xe "github.com/chrisstore/store/pkg/errors"
)

type storeDBPostgres struct {
	pool     kpool.Pool
	plugin   kplugin.PluginInterface
	pipeline kpipeline.PipelineInterface
	schema   kschema.SchemaInterface
}

type Config struct {
	SchemaRepository string
}

type Option func(*Config) *Config

func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (dbInterface.StoreDatabase, error) {
	p, err := kpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	c := Config{}
	for _, option := range options {
		c = *option(&c)
	}

	return Wrap(p, c), nil
}

// Wrap builds repositories on an opened pool.
func Wrap(p kpool.Pool, c Config) dbInterface.StoreDatabase {
	var schema kschema.SchemaInterface = kpgschema.Null()
	if c.SchemaRepository != "" {
		schema = kpgschema.New(p, c.SchemaRepository)
	}

	return &storeDBPostgres{
		pool:     p,
		plugin:   kpgplugin.New(p),
		pipeline: kpgpipeline.New(p),
		schema:   schema,
	}
}

func (s *storeDBPostgres) Plugin() kplugin.PluginInterface {
	return s.plugin
}

func (s *storeDBPostgres) Pipeline() kpipeline.PipelineInterface {
	return s.pipeline
}

func (s *storeDBPostgres) Schema() kschema.SchemaInterface {
	return s.schema
}

func (s *storeDBPostgres) Close() error {
	s.pool.Close()
	return nil
}

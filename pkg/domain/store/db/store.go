package db

import (
	pipelinedb "github.com/chrisstore/store/pkg/domain/pipeline/db"
	plugindb "github.com/chrisstore/store/pkg/domain/plugin/db"
	schemadb "github.com/chrisstore/store/pkg/domain/schema/db"
)

type StoreDatabase interface {
	Plugin() plugindb.PluginInterface
	Pipeline() pipelinedb.PipelineInterface
	Schema() schemadb.SchemaInterface
	Close() error
}

package mocks

import (
	pipelinedb "github.com/chrisstore/store/pkg/domain/pipeline/db"
	pipelinemock "github.com/chrisstore/store/pkg/domain/pipeline/db/mock"
	plugindb "github.com/chrisstore/store/pkg/domain/plugin/db"
	pluginmock "github.com/chrisstore/store/pkg/domain/plugin/db/mock"
	schemadb "github.com/chrisstore/store/pkg/domain/schema/db"
	schemamock "github.com/chrisstore/store/pkg/domain/schema/db/mock"
	kdb "github.com/chrisstore/store/pkg/domain/store/db"
)

type StoreDatabase struct {
	Plugin_   *pluginmock.PluginInterface
	Pipeline_ *pipelinemock.PipelineInterface
	Schema_   *schemamock.SchemaInterface
	Closed    bool
}

var _ kdb.StoreDatabase = &StoreDatabase{}

func NewStoreDatabase() *StoreDatabase {
	return &StoreDatabase{
		Plugin_:   pluginmock.NewPluginInterface(),
		Pipeline_: pipelinemock.NewPipelineInterface(),
		Schema_:   schemamock.NewSchemaInterface(),
	}
}

func (m *StoreDatabase) Plugin() plugindb.PluginInterface {
	return m.Plugin_
}

func (m *StoreDatabase) Pipeline() pipelinedb.PipelineInterface {
	return m.Pipeline_
}

func (m *StoreDatabase) Schema() schemadb.SchemaInterface {
	return m.Schema_
}

func (m *StoreDatabase) Close() error {
	m.Closed = true
	return nil
}

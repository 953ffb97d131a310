package domain

// domain package contains the Domain Models and Interfaces for the plugin store.
//
// `domain/store` package exposes root object of the store.
// Entrypoints of applications should instantiate the Store object and use it to interact with the domain.
//
// `domain/ENTITY.go` has high-level entities (Domain Model types) and functions.
// For example, `domain/plugin.go` contains the `Plugin` entity.
//
// `domain/ENTITY` directory contains the service of the entity, and `domain/ENTITY/db` is its database expression.
//
// # Entities
//
// - `plugin`: a containerized program, registered with its descriptor.
// Plugins sharing a name are versions of one plugin, and they share metadata and collaborators.
//
// - `pipeline`: a named tree of plugins, whose nodes are "pipings".
// Each piping may override defaults of parameters of its plugin.
//
// And others:
//
// - `descriptor`: parses plugin descriptors submitted on registration.
//
// - `pipetree`: validates plugin trees and parameter defaults of pipelines.
//
// - `schema`: versions of the database schema.

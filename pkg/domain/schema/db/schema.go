package db

import "context"

// SchemaInterface is the schema of the store database.
type SchemaInterface interface {
	// Upgrade applies versions in the schema repository newer than the database.
	Upgrade(ctx context.Context) error

	// Version returns the version of the schema in the database. 0 means "not initialized".
	Version(ctx context.Context) (int, error)

	// Context returns a context which is canceled when the schema in the database gets outdated.
	//
	// Args
	//
	// - ctx: parent context
	//
	// Returns
	//
	// - context.Context: canceled when the schema repository has a version newer than the database.
	// context.Cause tells the reason.
	//
	// - context.CancelFunc: stop watching.
	Context(ctx context.Context) (context.Context, context.CancelFunc)
}

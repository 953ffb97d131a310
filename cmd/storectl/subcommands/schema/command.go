package schema

import (
	"context"
	"fmt"
	"log"

	"github.com/chrisstore/store/cmd/storectl/subcommands/common"
	"github.com/chrisstore/store/pkg/domain/store"
	"github.com/youta-t/flarc"
)

func New(connect common.Connector) (flarc.Command, error) {
	upgrade, err := NewUpgrade(connect)
	if err != nil {
		return nil, err
	}
	return flarc.NewCommandGroup(
		"Manage the database schema.",
		struct{}{},
		flarc.WithSubcommand("upgrade", upgrade),
	)
}

func NewUpgrade(connect common.Connector) (flarc.Command, error) {
	return flarc.NewCommand(
		"Upgrade the database schema to the latest version in the schema repository.",
		struct{}{},
		flarc.Args{},
		common.NewTask(connect, Upgrade),
		flarc.WithDescription(`
Apply schema versions newer than the database, found in the schema repository
(--schema flag or STORE_SCHEMA envvar).
`),
	)
}

func Upgrade(
	ctx context.Context,
	logger *log.Logger,
	st store.Store,
	cl flarc.Commandline[struct{}],
	_ []any,
) error {
	schema := st.Schema()
	before, err := schema.Version(ctx)
	if err != nil {
		return err
	}
	if err := schema.Upgrade(ctx); err != nil {
		return err
	}
	after, err := schema.Version(ctx)
	if err != nil {
		return err
	}

	if before == after {
		fmt.Fprintf(cl.Stdout(), "schema is up to date: version %d\n", after)
		return nil
	}
	fmt.Fprintf(cl.Stdout(), "schema is upgraded: version %d -> %d\n", before, after)
	return nil
}

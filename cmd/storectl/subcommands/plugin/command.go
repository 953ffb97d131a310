package plugin

import (
	"github.com/chrisstore/store/cmd/storectl/subcommands/common"
	"github.com/youta-t/flarc"
)

func New(connect common.Connector) (flarc.Command, error) {
	add, err := NewAdd(connect)
	if err != nil {
		return nil, err
	}

	modify, err := NewModify(connect)
	if err != nil {
		return nil, err
	}

	remove, err := NewRemove(connect)
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manage plugins in the store.",
		struct{}{},
		flarc.WithSubcommand("add", add),
		flarc.WithSubcommand("modify", modify),
		flarc.WithSubcommand("remove", remove),
	)
}

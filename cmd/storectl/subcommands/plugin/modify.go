package plugin

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/chrisstore/store/cmd/storectl/subcommands/common"
	"github.com/chrisstore/store/pkg/domain"
	"github.com/chrisstore/store/pkg/domain/store"
	"github.com/youta-t/flarc"
)

type ModifyFlag struct {
	NewOwner string `flag:"new-owner" help:"User to be added as an owner of the plugin."`
}

func NewModify(connect common.Connector) (flarc.Command, error) {
	return flarc.NewCommand(
		"Change the public repository or owners of a plugin.",
		ModifyFlag{},
		flarc.Args{
			{Name: ARG_NAME, Required: true, Help: "Name of the plugin."},
			{Name: ARG_PUBLIC_REPO, Required: false, Help: "New URL of the public repository."},
		},
		common.NewTask(connect, Modify),
		flarc.WithDescription(`
Change the public repository of a plugin, or add an owner to it.

    {{ .Command }} simpledsapp https://github.com/FNNDSC/pl-simpledsapp
    {{ .Command }} simpledsapp --new-owner bobby

At least one of PUBLIC_REPO or --new-owner is required.
`),
	)
}

func Modify(
	ctx context.Context,
	logger *log.Logger,
	st store.Store,
	cl flarc.Commandline[ModifyFlag],
	_ []any,
) error {
	args := cl.Args()
	name := args[ARG_NAME][0]

	update := domain.PluginMetaUpdate{}
	if repo := args[ARG_PUBLIC_REPO]; len(repo) != 0 {
		update.PublicRepo = &repo[0]
	}
	if owner := cl.Flags().NewOwner; owner != "" {
		update.NewOwner = &owner
	}
	if update.PublicRepo == nil && update.NewOwner == nil {
		return fmt.Errorf("%w: nothing to change. pass PUBLIC_REPO or --new-owner", flarc.ErrUsage)
	}

	meta, err := st.Plugin().UpdateMeta(ctx, name, update)
	if err != nil {
		return describe(err)
	}

	owners := []string{}
	for _, c := range meta.Collaborators {
		if c.Role == domain.Owner {
			owners = append(owners, c.User)
		}
	}
	fmt.Fprintf(
		cl.Stdout(), "plugin %s is updated: public_repo = %s, owners = %s\n",
		meta.Name, meta.PublicRepo, strings.Join(owners, ","),
	)
	return nil
}

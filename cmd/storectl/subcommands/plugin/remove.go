package plugin

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/chrisstore/store/cmd/storectl/subcommands/common"
	"github.com/chrisstore/store/pkg/domain/store"
	"github.com/youta-t/flarc"
)

func NewRemove(connect common.Connector) (flarc.Command, error) {
	return flarc.NewCommand(
		"Remove a plugin version.",
		struct{}{},
		flarc.Args{
			{Name: ARG_PLUGIN_ID, Required: true, Help: "Id of the plugin version to be removed."},
		},
		common.NewTask(connect, Remove),
		flarc.WithDescription(`
Remove a plugin version.

When the last version of a plugin is removed, the plugin name is released.
`),
	)
}

func Remove(
	ctx context.Context,
	logger *log.Logger,
	st store.Store,
	cl flarc.Commandline[struct{}],
	_ []any,
) error {
	raw := cl.Args()[ARG_PLUGIN_ID][0]
	pluginId, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: plugin id should be an integer: %s", flarc.ErrUsage, raw)
	}

	if err := st.Plugin().Remove(ctx, pluginId); err != nil {
		return describe(err)
	}
	fmt.Fprintf(cl.Stdout(), "plugin %d is removed\n", pluginId)
	return nil
}

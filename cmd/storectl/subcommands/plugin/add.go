package plugin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/chrisstore/store/cmd/storectl/subcommands/common"
	bindplugins "github.com/chrisstore/store/pkg/api-types-binding/plugins"
	"github.com/chrisstore/store/pkg/domain/plugin"
	"github.com/chrisstore/store/pkg/domain/store"
	"github.com/youta-t/flarc"
	"gopkg.in/yaml.v3"
)

type AddFlag struct {
	DescriptorFile   string `flag:"descriptor-file" help:"Path to the JSON plugin descriptor."`
	DescriptorString string `flag:"descriptor-string" help:"JSON plugin descriptor, as a string."`
}

const (
	ARG_NAME        = "NAME"
	ARG_OWNER       = "OWNER"
	ARG_PUBLIC_REPO = "PUBLIC_REPO"
	ARG_DOCK_IMAGE  = "DOCK_IMAGE"
	ARG_PLUGIN_ID   = "PLUGIN_ID"
)

func NewAdd(connect common.Connector) (flarc.Command, error) {
	return flarc.NewCommand(
		"Register a new plugin version.",
		AddFlag{},
		flarc.Args{
			{Name: ARG_NAME, Required: true, Help: "Name of the plugin."},
			{Name: ARG_OWNER, Required: true, Help: "User submitting the plugin. A new plugin name is owned by this user."},
			{Name: ARG_PUBLIC_REPO, Required: true, Help: "URL of the public repository of the plugin."},
			{Name: ARG_DOCK_IMAGE, Required: true, Help: "Docker image of the plugin."},
		},
		common.NewTask(connect, Add),
		flarc.WithDescription(`
Register a new plugin version, described by a plugin descriptor.

Pass the descriptor with exactly one of --descriptor-file or --descriptor-string.

    {{ .Command }} simpledsapp alice https://github.com/FNNDSC/simpledsapp fnndsc/pl-simpledsapp:0.1 \
        --descriptor-file ./simpledsapp.json

The registered plugin is printed in YAML.
`),
	)
}

func Add(
	ctx context.Context,
	logger *log.Logger,
	st store.Store,
	cl flarc.Commandline[AddFlag],
	_ []any,
) error {
	flags := cl.Flags()
	args := cl.Args()

	var descriptor []byte
	switch {
	case flags.DescriptorFile != "" && flags.DescriptorString != "":
		return fmt.Errorf("%w: --descriptor-file and --descriptor-string are exclusive", flarc.ErrUsage)
	case flags.DescriptorFile != "":
		content, err := os.ReadFile(flags.DescriptorFile)
		if err != nil {
			return fmt.Errorf("can not read descriptor file: %w", err)
		}
		descriptor = content
	case flags.DescriptorString != "":
		descriptor = []byte(flags.DescriptorString)
	default:
		return fmt.Errorf("%w: either --descriptor-file or --descriptor-string is required", flarc.ErrUsage)
	}

	p, err := st.Plugin().Register(ctx, plugin.Registration{
		Name:       args[ARG_NAME][0],
		Submitter:  args[ARG_OWNER][0],
		PublicRepo: args[ARG_PUBLIC_REPO][0],
		DockImage:  args[ARG_DOCK_IMAGE][0],
		Descriptor: descriptor,
	})
	if err != nil {
		return describe(err)
	}
	logger.Printf("plugin registered: %s %s (id = %d)", p.Name(), p.Version, p.Id)

	enc := yaml.NewEncoder(cl.Stdout())
	defer enc.Close()
	enc.SetIndent(2)
	if err := enc.Encode(bindplugins.ComposeDetail(*p)); err != nil {
		return errors.Join(err, fmt.Errorf("plugin is registered, but can not be printed"))
	}
	return nil
}

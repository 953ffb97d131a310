package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"

	"github.com/chrisstore/store/cmd/storectl/subcommands/common"
	subplugin "github.com/chrisstore/store/cmd/storectl/subcommands/plugin"
	subschema "github.com/chrisstore/store/cmd/storectl/subcommands/schema"
	"github.com/chrisstore/store/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := log.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	plugin := try.To(subplugin.New(common.Connect)).OrFatal(logger)
	schema := try.To(subschema.New(common.Connect)).OrFatal(logger)

	storectl := try.To(
		flarc.NewCommandGroup(
			"plugin/pipeline store management commands",
			common.DefaultCommonFlags(),
			flarc.WithSubcommand("plugin", plugin),
			flarc.WithSubcommand("schema", schema),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, storectl, flarc.WithHelp(true)))
}

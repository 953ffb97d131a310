package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"path"
	"time"

	"github.com/chrisstore/store/cmd/storeapi/handlers"
	kcs "github.com/chrisstore/store/pkg/configs/store"
	"github.com/chrisstore/store/pkg/domain/store"
	"github.com/chrisstore/store/pkg/echoutil"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	configPath := flag.String("config", "", "store config path")
	loglevel := flag.String("loglevel", "", "log level. debug|info|warn|error|off. overrides the config file")
	flag.Parse()

	conf, err := kcs.LoadStoreConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}
	if *loglevel != "" {
		conf.LogLevel = *loglevel
	}

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	// set log
	echoutil.SetLevel(e, conf.LogLevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.RequestLogger(conf.IdentityHeader))
	e.Use(middleware.Recover())

	ctx := context.Background()
	st, err := store.New(
		ctx, conf.DBURI,
		store.WithSchemaRepository(conf.SchemaRepository),
		store.WithAdmin(conf.AdminUser),
	)
	if err != nil {
		log.Fatalf("can not connect to database: %s", err)
	}
	defer st.Close()

	if conf.SchemaRepository != "" {
		schemaCtx, cancel := st.Schema().Context(ctx)
		defer cancel()
		if err := schemaCtx.Err(); err != nil {
			log.Fatalf("database schema is not ready: %s", context.Cause(schemaCtx))
		}
		context.AfterFunc(schemaCtx, func() {
			log.Printf("quit to restart server: %s", context.Cause(schemaCtx))
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by schema update: %s", err)
			}
		})
	}

	identity := handlers.Identity{Header: conf.IdentityHeader}
	plugins := st.Plugin()
	pipelines := st.Pipeline()

	{
		e.POST(api("plugins"), handlers.PluginRegisterHandler(plugins, identity))
		e.GET(api("plugins/:pluginId"), handlers.GetPluginHandler(plugins, "pluginId"))
		e.GET(api("plugins/metas/:pluginName"), handlers.GetPluginMetaHandler(plugins, "pluginName"))
		e.PUT(api("plugins/metas/:pluginName"), handlers.PluginMetaUpdateHandler(plugins, identity, "pluginName"))
	}

	{
		e.POST(api("pipelines"), handlers.PipelineCreateHandler(pipelines, identity))
		e.POST(api("pipelines/tree"), handlers.BuildTreeHandler(pipelines))
		e.GET(api("pipelines/:pipelineId"), handlers.GetPipelineHandler(pipelines, identity, "pipelineId"))
		e.PUT(api("pipelines/:pipelineId"), handlers.PipelineUpdateHandler(pipelines, identity, "pipelineId"))
		e.GET(api("pipelines/:pipelineId/tree"), handlers.PipelineTreeHandler(pipelines, identity, "pipelineId"))
		e.PUT(
			api("pipelines/pipings/:pipingId/defaults"),
			handlers.PipingDefaultsHandler(pipelines, identity, "pipingId"),
		)
	}

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	if err := e.Start(":" + conf.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.Logger.Fatal(err)
	}
}

// api returns the full path of an api endpoint, terminated with "/".
func api(p string) string {
	return path.Join("/api/v1", p) + "/"
}

package handlers

import (
	"net/http"

	binderr "github.com/chrisstore/store/pkg/api-types-binding/errors"
	bindpipelines "github.com/chrisstore/store/pkg/api-types-binding/pipelines"
	apipipelines "github.com/chrisstore/store/pkg/api/types/pipelines"
	"github.com/chrisstore/store/pkg/domain/pipeline"
	"github.com/chrisstore/store/pkg/domain/pipetree"
	"github.com/chrisstore/store/pkg/utils"
	"github.com/labstack/echo/v4"
)

func PipelineCreateHandler(pipelines pipeline.Interface, identity Identity) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := identity.User(c)
		if err != nil {
			return err
		}

		req := apipipelines.Creation{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		p, err := pipelines.Create(c.Request().Context(), bindpipelines.ParseCreation(req, user))
		if err != nil {
			return binderr.FromDomainError(err)
		}
		c.Logger().Infof("pipeline created: %s (id = %d) by %s", p.Name, p.Id, user)

		return c.JSON(http.StatusCreated, bindpipelines.ComposeDetail(*p))
	}
}

func GetPipelineHandler(pipelines pipeline.Interface, identity Identity, pipelineIdParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		pipelineId, err := idParam(c, pipelineIdParam)
		if err != nil {
			return err
		}

		p, err := pipelines.Get(c.Request().Context(), identity.Viewer(c), pipelineId)
		if err != nil {
			return binderr.FromDomainError(err)
		}
		return c.JSON(http.StatusOK, bindpipelines.ComposeDetail(*p))
	}
}

func PipelineUpdateHandler(pipelines pipeline.Interface, identity Identity, pipelineIdParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := identity.User(c)
		if err != nil {
			return err
		}
		pipelineId, err := idParam(c, pipelineIdParam)
		if err != nil {
			return err
		}

		req := apipipelines.Update{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		p, err := pipelines.Update(c.Request().Context(), user, pipelineId, bindpipelines.ParseUpdate(req))
		if err != nil {
			return binderr.FromDomainError(err)
		}
		return c.JSON(http.StatusOK, bindpipelines.ComposeDetail(*p))
	}
}

func PipelineTreeHandler(pipelines pipeline.Interface, identity Identity, pipelineIdParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		pipelineId, err := idParam(c, pipelineIdParam)
		if err != nil {
			return err
		}

		tree, err := pipelines.Tree(c.Request().Context(), identity.Viewer(c), pipelineId)
		if err != nil {
			return binderr.FromDomainError(err)
		}
		return c.JSON(http.StatusOK, bindpipelines.ComposeTree(*tree))
	}
}

// BuildTreeHandler builds and validates a plugin tree without storing it.
//
// The request body is the same as "plugin_tree" of pipeline creation.
func BuildTreeHandler(pipelines pipeline.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apipipelines.Creation{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		tree, err := pipelines.BuildTree(c.Request().Context(), bindpipelines.ParseCreation(req, "").PluginTree)
		if err != nil {
			return binderr.FromDomainError(err)
		}
		return c.JSON(http.StatusOK, bindpipelines.ComposeTree(*tree))
	}
}

func PipingDefaultsHandler(pipelines pipeline.Interface, identity Identity, pipingIdParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := identity.User(c)
		if err != nil {
			return err
		}
		pipingId, err := idParam(c, pipingIdParam)
		if err != nil {
			return err
		}

		req := apipipelines.PipingDefaults{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		overrides, err := pipetree.DecodeOverrides(req.ParameterDefaults)
		if err != nil {
			return binderr.FromDomainError(err)
		}

		defaults, err := pipelines.UpdatePipingDefaults(c.Request().Context(), user, pipingId, overrides)
		if err != nil {
			return binderr.FromDomainError(err)
		}
		return c.JSON(http.StatusOK, utils.Map(defaults, bindpipelines.ComposePipingDefault))
	}
}

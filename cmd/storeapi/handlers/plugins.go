package handlers

import (
	"net/http"

	binderr "github.com/chrisstore/store/pkg/api-types-binding/errors"
	bindplugins "github.com/chrisstore/store/pkg/api-types-binding/plugins"
	apiplugins "github.com/chrisstore/store/pkg/api/types/plugins"
	"github.com/chrisstore/store/pkg/domain/plugin"
	"github.com/chrisstore/store/pkg/utils/pointer"
	"github.com/labstack/echo/v4"
)

func PluginRegisterHandler(plugins plugin.Interface, identity Identity) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := identity.User(c)
		if err != nil {
			return err
		}

		req := apiplugins.Registration{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		p, err := plugins.Register(c.Request().Context(), bindplugins.ParseRegistration(req, user))
		if err != nil {
			return binderr.FromDomainError(err)
		}
		c.Logger().Infof("plugin registered: %s %s (id = %d) by %s", p.Name(), p.Version, p.Id, user)

		return c.JSON(http.StatusCreated, bindplugins.ComposeDetail(*p))
	}
}

func GetPluginHandler(plugins plugin.Interface, pluginIdParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		pluginId, err := idParam(c, pluginIdParam)
		if err != nil {
			return err
		}

		p, err := plugins.Get(c.Request().Context(), pluginId)
		if err != nil {
			return binderr.FromDomainError(err)
		}
		return c.JSON(http.StatusOK, bindplugins.ComposeDetail(*p))
	}
}

func GetPluginMetaHandler(plugins plugin.Interface, pluginNameParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		meta, err := plugins.GetMeta(c.Request().Context(), c.Param(pluginNameParam))
		if err != nil {
			return binderr.FromDomainError(err)
		}
		return c.JSON(http.StatusOK, bindplugins.ComposeMeta(*meta))
	}
}

func PluginMetaUpdateHandler(plugins plugin.Interface, identity Identity, pluginNameParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := identity.User(c)
		if err != nil {
			return err
		}
		name := c.Param(pluginNameParam)

		req := apiplugins.MetaUpdate{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		meta, err := plugins.UpdateOwnedMeta(c.Request().Context(), user, name, bindplugins.ParseMetaUpdate(req))
		if err != nil {
			return binderr.FromDomainError(err)
		}
		c.Logger().Infof(
			"plugin meta updated: %s (public_repo = %q, new_owner = %q) by %s",
			name, pointer.SafeDeref(req.PublicRepo), pointer.SafeDeref(req.NewOwner), user,
		)

		return c.JSON(http.StatusOK, bindplugins.ComposeMeta(*meta))
	}
}

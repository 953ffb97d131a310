package handlers

import (
	"encoding/json"
	"strconv"
	"strings"

	binderr "github.com/chrisstore/store/pkg/api-types-binding/errors"
	"github.com/labstack/echo/v4"
)

// Identity reads the acting user from a request header.
//
// The header is set by the authenticating proxy in front of the server.
type Identity struct {
	Header string
}

// User returns the acting user, or 401 error when the request is anonymous.
func (i Identity) User(c echo.Context) (string, error) {
	user := strings.TrimSpace(c.Request().Header.Get(i.Header))
	if user == "" {
		return "", binderr.Unauthorized("authentication credentials were not provided.", nil)
	}
	return user, nil
}

// Viewer returns the acting user. Anonymous requests get "".
func (i Identity) Viewer(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get(i.Header))
}

func bindJSON(c echo.Context, v any) error {
	req := c.Request()
	ctyp := strings.ToLower(req.Header.Get("content-type"))
	if !strings.HasPrefix(ctyp, echo.MIMEApplicationJSON) {
		return binderr.BadRequest(
			"unexpected content type. it shoule be application/json", nil,
		)
	}

	dec := json.NewDecoder(req.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return binderr.BadRequest(
			"can not understand the requested json", err,
		)
	}
	return nil
}

// idParam reads an integer path parameter. Malformed ids are not found.
func idParam(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, binderr.NotFound()
	}
	return id, nil
}

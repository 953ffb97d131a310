package echoutil

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// RequestLogger logs each request and its response.
//
// When userHeader is not empty, the user named by the header is logged too.
// Anonymous requests are logged as "-".
func RequestLogger(userHeader string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			user := "-"
			if userHeader != "" {
				if u := strings.TrimSpace(req.Header.Get(userHeader)); u != "" {
					user = u
				}
			}

			begin := time.Now()
			c.Logger().Infof("< request @[%s] %s %s (user = %s)", begin, req.Method, req.URL, user)

			err := next(c)

			end := time.Now()
			c.Logger().Infof(
				"> response @[%s] status = %d (for request @[%s] %s %s) in %v / error = %+v",
				end, c.Response().Status, begin, req.Method, req.URL, end.Sub(begin), err,
			)
			return err
		}
	}
}

// SetLevel sets log level of e by name: debug, info, warn, error or off.
//
// Unknown names fall back to warn.
func SetLevel(e *echo.Echo, loglevel string) {
	levels := map[string]log.Lvl{
		"debug": log.DEBUG,
		"info":  log.INFO,
		"warn":  log.WARN,
		"":      log.WARN,
		"error": log.ERROR,
		"off":   log.OFF,
	}
	lvl, ok := levels[strings.ToLower(loglevel)]
	if !ok {
		e.Logger.SetLevel(log.WARN)
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", loglevel)
		return
	}
	e.Logger.SetLevel(lvl)
}

package echoapi

import (
	"net/url"

	"github.com/labstack/echo/v4"
)

var binder = new(echo.DefaultBinder)

// bindQueryAndBody binds query params then the request body, whatever the HTTP method.
func bindQueryAndBody(ctx echo.Context, i interface{}) error {
	if err := binder.BindQueryParams(ctx, i); err != nil {
		return err
	}
	return binder.BindBody(ctx, i)
}

func bindQuery(ctx echo.Context, i interface{}) error {
	return binder.BindQueryParams(ctx, i)
}

// nameParam returns the `:name` path param, unescaped.
func nameParam(ctx echo.Context) string {
	return pathParam(ctx, "name")
}

// pathParam returns a path param unescaped once.
// echo routes on URL.RawPath when it is set and on the already decoded URL.Path otherwise.
func pathParam(ctx echo.Context, name string) string {
	raw := ctx.Param(name)
	if ctx.Request().URL.RawPath == "" {
		return raw
	}
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}

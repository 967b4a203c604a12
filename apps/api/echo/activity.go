package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mergington/roster/core/activity"
)

type activityApi struct {
	*handler
}

func registerActivityAPI(app *echo.Echo, auth echo.MiddlewareFunc, h *handler) {
	api := activityApi{handler: h}

	// signups are open unless configured otherwise
	signupMw := make([]echo.MiddlewareFunc, 0, 1)
	if h.conf.Auth.ProtectSignups {
		signupMw = append(signupMw, auth)
	}

	g := app.Group("/activities")
	g.GET("", api.query)
	g.POST("", api.create, auth)
	g.PUT("/:name", api.update, auth)
	g.DELETE("/:name", api.destroy, auth)

	g.POST("/:name/signup", api.signup, signupMw...)
	g.DELETE("/:name/unregister", api.unregister, signupMw...)

	g.POST("/:name/assign-admin", api.assignAdmin, auth)
	g.DELETE("/:name/remove-admin", api.removeAdmin, auth)
}

func (api *activityApi) member(ctx echo.Context) (activity.Member, error) {
	var data activity.Member
	if err := bindQuery(ctx, &data); err != nil {
		return data, errors.Wrap(err, "binding to Member")
	}
	return data, data.Validate(api.validate)
}

// Handlers

func (api *activityApi) query(ctx echo.Context) error {
	acts, err := api.activitySvc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *activityApi) create(ctx echo.Context) error {
	var data activity.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	if name := ctx.QueryParam("name"); name != "" {
		data.Name = name
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	act, err := api.activitySvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating activity")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Activity '%s' created successfully", act.Name)})
}

func (api *activityApi) update(ctx echo.Context) error {
	name := nameParam(ctx)

	var data activity.UpdateActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateActivity")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.activitySvc.Update(ctx.Request().Context(), name, data); err != nil {
		return errors.Wrap(err, "updating activity")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Activity '%s' updated successfully", name)})
}

func (api *activityApi) destroy(ctx echo.Context) error {
	name := nameParam(ctx)
	if err := api.activitySvc.Delete(ctx.Request().Context(), name); err != nil {
		return errors.Wrap(err, "deleting activity")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Activity '%s' deleted successfully", name)})
}

func (api *activityApi) signup(ctx echo.Context) error {
	name := nameParam(ctx)
	data, err := api.member(ctx)
	if err != nil {
		return err
	}

	if err = api.activitySvc.Signup(ctx.Request().Context(), name, data.Email); err != nil {
		return errors.Wrap(err, "signing up")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Signed up %s for %s", data.Email, name)})
}

func (api *activityApi) unregister(ctx echo.Context) error {
	name := nameParam(ctx)
	data, err := api.member(ctx)
	if err != nil {
		return err
	}

	if err = api.activitySvc.Unregister(ctx.Request().Context(), name, data.Email); err != nil {
		return errors.Wrap(err, "unregistering")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Unregistered %s from %s", data.Email, name)})
}

func (api *activityApi) assignAdmin(ctx echo.Context) error {
	name := nameParam(ctx)
	data, err := api.member(ctx)
	if err != nil {
		return err
	}

	if err = api.activitySvc.AssignAdmin(ctx.Request().Context(), name, data.Email); err != nil {
		return errors.Wrap(err, "assigning admin")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Assigned %s as admin for %s", data.Email, name)})
}

func (api *activityApi) removeAdmin(ctx echo.Context) error {
	name := nameParam(ctx)
	data, err := api.member(ctx)
	if err != nil {
		return err
	}

	if err = api.activitySvc.RemoveAdmin(ctx.Request().Context(), name, data.Email); err != nil {
		return errors.Wrap(err, "removing admin")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Removed %s as admin for %s", data.Email, name)})
}

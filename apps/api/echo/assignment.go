package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mergington/roster/core/activity"
)

type AssignmentResponse struct {
	Message    string              `json:"message"`
	Assignment activity.Assignment `json:"assignment"`
}

type assignmentApi struct {
	*handler
}

func registerAssignmentAPI(app *echo.Echo, auth echo.MiddlewareFunc, h *handler) {
	api := assignmentApi{handler: h}

	g := app.Group("/assignments")
	g.GET("", api.query)
	g.POST("", api.create, auth)
	g.DELETE("/:name", api.destroy, auth)
}

func (api *assignmentApi) query(ctx echo.Context) error {
	asgs, err := api.activitySvc.Assignments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data activity.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.activitySvc.Assign(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "assigning activity")
	}
	return ctx.JSON(http.StatusOK, AssignmentResponse{
		Message:    fmt.Sprintf("Assigned %s to manage %s", asg.AssignedTo, asg.ActivityName),
		Assignment: asg,
	})
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	name := nameParam(ctx)
	if err := api.activitySvc.Unassign(ctx.Request().Context(), name); err != nil {
		return errors.Wrap(err, "unassigning activity")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Assignment for %s removed", name)})
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mergington/roster/core/activity"
)

type FeedbackResponse struct {
	Message  string            `json:"message"`
	Feedback activity.Feedback `json:"feedback"`
}

type feedbackApi struct {
	*handler
}

func registerFeedbackAPI(app *echo.Echo, h *handler) {
	api := feedbackApi{handler: h}

	app.POST("/activities/:name/feedback", api.create)
	app.GET("/dashboard/:email", api.dashboard)
}

func (api *feedbackApi) create(ctx echo.Context) error {
	var data activity.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	fb, err := api.activitySvc.SubmitFeedback(ctx.Request().Context(), nameParam(ctx), data)
	if err != nil {
		return errors.Wrap(err, "submitting feedback")
	}
	return ctx.JSON(http.StatusOK, FeedbackResponse{Message: "Feedback submitted successfully", Feedback: fb})
}

func (api *feedbackApi) dashboard(ctx echo.Context) error {
	dash, err := api.activitySvc.Dashboard(ctx.Request().Context(), pathParam(ctx, "email"))
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

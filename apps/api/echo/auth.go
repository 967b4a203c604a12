package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mergington/roster/core/teacher"
)

const (
	authScheme        = "Bearer"
	contextSessionKey = "session"
)

type (
	LoginResponse struct {
		Token string `json:"token"`
		Role  string `json:"role"`
		Name  string `json:"name"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}
)

type authApi struct {
	*handler
}

func registerAuthAPI(app *echo.Echo, h *handler) {
	api := authApi{handler: h}

	app.POST("/login", api.login)
	app.POST("/logout", api.logout)
}

// bearerToken extracts the token of an `Authorization: Bearer <token>` header.
func bearerToken(ctx echo.Context) string {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	prefix := authScheme + " "
	l := len(prefix)
	if len(auth) > l && strings.EqualFold(auth[:l], prefix) {
		return strings.TrimSpace(auth[l:])
	}
	return ""
}

func contextSession(ctx echo.Context) (teacher.Session, bool) {
	sess, ok := ctx.Get(contextSessionKey).(teacher.Session)
	return sess, ok
}

// teacherMiddleware rejects requests without a live teacher session.
func teacherMiddleware(svc *teacher.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := svc.Authenticate(ctx.Request().Context(), bearerToken(ctx))
			if err != nil {
				return errors.Wrap(err, "authenticating")
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func (api *authApi) login(ctx echo.Context) error {
	var data teacher.Credentials
	if err := bindQueryAndBody(ctx, &data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.teacherSvc.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: sess.Token, Role: sess.Role, Name: sess.Name})
}

func (api *authApi) logout(ctx echo.Context) error {
	if err := api.teacherSvc.Logout(ctx.Request().Context(), bearerToken(ctx)); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mergington/roster/services/spreadsheet"
)

const exportFilename = "roster.xlsx"

type ImportResponse struct {
	Message  string `json:"message"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

type spreadsheetApi struct {
	*handler
}

func registerSpreadsheetAPI(app *echo.Echo, auth echo.MiddlewareFunc, h *handler) {
	api := spreadsheetApi{handler: h}

	app.GET("/activities/export", api.export, auth)
	app.POST("/activities/:name/import", api.importEmails, auth)
}

func (api *spreadsheetApi) export(ctx echo.Context) error {
	acts, err := api.activitySvc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}

	var buf bytes.Buffer
	if err = spreadsheet.Export(&buf, acts); err != nil {
		return errors.Wrap(err, "exporting roster")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exportFilename))
	return ctx.Blob(http.StatusOK, spreadsheet.ContentType, buf.Bytes())
}

func (api *spreadsheetApi) importEmails(ctx echo.Context) error {
	name := nameParam(ctx)

	fh, err := ctx.FormFile("file")
	if err != nil {
		return errMissingFile
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = file.Close() }()

	emails, err := spreadsheet.ImportEmails(file, name)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid spreadsheet").SetInternal(err)
	}

	valid := make([]string, 0, len(emails))
	for _, email := range emails {
		if api.validate.Var(email, "email") == nil {
			valid = append(valid, email)
		}
	}

	imported, skipped, err := api.activitySvc.Import(ctx.Request().Context(), name, valid)
	if err != nil {
		return errors.Wrap(err, "importing participants")
	}
	skipped += len(emails) - len(valid)

	return ctx.JSON(http.StatusOK, ImportResponse{
		Message:  fmt.Sprintf("Imported %d participants into %s", imported, name),
		Imported: imported,
		Skipped:  skipped,
	})
}

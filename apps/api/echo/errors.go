package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mergington/roster/core"
)

var (
	errMissingFile = core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file is required"})
)

// statusCodes maps domain error kinds to HTTP status codes.
var statusCodes = map[core.ErrorKind]int{
	core.KindNotFound:     http.StatusNotFound,
	core.KindConflict:     http.StatusBadRequest,
	core.KindInvalidState: http.StatusBadRequest,
	core.KindUnauthorized: http.StatusUnauthorized,
}

type ErrorResponse struct {
	Detail interface{} `json:"detail"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var detail interface{}

		switch origErr := errors.Cause(err).(type) {
		case *core.Error:
			code = statusCodes[origErr.Kind]
			if code == 0 {
				code = http.StatusBadRequest
			}
			detail = origErr.Msg
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			detail = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			detail = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				detail = fldErrs
			} else {
				detail = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			detail = msg

			args := []interface{}{errors.Wrap(err, msg)}
			if sess, ok := contextSession(ctx); ok {
				args = append(args, sess)
			}
			logger.Error(msg, args...)

			if ctx.Echo().Debug {
				detail = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, ErrorResponse{Detail: detail})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

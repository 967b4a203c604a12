package shared

import (
	"fmt"

	"github.com/pkg/errors"
)

// ArgumentError reports a bad command line argument or config value.
type ArgumentError struct {
	msg string
}

func NewArgumentError(format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{msg: fmt.Sprintf(format, args...)}
}

func (err *ArgumentError) Error() string {
	return err.msg
}

func IsArgumentError(err error) bool {
	var argErr *ArgumentError
	return errors.As(err, &argErr)
}

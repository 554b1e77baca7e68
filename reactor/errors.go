package reactor

import (
	"errors"
	"strings"
)

// ErrTooManyConns means the connection limit was hit and the accept was
// discarded.
var ErrTooManyConns = errors.New("too many open connections")

type MultiError []error

func (m MultiError) Error() string {
	var b strings.Builder
	b.WriteString("multiple errors:")
	for _, err := range m {
		b.WriteString("\n- " + err.Error())
	}
	return b.String()
}

package reactor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEchoReturnsRequest(t *testing.T) {
	req := []byte("hello\n")
	assert.Equal(t, req, Echo{}.Serve(req))
}

func TestLineHandlerTransformsEachLine(t *testing.T) {
	h := LineHandler{
		Terminator: '\n',
		Fn:         bytes.ToUpper,
	}

	assert.Equal(t, []byte("AB\nCD\n"), h.Serve([]byte("ab\ncd\n")))
	assert.Equal(t, []byte("AB\nCD"), h.Serve([]byte("ab\ncd")))
	assert.Empty(t, h.Serve(nil))
}

func TestLineHandlerKeepsEmptyLines(t *testing.T) {
	h := LineHandler{
		Terminator: '\n',
		Fn:         func(line []byte) []byte { return line },
	}

	assert.Equal(t, []byte("\n\nx\n"), h.Serve([]byte("\n\nx\n")))
}

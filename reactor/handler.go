// Package reactor implements a single-threaded TCP server core: one
// poll(2)-driven event loop multiplexes every connection, each of which
// walks a Reading -> Writing -> Closing state machine without ever blocking
// on a socket.
package reactor

import (
	"bytes"

	"github.com/valyala/bytebufferpool"
)

// Handler is the protocol layer above the loop. It receives the bytes a
// connection accumulated while Reading and returns the bytes to transmit
// back. The loop never interprets either slice; req is only valid for the
// duration of the call.
type Handler interface {
	Serve(req []byte) []byte
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(req []byte) []byte

func (f HandlerFunc) Serve(req []byte) []byte {
	return f(req)
}

// Echo replies with the request unchanged.
type Echo struct{}

func (Echo) Serve(req []byte) []byte {
	return req
}

// LineHandler applies Fn to every terminator-delimited line of the request
// and joins the transformed lines back with the same terminator. A trailing
// fragment without terminator is passed through Fn as-is.
type LineHandler struct {
	Terminator byte
	Fn         func(line []byte) []byte
}

func (h LineHandler) Serve(req []byte) []byte {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	for len(req) > 0 {
		i := bytes.IndexByte(req, h.Terminator)
		if i < 0 {
			bb.Write(h.Fn(req))
			break
		}
		bb.Write(h.Fn(req[:i]))
		bb.WriteByte(h.Terminator)
		req = req[i+1:]
	}

	// bb goes back to the pool, hand out a copy.
	out := make([]byte, bb.Len())
	copy(out, bb.B)
	return out
}

package greeter

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/inconshreveable/go-vhost"
)

var (
	ErrAlreadyExists = errors.New("virtual host already registered")
	ErrUnknownHost   = errors.New("unknown virtual host")
	ErrBadRequest    = errors.New("malformed request")
	ErrServer        = errors.New("internal server error")
)

// wrapAlreadyBound translates the muxer's "name ... is already bound" error,
// go-vhost has no typed error for it.
func wrapAlreadyBound(err error) error {
	if err != nil && strings.Contains(err.Error(), "is already bound") {
		return ErrAlreadyExists
	}
	return err
}

// muxStatus maps a muxer error to the status code and the reply body for the
// client.  Zero code means the connection gets no reply.
func muxStatus(err error) (int, error) {
	switch err.(type) {
	case vhost.BadRequest:
		return http.StatusBadRequest, ErrBadRequest
	case vhost.NotFound:
		return http.StatusNotFound, ErrUnknownHost
	case vhost.Closed:
		return 0, nil
	}
	if errors.Is(err, net.ErrClosed) {
		return 0, nil
	}
	return http.StatusInternalServerError, ErrServer
}

// drainMuxErrors replies to the connections the muxer could not route, until
// done is closed.
func drainMuxErrors(vm *vhost.HTTPMuxer, lg Logger, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		conn, err := vm.NextError()
		if conn == nil {
			continue
		}
		code, reply := muxStatus(err)
		if code != 0 {
			lg.Printf("rejecting %s with %d: %v", conn.RemoteAddr(), code, err)
			reject(conn, lg, code, reply)
		}
		conn.Close()
	}
}

// reject writes a plain text response with the given code to conn.
func reject(conn net.Conn, lg Logger, code int, reply error) {
	if code == 0 {
		code = http.StatusInternalServerError
	}
	body := reply.Error()
	resp := &http.Response{
		StatusCode:    code,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
		ContentLength: int64(len(body)),
		Body:          io.NopCloser(strings.NewReader(body)),
		Close:         true,
	}
	if err := resp.Write(conn); err != nil {
		lg.Printf("reply to %s failed: %v", conn.RemoteAddr(), err)
	}
}

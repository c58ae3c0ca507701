package greeter

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusq/greeter/client"
)

var discard = log.New(io.Discard, "", 0)

// noKeepAlive returns a client that opens a new connection for every
// request, so that each request is routed by the vhost muxer.
func noKeepAlive() *http.Client {
	return &http.Client{
		Transport: &http.Transport{DisableKeepAlives: true},
		Timeout:   5 * time.Second,
	}
}

func newClient(t *testing.T, s *Server, opts ...client.Option) *client.Client {
	t.Helper()
	opts = append([]client.Option{client.WithHTTPClient(noKeepAlive())}, opts...)
	c, err := client.NewClient("http://"+s.Addr().String(), opts...)
	require.NoError(t, err)
	return c
}

func TestListen(t *testing.T) {
	s, err := Listen("127.0.0.1:0", WithLogger(discard))
	require.NoError(t, err)
	assert.Nil(t, s.Hosts())

	c := newClient(t, s)
	home, err := c.Home()
	require.NoError(t, err)
	assert.Equal(t, HomeBody, home)
	hello, err := c.Hello()
	require.NoError(t, err)
	assert.Equal(t, HelloBody, hello)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Wait())
}

func TestListen_defaultLogger(t *testing.T) {
	out := captureStdout(t, func() {
		s, err := Listen("127.0.0.1:0")
		require.NoError(t, err)
		_, err = newClient(t, s).Hello()
		require.NoError(t, err)
		require.NoError(t, s.Close())
		require.NoError(t, s.Wait())
	})
	assert.Contains(t, out, "greeter: ")
	assert.Contains(t, out, "New User connected")
}

func TestListen_addrInUse(t *testing.T) {
	s, err := Listen("127.0.0.1:0", WithLogger(discard))
	require.NoError(t, err)
	defer s.Close()

	_, err = Listen(s.Addr().String(), WithLogger(discard))
	assert.Error(t, err)
}

func TestListen_virtualHosts(t *testing.T) {
	s, err := Listen("127.0.0.1:0",
		WithLogger(discard),
		WithTimeout(time.Second),
		WithVirtualHosts("greeter.test", "www.greeter.test"),
	)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, []string{"greeter.test", "www.greeter.test"}, s.Hosts())

	t.Run("known hosts", func(t *testing.T) {
		for _, host := range s.Hosts() {
			c := newClient(t, s, client.WithHost(host))
			hello, err := c.Hello()
			require.NoError(t, err)
			assert.Equal(t, HelloBody, hello)
			home, err := c.Home()
			require.NoError(t, err)
			assert.Equal(t, HomeBody, home)
		}
	})
	t.Run("unknown host", func(t *testing.T) {
		c := newClient(t, s, client.WithHost("elsewhere.test"))
		_, err := c.Hello()
		require.Error(t, err)
		assert.ErrorIs(t, err, client.ErrUnexpectedStatus)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestListen_malformedRequest(t *testing.T) {
	s, err := Listen("127.0.0.1:0",
		WithLogger(discard),
		WithTimeout(time.Second),
		WithVirtualHosts("greeter.test"),
	)
	require.NoError(t, err)
	defer s.Close()

	conn, err := net.DialTimeout("tcp", s.Addr().String(), 5*time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	_, err = io.WriteString(conn, "this is not http\r\n\r\n")
	require.NoError(t, err)

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListen_duplicateVirtualHost(t *testing.T) {
	_, err := Listen("127.0.0.1:0",
		WithLogger(discard),
		WithVirtualHosts("greeter.test", "greeter.test"),
	)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestServer_Shutdown(t *testing.T) {
	s, err := Listen("127.0.0.1:0", WithLogger(discard), WithVirtualHosts("greeter.test"))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Wait() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, s.Shutdown(ctx), "second shutdown")

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after Shutdown")
	}
}

func Test_wrapAlreadyBound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"bound", errors.New("name greeter.test is already bound"), ErrAlreadyExists},
		{"other", io.EOF, io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapAlreadyBound(tt.err))
		})
	}
}

func Test_reject(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		err      error
		wantCode int
		wantBody string
	}{
		{"not found", http.StatusNotFound, ErrUnknownHost, http.StatusNotFound, ErrUnknownHost.Error()},
		{"server error", http.StatusInternalServerError, ErrServer, http.StatusInternalServerError, ErrServer.Error()},
		{"no code", 0, errors.New("oops"), http.StatusInternalServerError, "oops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srvConn, cliConn := net.Pipe()
			defer cliConn.Close()
			go func() {
				reject(srvConn, discard, tt.code, tt.err)
				srvConn.Close()
			}()

			resp, err := http.ReadResponse(bufio.NewReader(cliConn), nil)
			require.NoError(t, err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, tt.wantBody, strings.TrimSpace(string(body)))
		})
	}
}

func Test_muxStatus(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantReply error
	}{
		{"closed listener", &net.OpError{Op: "accept", Net: "tcp", Err: net.ErrClosed}, 0, nil},
		{"other", io.ErrUnexpectedEOF, http.StatusInternalServerError, ErrServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, reply := muxStatus(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantReply, reply)
		})
	}
}

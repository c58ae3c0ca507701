package greeter

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/inconshreveable/go-vhost"
	"golang.org/x/sync/errgroup"
)

// Server serves the greeting routes on a TCP listener, either directly or
// through a virtual host muxer.  Zero value is not usable.
type Server struct {
	ln    net.Listener     // main listener
	vhm   *vhost.HTTPMuxer // nil in plain mode
	hosts []string         // served virtual hosts
	srv   *http.Server
	lg    Logger
	eg    *errgroup.Group
	done  chan struct{}
	once  sync.Once
	clErr error
}

// Option is a functional option for the server.
type Option func(*options)

type options struct {
	timeout time.Duration
	hosts   []string
	lg      Logger
}

// WithTimeout sets the timeout for reading the Host header of incoming
// connections in the virtual host mode.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithVirtualHosts enables the virtual host mode.  Only requests for the
// given host names are served; names must match the Host header, including
// the port, if clients send one.
func WithVirtualHosts(names ...string) Option {
	return func(o *options) {
		o.hosts = append(o.hosts, names...)
	}
}

// WithLogger sets the log stream for both the request handlers and the
// server itself.
func WithLogger(lg Logger) Option {
	return func(o *options) {
		if lg != nil {
			o.lg = lg
		}
	}
}

// Listen starts listening on the given address and serving in the
// background.
func Listen(addr string, opts ...Option) (*Server, error) {
	o := &options{
		timeout: 100 * time.Millisecond,
		lg:      stdoutLogger("greeter: "),
	}
	for _, opt := range opts {
		opt(o)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		ln:   ln,
		srv:  &http.Server{Handler: Handler(o.lg)},
		lg:   o.lg,
		eg:   new(errgroup.Group),
		done: make(chan struct{}),
	}
	if len(o.hosts) == 0 {
		s.serve(ln)
		return s, nil
	}

	vhm, err := vhost.NewHTTPMuxer(ln, o.timeout)
	if err != nil {
		ln.Close()
		return nil, err
	}
	s.vhm = vhm
	for _, name := range o.hosts {
		if err := s.add(name); err != nil {
			s.Close()
			return nil, err
		}
	}
	go drainMuxErrors(vhm, s.lg, s.done)
	return s, nil
}

// add registers the virtual host and starts serving it.
func (s *Server) add(name string) error {
	s.lg.Printf("setting up virtual host %s", name)
	ml, err := s.vhm.Listen(name)
	if err != nil {
		return wrapAlreadyBound(err)
	}
	s.hosts = append(s.hosts, name)
	s.serve(ml)
	return nil
}

func (s *Server) serve(l net.Listener) {
	s.eg.Go(func() error {
		if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.lg.Printf("error: %v", err)
			return err
		}
		return nil
	})
}

// Addr returns the address of the main listener.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Hosts returns the names of the served virtual hosts.  It returns nil in
// the plain mode.
func (s *Server) Hosts() []string {
	if len(s.hosts) == 0 {
		return nil
	}
	names := make([]string, len(s.hosts))
	copy(names, s.hosts)
	return names
}

// Shutdown gracefully stops the server.  It is safe to call more than once,
// subsequent calls return the result of the first one.
func (s *Server) Shutdown(ctx context.Context) error {
	s.once.Do(func() {
		defer close(s.done)
		// closes the main listener or, in the vhost mode, the per-host ones.
		s.clErr = s.srv.Shutdown(ctx)
		if s.vhm != nil {
			s.vhm.Close()
		}
	})
	return s.clErr
}

// Close stops the server, waiting for the active requests to finish.
func (s *Server) Close() error {
	return s.Shutdown(context.Background())
}

// Wait blocks until all serving goroutines exit, and returns the first
// serving error, if any.
func (s *Server) Wait() error {
	return s.eg.Wait()
}

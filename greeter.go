// Package greeter implements a tiny HTTP service with two fixed greeting
// routes.
package greeter

import (
	"log"
	"net/http"
	"os"

	"github.com/julienschmidt/httprouter"
)

// Response bodies of the two routes.
const (
	HomeBody  = "Welcome this is a Spring boot app"
	HelloBody = "Hello, Spring Boot!"
)

// Route is a single entry in the route table.
type Route struct {
	Method string
	Path   string
	// Body is the constant response body.
	Body string
	// Message is written to the log stream on every handled request.
	Message string
}

var routes = [...]Route{
	{Method: http.MethodGet, Path: "/", Body: HomeBody, Message: "Someone Home"},
	{Method: http.MethodGet, Path: "/hello", Body: HelloBody, Message: "New User connected"},
}

// Routes returns a copy of the route table.
func Routes() []Route {
	rs := make([]Route, len(routes))
	copy(rs, routes[:])
	return rs
}

//go:generate mockgen -destination=mocks/mock_logger.go -package=mocks github.com/rusq/greeter Logger

// Logger is the log stream.  It must be safe for concurrent use, which
// *log.Logger is.
type Logger interface {
	Print(v ...any)
	Printf(format string, v ...any)
}

// Handler returns the http.Handler serving the route table.  Requests for
// unknown paths get 404, and non-GET requests on known paths get 405.  If lg
// is nil, the log lines go to the standard output.
func Handler(lg Logger) http.Handler {
	if lg == nil {
		lg = stdoutLogger("")
	}
	router := httprouter.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.HandleOPTIONS = false
	router.HandleMethodNotAllowed = true
	for _, rt := range routes {
		router.Handle(rt.Method, rt.Path, greet(lg, rt))
	}
	return router
}

// stdoutLogger returns a logger writing to the standard output.
func stdoutLogger(prefix string) *log.Logger {
	return log.New(os.Stdout, prefix, log.Default().Flags())
}

// greet returns the handler for the route.
func greet(lg Logger, rt Route) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		lg.Print(rt.Message)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(rt.Body))
	}
}

// Command greetcheck calls both greeting endpoints and exits with non-zero
// status if any of them fails.  It is meant to be used as a container health
// check.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/rusq/osenv/v2"

	"github.com/rusq/greeter/client"
)

var (
	baseURL = flag.String("url", osenv.Value("GREETER_URL", "http://localhost:8080"), "greeter base `URL`")
	vhost   = flag.String("vhost", osenv.Value("GREETER_VHOST", ""), "virtual `host` to request")
	timeout = flag.Duration("timeout", 5*time.Second, "request timeout")
)

func main() {
	flag.Parse()

	cl, err := client.NewClient(*baseURL,
		client.WithHTTPClient(&http.Client{Timeout: *timeout}),
		client.WithHost(*vhost),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := check(os.Stdout, cl); err != nil {
		log.Fatal(err)
	}
}

type greetings interface {
	Home() (string, error)
	Hello() (string, error)
}

func check(w io.Writer, g greetings) error {
	for _, ep := range []struct {
		path string
		fn   func() (string, error)
	}{
		{"/", g.Home},
		{"/hello", g.Hello},
	} {
		body, err := ep.fn()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", ep.path, body)
	}
	return nil
}

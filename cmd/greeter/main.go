// Command greeter runs the greeting service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rusq/osenv/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rusq/greeter"
)

var (
	host       = flag.String("host", osenv.Value("GREETER_HOST", ""), "`host` to listen on, all interfaces if empty")
	port       = flag.String("port", osenv.Value("PORT", ""), "`port` to listen on (default \"8080\")")
	config     = flag.String("config", osenv.Value("GREETER_CONFIG", ""), "JSON configuration `file`")
	vhosts     = flag.String("vhosts", osenv.Value("GREETER_VHOSTS", ""), "comma separated list of virtual `hosts` to serve, if empty, requests for any host are served")
	timeout    = flag.Duration("timeout", 0, "virtual host detection timeout (default 100ms)")
	shutdownTO = flag.Duration("shutdown", 0, "graceful shutdown timeout (default 5s)")
	verbose    = flag.Bool("v", false, "verbose logging")
)

func main() {
	flag.Parse()

	log.SetOutput(os.Stdout)
	if *verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg, err := parseCmdLine()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
	log.Print("server stopped")
}

// parseCmdLine builds the configuration: defaults, then the config file, if
// any, then the command line parameters.
func parseCmdLine() (*Config, error) {
	cfg := defaultConfig()
	if *config != "" {
		if err := loadConfig(*config, &cfg); err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", *config, err)
		}
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *vhosts != "" {
		cfg.VirtualHosts = splitList(*vhosts)
	}
	if *timeout > 0 {
		cfg.Timeout = duration(*timeout)
	}
	if *shutdownTO > 0 {
		cfg.ShutdownTimeout = duration(*shutdownTO)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(s string) []string {
	var ret []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			ret = append(ret, v)
		}
	}
	return ret
}

// run serves until ctx is cancelled, then shuts the server down.
func run(ctx context.Context, cfg *Config) error {
	srv, err := greeter.Listen(cfg.Address(),
		greeter.WithVirtualHosts(cfg.VirtualHosts...),
		greeter.WithTimeout(time.Duration(cfg.Timeout)),
	)
	if err != nil {
		return err
	}
	log.Printf("listening on %s", srv.Addr())
	if hosts := srv.Hosts(); len(hosts) > 0 {
		log.Printf("serving virtual hosts: %s", strings.Join(hosts, ", "))
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(srv.Wait)
	eg.Go(func() error {
		<-ctx.Done()
		log.Print("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout))
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return eg.Wait()
}

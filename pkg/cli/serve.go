package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getmockd/intercept/pkg/bridge"
	"github.com/getmockd/intercept/pkg/config"
	"github.com/getmockd/intercept/pkg/logging"
	"github.com/getmockd/intercept/pkg/metrics"
	"github.com/getmockd/intercept/pkg/mock"
	"github.com/getmockd/intercept/pkg/proxy"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

var (
	serveConfig    string
	serveListen    string
	serveOrigin    string
	serveUnhandled string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interception proxy",
	Long: `Serve loads the config file, registers its routes on the proxy engine,
and answers HTTP traffic until interrupted.

Point your application's HTTP proxy at the listen address, or send
origin-form requests to it directly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "", "Path to the config file (default: discover intercept.yaml)")
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Listen address, overrides the config file")
	serveCmd.Flags().StringVar(&serveOrigin, "origin", "", "Origin assumed for host-less routes, overrides the config file")
	serveCmd.Flags().StringVar(&serveUnhandled, "unhandled", "", "Treatment of unmatched requests: bypass or block")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	path := serveConfig
	if path == "" {
		discovered, err := config.Discover()
		if err != nil {
			return err
		}
		path = discovered
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}
	if serveOrigin != "" {
		cfg.Origin = serveOrigin
	}
	if serveUnhandled != "" {
		cfg.Unhandled = serveUnhandled
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: logging.ParseFormat(cfg.Logging.Format),
	})

	handler, p, err := buildHandler(cfg, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info("proxy listening",
		"addr", cfg.Listen,
		"config", path,
		"routes", p.Routes(),
		"unhandled", cfg.Unhandled)
	fmt.Printf("intercept listening on %s (%d routes, unhandled: %s)\n", cfg.Listen, p.Routes(), cfg.Unhandled)

	return runMainLoop(srv, errCh)
}

// runMainLoop blocks until the listener fails or the process receives
// SIGINT or SIGTERM, then drains in-flight requests before returning.
func runMainLoop(srv *http.Server, errCh <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigChan:
	}

	fmt.Println("\nShutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	fmt.Println("Server stopped")
	return nil
}

// buildHandler assembles the serving stack for a loaded config: mock
// store, proxy engine, bridge, and the optional metrics endpoint.
func buildHandler(cfg *config.Config, log *slog.Logger) (http.Handler, *proxy.Proxy, error) {
	p, err := proxy.New(proxy.Options{
		Origin: cfg.Origin,
		Policy: proxy.Policy(cfg.Unhandled),
		Logger: log,
	})
	if err != nil {
		return nil, nil, err
	}

	opts := []bridge.Option{bridge.WithLogger(log)}
	if cfg.URLPrefix != "" {
		opts = append(opts, bridge.WithURLPrefix(cfg.URLPrefix))
	}
	if cfg.Namespace != "" {
		opts = append(opts, bridge.WithNamespace(cfg.Namespace))
	}
	if cfg.Origin != "" {
		opts = append(opts, bridge.WithOrigin(cfg.Origin))
	}
	if cfg.Timing > 0 {
		opts = append(opts, bridge.WithTiming(cfg.Timing.Std()))
	}

	b, err := bridge.New(mock.NewInMemoryServer(), p, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Apply(b); err != nil {
		return nil, nil, err
	}

	handler := http.Handler(p)
	if cfg.Metrics.Enabled {
		metrics.Init()
		// CONNECT requests carry no rooted path, so the metrics
		// endpoint wraps the proxy instead of sharing a mux with it.
		metricsHandler := metrics.Handler()
		metricsPath := cfg.Metrics.Path
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodConnect && r.URL.Path == metricsPath {
				metricsHandler.ServeHTTP(w, r)
				return
			}
			p.ServeHTTP(w, r)
		})
	}
	return handler, p, nil
}

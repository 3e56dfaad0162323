package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apphttp "conti/internal/http"
	applog "conti/internal/log"
	"conti/internal/middleware/ratelimit"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(a *app) *cobra.Command {
	var (
		addr string
		rpm  int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger as a local JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = ":8081"
				if a.rt.Config != nil {
					addr = ":" + a.rt.Config.Port
				}
			}
			srv := apphttp.NewServer(addr, a.household(), apphttp.Options{
				Logger:    a.rt.Logger,
				Metrics:   a.rt.Metrics,
				RateLimit: ratelimit.Config{RequestsPerMinute: rpm},
				Ready:     a.rt.Ready,
			})
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), srv, ln, a.rt.Logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :PORT)")
	cmd.Flags().IntVar(&rpm, "rate-limit", 0, "write requests per minute per client (default 120)")
	return cmd
}

// serve runs srv on ln until ctx is cancelled, then drains connections.
func serve(ctx context.Context, srv *apphttp.Server, ln net.Listener, logger *applog.Logger) error {
	if logger == nil {
		logger = applog.Discard()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting conti API", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down conti API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

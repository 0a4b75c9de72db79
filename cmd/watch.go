package cmd

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"time"

	"ticketshub/crosstab"
	"ticketshub/services"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep a tab open and follow changes from other tabs",
		Long: `Keep a tab open until interrupted. Session changes written by other tabs
of the profile are reconciled as they arrive. Every line read from stdin
counts as the window regaining focus and reconciles as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return a.withTab(ctx, func(t *tab) error {
				listener := crosstab.NewListener("session", t.feed, t.id,
					crosstab.ReconcilerFunc(func(ctx context.Context) error {
						if err := t.session().Reconcile(ctx); err != nil {
							return err
						}
						printUser(out, t.session().User())
						return nil
					}),
					crosstab.WithKeys(services.KeyUser, services.KeyTickets),
					crosstab.WithLogger(t.logger),
					crosstab.WithMonitor(a.monitor),
				)

				if a.cfg.EnableMetrics {
					stop := serveMetrics(a, ":"+a.cfg.MetricsPort)
					defer stop()
				}

				go func() {
					scanner := bufio.NewScanner(cmd.InOrStdin())
					for scanner.Scan() {
						listener.NotifyFocus()
					}
				}()

				printUser(out, t.session().User())
				printLocation(out, t.location())
				return listener.Run(ctx)
			})
		},
	}
}

// serveMetrics exposes /metrics until the returned stop function runs.
func serveMetrics(a *app, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Warn("Failed to stop metrics server", "error", err)
		}
	}
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go-mod.ewintr.nl/fluxreader/service"
)

func watchCmd(opts *options) *cobra.Command {
	var interval time.Duration
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep checking the server and log unread entries per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("interval") {
				interval = opts.conf.Watch.Interval.Duration
			}
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = opts.conf.Watch.MetricsAddr
			}

			ctx := cmd.Context()
			a, err := opts.openApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close(cmd.ErrOrStderr())

			if err := a.login(ctx, opts.conf); err != nil {
				return err
			}

			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					a.logger.Info("serving metrics", "addr", metricsAddr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.logger.Error("metrics server stopped", "error", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
			}

			service.NewWatcher(a.stores, interval, a.logger).Run(ctx)

			return nil
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 10*time.Minute, "time between checks")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	return cmd
}

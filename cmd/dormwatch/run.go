package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runOnce bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitoring service",
	Long: `Starts the daily monitoring schedule and blocks until SIGINT or SIGTERM.
With --once, runs a single monitoring cycle immediately and exits.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Run one monitoring cycle now and exit")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runOnce {
		summary := a.scheduler.RunOnce(ctx)
		fmt.Printf("✓ Monitoring cycle %s\n", summary)
		return nil
	}

	if a.metrics != nil {
		srv := &http.Server{Addr: a.cfg.GetMetricsListen(), Handler: metricsMux(a)}
		go func() {
			a.logger.Info("serving metrics", zap.String("listen", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	a.scheduler.Start()
	fmt.Printf("✓ dormwatch running, next check at %s\n", a.scheduler.NextRun().Format("2006-01-02 15:04"))

	<-ctx.Done()
	a.logger.Info("received shutdown signal, stopping")
	a.scheduler.Stop()

	return nil
}

func metricsMux(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s\n", a.scheduler.State())
	})
	return mux
}

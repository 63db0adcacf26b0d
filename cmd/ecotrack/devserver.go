// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/devserver"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/observability"
)

const shutdownTimeout = 5 * time.Second

type devserverConfig struct {
	listen        string
	prefix        string
	metricsListen string
}

func newDevserverCmd(a *app) *cobra.Command {
	cfg := &devserverConfig{}

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run a local EcoTrack authentication API",
		Long: `Run an in-memory implementation of the EcoTrack authentication API for
development. Accounts are lost when the process exits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDevserver(ctx, cmd, a, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.listen, "listen", "127.0.0.1:5000", "API listen address")
	cmd.Flags().StringVar(&cfg.prefix, "prefix", "/api", "path prefix for API routes")
	cmd.Flags().StringVar(&cfg.metricsListen, "metrics-listen", "", "metrics and health listen address (disabled when empty)")
	return cmd
}

func runDevserver(ctx context.Context, cmd *cobra.Command, a *app, cfg *devserverConfig) error {
	var (
		ready   atomic.Bool
		metrics *observability.Metrics
		obsErrs <-chan error
	)

	if cfg.metricsListen != "" {
		obs := a.deps.ObservabilityServerFactory(cfg.metricsListen, ready.Load)
		errCh, err := obs.Start()
		if err != nil {
			return oops.Code("DEVSERVER_START_FAILED").With("component", "observability").Wrap(err)
		}
		obsErrs = errCh
		metrics = obs.Metrics()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := obs.Stop(stopCtx); err != nil {
				a.logger.Warn("stopping observability server", "error", err)
			}
		}()
	}

	srv := devserver.New(devserver.WithLogger(a.logger), devserver.WithMetrics(metrics))

	listener, err := net.Listen("tcp", cfg.listen)
	if err != nil {
		return oops.Code("DEVSERVER_START_FAILED").With("addr", cfg.listen).Wrap(err)
	}

	httpSrv := &http.Server{
		Handler:           srv.Handler(cfg.prefix),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErrs := make(chan error, 1)
	go func() {
		defer close(serveErrs)
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrs <- err
		}
	}()

	ready.Store(true)
	a.logger.Info("devserver listening", "addr", listener.Addr().String(), "prefix", cfg.prefix)
	fmt.Fprintf(cmd.OutOrStdout(), "API listening on http://%s%s\n", listener.Addr(), cfg.prefix)

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErrs:
		if ok {
			runErr = oops.Code("DEVSERVER_SERVE_FAILED").Wrap(err)
		}
	case err, ok := <-obsErrs:
		if ok {
			runErr = oops.Code("DEVSERVER_SERVE_FAILED").With("component", "observability").Wrap(err)
		}
	}
	ready.Store(false)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(stopCtx); err != nil && runErr == nil {
		runErr = oops.Code("DEVSERVER_SHUTDOWN_FAILED").Wrap(err)
	}
	a.logger.Info("devserver stopped")
	return runErr
}

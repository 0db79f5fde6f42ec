// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/shipframe/services/frame"
	storage "github.com/AleutianAI/shipframe/services/frame/storage/badger"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the frame service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.Log)

	// Graph-core metrics flow through the OTel meter into the default
	// Prometheus registry, next to the service's own promauto metrics.
	exporter, err := otelprom.New()
	if err != nil {
		return err
	}
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)))

	db, err := storage.Open(storage.Config{
		Path:       cfg.Storage.Path,
		InMemory:   cfg.Storage.InMemory,
		SyncWrites: cfg.Storage.SyncWrites,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	store := storage.NewFrameStore[frame.BeamData](db)
	svc, err := frame.NewService(store, cfg.Replication, logger)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	frame.RegisterRoutes(router.Group("/v1"), frame.NewHandlers(svc))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := &http.Server{Addr: cfg.Server.Addr, Handler: router}

	var metrics *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metrics = &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Frame service listening", "addr", cfg.Server.Addr)
		if err := api.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if metrics != nil {
		g.Go(func() error {
			logger.Info("Metrics listening", "addr", cfg.Server.MetricsAddr)
			if err := metrics.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := api.Shutdown(shutdownCtx)
		if metrics != nil {
			if merr := metrics.Shutdown(shutdownCtx); err == nil {
				err = merr
			}
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

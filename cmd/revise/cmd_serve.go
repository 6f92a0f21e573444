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
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianRevise/pkg/logging"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/archive"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/config"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/events"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/storage"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/telemetry"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/watcher"
)

var serveDebug bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the revision HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "enable debug logging and gin debug mode")
}

func runServe(parent context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := logging.ParseLevel(cfg.Log.Level)
	if serveDebug {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Log.Dir,
		Service: "revise",
		JSON:    cfg.Log.JSON,
	})
	defer logger.Close()
	slogger := logger.Slog()

	baseDir, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return fmt.Errorf("resolve base_dir: %w", err)
	}
	fs, err := storage.NewFS(baseDir, storage.DefaultFSOptions())
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	emitter := events.NewEmitter()

	var arch *archive.Archive
	if cfg.Archive.Enabled {
		arch, err = archive.Open(archive.DefaultConfig(cfg.Archive.Path))
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		defer arch.Close()
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var w *watcher.Watcher
	if cfg.Watch.Enabled {
		w, err = watcher.New(emitter, &watcher.Options{
			Debounce: cfg.Watch.Debounce,
			Logger:   slogger,
		})
		if err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		w.Start(ctx)
		defer w.Stop()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(registry)

	svc := text_buddy.NewService(fs, emitter, arch, w, metrics, text_buddy.ServiceConfig{
		Logger: slogger,
	})
	handlers := text_buddy.NewHandlers(svc)

	if serveDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if serveDebug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	text_buddy.RegisterRoutes(v1, handlers)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slogger.Info("revision service listening", "addr", cfg.Listen, "base_dir", cfg.BaseDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		slogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sam-maryland/league-engine-mcp-server/internal/config"
	"github.com/sam-maryland/league-engine-mcp-server/internal/engine"
	"github.com/sam-maryland/league-engine-mcp-server/internal/mcp"
	"github.com/sam-maryland/league-engine-mcp-server/internal/scheduler"
	"github.com/sam-maryland/league-engine-mcp-server/internal/season"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.MustLoad()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load progression rules")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := season.NewFileSource(cfg.DataDir, logger)
	session := engine.NewSession(source, rules, cfg.DefaultRating, logger)

	// A missing season is not fatal: load_season can pick another one
	sel := season.Selection{Season: cfg.Season, Modality: cfg.Modality}
	if err := session.Load(ctx, sel); err != nil {
		logger.WithError(err).WithField("selection", sel.String()).Warn("Starting without a loaded season")
	}

	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsAddr(), logger)
	}

	if cfg.EnableScheduler {
		reloads := scheduler.New(cfg.ReloadCron, session, logger)
		if err := reloads.Start(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to start reload scheduler")
		}
		defer reloads.Stop()
	}

	mcpServer := mcp.NewLeagueMCPServer(session, logger)
	if mcpServer == nil {
		logger.Fatal("Failed to create MCP server")
	}

	logger.WithFields(logrus.Fields{
		"data_dir": cfg.DataDir,
		"season":   cfg.Season,
		"modality": cfg.Modality,
	}).Info("Starting League Engine MCP Server...")

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.WithError(err).Error("Server failed")
		os.Exit(1)
	}
}

// startMetricsServer serves Prometheus metrics and a health check
func startMetricsServer(addr string, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	logger.WithField("addr", addr).Info("Starting metrics server")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.WithError(err).Error("Metrics server failed")
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/avvvet/tablebuddy/internal/app"
	"github.com/avvvet/tablebuddy/internal/config"
	"github.com/avvvet/tablebuddy/internal/logger"
	"github.com/avvvet/tablebuddy/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := cfg.Validate(); err != nil {
		zlog.Fatal("invalid configuration", zap.Error(err))
	}

	zlog.Info("starting TableBuddy server",
		zap.String("service", cfg.ServiceName),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("reservation_base_url", cfg.Reservation.BaseURL))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.New(cfg, zlog, reg)
	if err != nil {
		zlog.Fatal("failed to initialize chat service", zap.Error(err))
	}
	defer a.Close()

	var natsTransport *transport.NATSTransport
	if cfg.NatsEnabled {
		natsTransport, err = transport.NewNATSTransport(transport.NATSOptions{
			URL:         cfg.NatsURL,
			Name:        cfg.ServiceName,
			Subject:     cfg.NatsChatSubject,
			Timeout:     cfg.NatsTimeout,
			TurnTimeout: cfg.TurnTimeout(),
		}, a.Chat, zlog.Named("nats"))
		if err != nil {
			zlog.Fatal("failed to initialize NATS transport", zap.Error(err))
		}
		if err := natsTransport.Start(); err != nil {
			zlog.Fatal("failed to start NATS transport", zap.Error(err))
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           transport.NewHTTPServer(a.Chat, reg, cfg.HTTPAllowedOrigin, cfg.TurnTimeout(), zlog.Named("http")).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zlog.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		zlog.Warn("HTTP shutdown error", zap.Error(err))
	}
	if natsTransport != nil {
		if err := natsTransport.Close(); err != nil {
			zlog.Warn("error closing NATS transport", zap.Error(err))
		}
	}

	zlog.Info("TableBuddy server stopped")
}

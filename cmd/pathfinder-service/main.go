package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/p2pbook/pathfinder/internal/config"
	"github.com/p2pbook/pathfinder/internal/service"
	"github.com/p2pbook/pathfinder/pkg/natsx"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	nc, err := natsx.NewClient(&natsx.Config{
		URL:      cfg.NATS.URL,
		ClientID: cfg.NATS.ClientID,
	})
	if err != nil {
		logger.Fatalf("Failed to create NATS client: %v", err)
	}
	defer nc.Close()

	handler := service.NewHandler(nc, cfg.Engine)
	sub, err := handler.Subscribe(cfg.NATS.Subject, cfg.NATS.Queue)
	if err != nil {
		logger.Fatalf("Failed to subscribe: %v", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Metrics listening on %s", cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Infof("Pathfinder service ready on subject %s", cfg.NATS.Subject)
	if err := g.Wait(); err != nil {
		logger.Fatalf("Service error: %v", err)
	}
	logger.Info("Pathfinder service stopped")
}

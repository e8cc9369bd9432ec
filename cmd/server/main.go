package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"collaborative-taskboard/internal/bootstrap"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logrus.SetLevel(cfg.LogLevel)

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize application")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logrus.WithError(err).Fatal("Server failed")
		}
	case sig := <-quit:
		logrus.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Shutdown did not complete cleanly")
	}
}

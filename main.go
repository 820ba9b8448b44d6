package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matheuscscp/cms-git-backend/internal/config"
	"github.com/matheuscscp/cms-git-backend/internal/logging"
	"github.com/matheuscscp/cms-git-backend/internal/server"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := logging.LoadLevel(); err != nil {
		logrus.WithError(err).Warn("failed to load log level, using info")
	}

	conf, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, cleanup, err := server.New(ctx, conf)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create server")
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":  conf.Server.Addr,
			"local": conf.Local,
		}).Info("server started")
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("server failed")
		}
		return
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("failed to shut down server")
	}
}

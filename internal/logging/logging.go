package logging

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matheuscscp/cms-git-backend/internal/auth"
)

type contextKeyLogger struct{}

func init() {
	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
}

func LoadLevel() error {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = logrus.InfoLevel.String()
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		allLevels := make([]string, 0, len(logrus.AllLevels))
		for _, l := range logrus.AllLevels {
			allLevels = append(allLevels, l.String())
		}
		allowedLevels := strings.Join(allLevels, ", ")
		logrus.SetLevel(logrus.InfoLevel)
		return fmt.Errorf("invalid LOG_LEVEL '%s', must be one of [%s]", logLevel, allowedLevels)
	}
	logrus.SetLevel(level)
	return nil
}

func FromRequest(r *http.Request) logrus.FieldLogger {
	return FromContext(r.Context())
}

func FromContext(ctx context.Context) logrus.FieldLogger {
	if l := ctx.Value(contextKeyLogger{}); l != nil {
		if logger, ok := l.(logrus.FieldLogger); ok {
			return logger
		}
	}
	return logrus.StandardLogger()
}

func IntoRequest(r *http.Request, logger logrus.FieldLogger) *http.Request {
	return r.WithContext(IntoContext(r.Context(), logger))
}

func IntoContext(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, contextKeyLogger{}, logger)
}

// HTTPFields are the request fields attached to every request logger.
func HTTPFields(r *http.Request) logrus.Fields {
	return logrus.Fields{
		"host":   r.Host,
		"method": r.Method,
		"path":   r.URL.Path,
	}
}

// WithEditor enriches the context logger with the authenticated editor.
func WithEditor(ctx context.Context, e *auth.Editor) context.Context {
	if e == nil {
		return ctx
	}
	editor := logrus.Fields{"sub": e.Subject}
	if e.Email != "" {
		editor["email"] = e.Email
	}
	return IntoContext(ctx, FromContext(ctx).WithField("editor", editor))
}

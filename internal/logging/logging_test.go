package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/matheuscscp/cms-git-backend/internal/auth"
)

func TestLoadLevel(t *testing.T) {
	t.Run("default level", func(t *testing.T) {
		g := NewWithT(t)
		err := LoadLevel()
		g.Expect(err).NotTo(HaveOccurred())
		l := logrus.GetLevel()
		g.Expect(l).To(Equal(logrus.InfoLevel))
	})

	t.Run("valid level", func(t *testing.T) {
		g := NewWithT(t)
		t.Setenv("LOG_LEVEL", "debug")
		err := LoadLevel()
		g.Expect(err).NotTo(HaveOccurred())
		l := logrus.GetLevel()
		g.Expect(l).To(Equal(logrus.DebugLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		g := NewWithT(t)
		t.Setenv("LOG_LEVEL", "invalid-level")
		err := LoadLevel()
		g.Expect(err).To(MatchError("invalid LOG_LEVEL 'invalid-level', must be one of [panic, fatal, error, warning, info, debug, trace]"))
	})
}

func TestContextLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	entry := logger.WithField("component", "authorizer")

	tests := []struct {
		name     string
		fromCtx  func() logrus.FieldLogger
		expected bool
	}{
		{
			name: "context with logger",
			fromCtx: func() logrus.FieldLogger {
				return FromContext(IntoContext(context.Background(), entry))
			},
			expected: true,
		},
		{
			name: "request with logger",
			fromCtx: func() logrus.FieldLogger {
				return FromRequest(IntoRequest(httptest.NewRequest(http.MethodGet, "/admin", nil), entry))
			},
			expected: true,
		},
		{
			name: "context without logger",
			fromCtx: func() logrus.FieldLogger {
				return FromContext(context.Background())
			},
		},
		{
			name: "request without logger",
			fromCtx: func() logrus.FieldLogger {
				return FromRequest(httptest.NewRequest(http.MethodGet, "/admin", nil))
			},
		},
		{
			name: "unrelated value under the logger key",
			fromCtx: func() logrus.FieldLogger {
				return FromContext(context.WithValue(context.Background(), contextKeyLogger{}, "not a logger"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			hook.Reset()

			l := tt.fromCtx()
			g.Expect(l).ToNot(BeNil())

			if !tt.expected {
				g.Expect(l).To(BeIdenticalTo(logrus.StandardLogger()))
				return
			}
			l.Info("role check done")
			g.Expect(hook.LastEntry()).ToNot(BeNil())
			g.Expect(hook.LastEntry().Data).To(HaveKeyWithValue("component", "authorizer"))
		})
	}
}

func TestIntoRequest_KeepsOriginal(t *testing.T) {
	g := NewWithT(t)

	logger, _ := test.NewNullLogger()
	req := httptest.NewRequest(http.MethodGet, "/api/cms/content", nil)

	withLogger := IntoRequest(req, logger)

	g.Expect(withLogger).ToNot(BeIdenticalTo(req))
	g.Expect(req.Context().Value(contextKeyLogger{})).To(BeNil())
	g.Expect(FromRequest(withLogger)).To(BeIdenticalTo(logger))
}

func TestHTTPFields(t *testing.T) {
	g := NewWithT(t)

	req := httptest.NewRequest(http.MethodPut, "http://cms.example.com/api/cms/content/posts/hello.md", nil)

	g.Expect(HTTPFields(req)).To(Equal(logrus.Fields{
		"host":   "cms.example.com",
		"method": http.MethodPut,
		"path":   "/api/cms/content/posts/hello.md",
	}))
}

func TestWithEditor(t *testing.T) {
	t.Run("nil editor keeps the context", func(t *testing.T) {
		g := NewWithT(t)

		ctx := context.Background()
		g.Expect(WithEditor(ctx, nil)).To(Equal(ctx))
	})

	tests := []struct {
		name     string
		editor   *auth.Editor
		expected logrus.Fields
	}{
		{
			name:     "subject and email",
			editor:   &auth.Editor{Subject: "123", Email: "jane@example.com"},
			expected: logrus.Fields{"sub": "123", "email": "jane@example.com"},
		},
		{
			name:     "subject only",
			editor:   &auth.Editor{Subject: "123"},
			expected: logrus.Fields{"sub": "123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			logger, hook := test.NewNullLogger()
			ctx := IntoContext(context.Background(), logger.WithField("http", "test"))

			FromContext(WithEditor(ctx, tt.editor)).Info("content saved")

			entry := hook.LastEntry()
			g.Expect(entry).ToNot(BeNil())
			g.Expect(entry.Message).To(Equal("content saved"))
			g.Expect(entry.Data).To(HaveKeyWithValue("editor", tt.expected))
			g.Expect(entry.Data).To(HaveKeyWithValue("http", "test"))
		})
	}
}

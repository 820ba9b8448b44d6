package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/matheuscscp/cms-git-backend/internal/config"
	"github.com/matheuscscp/cms-git-backend/internal/logging"
)

const (
	pathHealthz = "/healthz"
	pathReadyz  = "/readyz"
	pathMetrics = "/metrics"
)

type readinessCheck func(r *http.Request) error

func newServer(conf *config.Config, api http.Handler, ready readinessCheck,
	promRegisterer prometheus.Registerer, promGatherer prometheus.Gatherer) *http.Server {

	if conf.Server.CORS {
		api = handleCORS(api)
	}

	promHandler := promhttp.HandlerFor(promGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	requestDurationSecs := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests in seconds",
	}, []string{"host", "method", "path", "status"})
	promRegisterer.MustRegister(requestDurationSecs)

	return &http.Server{
		Addr:              conf.Server.Addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := time.Now()
			sr := &statusRecorder{ResponseWriter: w}
			defer func() {
				status := fmt.Sprintf("%d", sr.getStatusCode())
				requestDurationSecs.
					WithLabelValues(r.Host, r.Method, metricPath(r.URL.Path), status).
					Observe(time.Since(t).Seconds())
			}()

			w = sr
			r = logging.IntoRequest(r, logrus.WithField("http", logging.HTTPFields(r)))

			switch r.URL.Path {
			case pathHealthz:
				w.WriteHeader(http.StatusOK)
			case pathReadyz:
				if ready != nil {
					if err := ready(r); err != nil {
						logging.FromRequest(r).WithError(err).Error("readiness check failed")
						http.Error(w, "Not ready", http.StatusServiceUnavailable)
						return
					}
				}
				w.WriteHeader(http.StatusOK)
			case pathMetrics:
				promHandler.ServeHTTP(w, r)
			default:
				api.ServeHTTP(w, r)
			}
		}),
	}
}

// metricPath collapses content keys so the path label stays bounded.
func metricPath(path string) string {
	if strings.HasPrefix(path, pathContent+"/") {
		return pathContent + "/*"
	}
	return path
}

func handleCORS(next http.Handler) http.Handler {
	const allowedMethods = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if origin := r.Header.Get("Origin"); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Methods", allowedMethods)
		if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
			h.Set("Access-Control-Allow-Headers", reqHeaders)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

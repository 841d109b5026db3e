package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprobe/internal/check"
	"github.com/hamed0406/uptimeprobe/internal/domain"
	apimw "github.com/hamed0406/uptimeprobe/internal/httpapi/middleware"
	"github.com/hamed0406/uptimeprobe/internal/repo"
)

// Checker is satisfied by *check.Coordinator.
type Checker interface {
	Check(ctx context.Context, req check.Request) (domain.CheckResult, error)
}

// SinkErrorCounter is satisfied by *metrics.Metrics.
type SinkErrorCounter interface {
	SinkError()
}

type Server struct {
	Logger  *zap.Logger
	Checker Checker
	Sink    repo.ResultSink
	Errors  SinkErrorCounter
	Metrics http.Handler // served on /metrics when set
}

func NewServer(l *zap.Logger, c Checker, sink repo.ResultSink) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Checker: c, Sink: sink}
}

// Router wires the check endpoint behind the per-site rate limiter.
func (s *Server) Router(ratePerMin, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", headerWebsiteID, headerMaxRetries},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.With(apimw.RateLimit(ratePerMin, burst)).Post("/", s.handleCheck)
	return r
}

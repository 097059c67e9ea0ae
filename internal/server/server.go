package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"deviceRotate/internal/runner"
)

// StatsSource отдает текущие счетчики прогона.
type StatsSource interface {
	Stats() runner.Snapshot
	ShutdownRequested() bool
}

type Server struct {
	log      *zap.Logger
	stats    StatsSource
	gatherer prometheus.Gatherer
	runID    string
	srv      *http.Server
	ln       net.Listener
}

func New(log *zap.Logger, stats StatsSource, gatherer prometheus.Gatherer, runID string) *Server {
	return &Server{
		log:      log,
		stats:    stats,
		gatherer: gatherer,
		runID:    runID,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Простейший лог-мидлвар
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s.log.Debug("HTTP",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
			)
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		status := "ok"
		if s.stats.ShutdownRequested() {
			status = "stopping"
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": status, "run_id": s.runID})
	})

	r.Get("/api/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.stats.Stats())
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return r
}

// Listen занимает адрес синхронно, чтобы ошибка порта была ошибкой запуска.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("Статус-сервер запущен", zap.String("addr", ln.Addr().String()))
	return nil
}

// Serve блокируется до Shutdown. http.ErrServerClosed не считается ошибкой.
func (s *Server) Serve() error {
	if s.srv == nil {
		return errors.New("статус-сервер не слушает адрес")
	}
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

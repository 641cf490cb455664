package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"calendar-scheduler/internal/model"
	"calendar-scheduler/internal/service"
)

// BatchRunner triggers a whole batch; the cron entry point calls it.
type BatchRunner interface {
	Run(ctx context.Context) (*service.BatchSummary, error)
}

// Lifecycle exposes the confirm/unconfirm mutations.
type Lifecycle interface {
	Confirm(ctx context.Context, eventID, actingUserID uint) (*model.ScheduledEvent, error)
	Unconfirm(ctx context.Context, eventID, actingUserID uint) (*model.ScheduledEvent, error)
}

// Server is the HTTP surface: the authenticated cron trigger, the
// per-workspace scheduling entry point and the event lifecycle mutations.
type Server struct {
	httpSrv    *http.Server
	cronSecret string

	batch     BatchRunner
	scheduler service.Orchestrator
	lifecycle Lifecycle
	log       zerolog.Logger
}

func New(addr, cronSecret string, batch BatchRunner, scheduler service.Orchestrator, lifecycle Lifecycle, log zerolog.Logger) *Server {
	s := &Server{
		cronSecret: cronSecret,
		batch:      batch,
		scheduler:  scheduler,
		lifecycle:  lifecycle,
		log:        log.With().Str("component", "http").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /internal/cron/schedule", s.handleCron)
	mux.HandleFunc("POST /workspaces/{id}/schedule", s.handleScheduleWorkspace)
	mux.HandleFunc("POST /events/{id}/confirm", s.handleConfirm)
	mux.HandleFunc("POST /events/{id}/unconfirm", s.handleUnconfirm)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// authorizedCron checks the shared secret the external trigger presents.
func (s *Server) authorizedCron(r *http.Request) bool {
	if s.cronSecret == "" {
		return false
	}
	got := r.Header.Get("X-Cron-Secret")
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.cronSecret)) == 1
}

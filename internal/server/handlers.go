package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"calendar-scheduler/internal/model"
	"calendar-scheduler/internal/service"
)

type batchSummaryOut struct {
	WorkspacesProcessed int `json:"workspacesProcessed"`
	Successful          int `json:"successful"`
	Failed              int `json:"failed"`
	TotalEventsCreated  int `json:"totalEventsCreated"`
}

type workspaceResultOut struct {
	WsID          uint   `json:"wsId"`
	Success       bool   `json:"success"`
	EventsCreated *int   `json:"eventsCreated,omitempty"`
	Error         string `json:"error,omitempty"`
}

type cronOut struct {
	OK      bool                 `json:"ok"`
	Summary batchSummaryOut      `json:"summary"`
	Results []workspaceResultOut `json:"results"`
}

func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedCron(r) {
		writeError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	summary, err := s.batch.Run(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("batch run failed")
		writeError(w, "batch run failed", http.StatusInternalServerError)
		return
	}

	out := cronOut{
		OK: true,
		Summary: batchSummaryOut{
			WorkspacesProcessed: summary.WorkspacesProcessed,
			Successful:          summary.Successful,
			Failed:              summary.Failed,
			TotalEventsCreated:  summary.TotalEventsCreated,
		},
		Results: make([]workspaceResultOut, 0, len(summary.Results)),
	}
	for _, res := range summary.Results {
		ro := workspaceResultOut{WsID: res.WorkspaceID, Success: res.Success}
		if res.Success {
			created := res.EventsCreated
			ro.EventsCreated = &created
		} else {
			ro.Error = res.Err
		}
		out.Results = append(out.Results, ro)
	}
	writeJSON(w, out, http.StatusOK)
}

type scheduleIn struct {
	WindowDays      int  `json:"windowDays"`
	ForceReschedule bool `json:"forceReschedule"`
}

type scheduleOut struct {
	Summary struct {
		EventsCreated   int `json:"eventsCreated"`
		HabitsScheduled int `json:"habitsScheduled"`
		TasksScheduled  int `json:"tasksScheduled"`
	} `json:"summary"`
}

func (s *Server) handleScheduleWorkspace(w http.ResponseWriter, r *http.Request) {
	wsID, ok := pathID(w, r)
	if !ok {
		return
	}

	in := scheduleIn{WindowDays: service.DefaultWindowDays}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, "invalid json", http.StatusBadRequest)
			return
		}
	}

	summary, err := s.scheduler.ScheduleWorkspace(r.Context(), wsID, in.WindowDays, in.ForceReschedule)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var out scheduleOut
	out.Summary.EventsCreated = summary.EventsCreated
	out.Summary.HabitsScheduled = summary.HabitsScheduled
	out.Summary.TasksScheduled = summary.TasksScheduled
	writeJSON(w, out, http.StatusOK)
}

type eventOut struct {
	ID      uint      `json:"id"`
	WsID    uint      `json:"wsId"`
	Status  string    `json:"status"`
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	s.mutateStatus(w, r, s.lifecycle.Confirm)
}

func (s *Server) handleUnconfirm(w http.ResponseWriter, r *http.Request) {
	s.mutateStatus(w, r, s.lifecycle.Unconfirm)
}

func (s *Server) mutateStatus(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, eventID, actingUserID uint) (*model.ScheduledEvent, error)) {
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	ev, err := op(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, eventOut{
		ID:      ev.ID,
		WsID:    ev.WorkspaceID,
		Status:  ev.Status,
		StartAt: ev.StartAt,
		EndAt:   ev.EndAt,
	}, http.StatusOK)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// pathID parses the {id} path segment, writing a 400 on garbage.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

// actingUser pulls the authenticated user id the platform gateway forwards.
func actingUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := r.Header.Get("X-User-ID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(w, "missing or invalid X-User-ID", http.StatusUnauthorized)
		return 0, false
	}
	return uint(id), true
}

package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

type sampleRequest struct {
	N int `json:"n"`
}

type sampleResponse struct {
	Solutions [][]float64 `json:"solutions"`
}

type learnRequest struct {
	Solutions [][]float64 `json:"solutions"`
	Values    []float64   `json:"values"`
}

// handleSessions handles /api/v1/sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	case http.MethodGet:
		sessions := s.sessions.List()
		infos := make([]SessionInfo, len(sessions))
		for i, sess := range sessions {
			infos[i] = sess.Info()
		}
		writeJSON(w, http.StatusOK, infos)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSessionsWithID handles /api/v1/sessions/:id/*
func (s *Server) handleSessionsWithID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/"), "/")
	if parts[0] == "" {
		writeError(w, http.StatusBadRequest, "session ID required")
		return
	}

	id := parts[0]
	if len(parts) == 1 && r.Method == http.MethodDelete {
		if !s.sessions.Delete(id) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		slog.Info("Session deleted", "session_id", id)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	sess, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, sess.Info())
	case action == "sample" && r.Method == http.MethodPost:
		s.handleSample(w, r, sess)
	case action == "learn" && r.Method == http.MethodPost:
		s.handleLearn(w, r, sess)
	case action == "distributions" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, sess.Distributions())
	case action == "plot" && r.Method == http.MethodGet:
		s.handleSessionPlot(w, r, sess)
	case action == "snapshot" && r.Method == http.MethodPost:
		s.handleSaveSnapshot(w, r, sess)
	case action == "" || action == "sample" || action == "learn" ||
		action == "distributions" || action == "plot" || action == "snapshot":
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleCreateSession handles POST /api/v1/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var cfg SessionConfig
	if err := decodeJSON(w, r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.sessions.Create(cfg)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	info := sess.Info()
	slog.Info("Session created",
		"session_id", sess.ID,
		"dimensions", len(info.Names),
		"direction", info.Direction,
		"scaling", info.Scaling,
		"from_snapshot", cfg.FromSnapshot,
	)
	writeJSON(w, http.StatusCreated, info)
}

// handleSample handles POST /api/v1/sessions/:id/sample
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request, sess *Session) {
	req := sampleRequest{N: 1}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if req.N > maxSampleSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("n must be at most %d", maxSampleSize))
		return
	}

	solutions, err := sess.Sample(req.N)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sampleResponse{Solutions: solutions})
}

// handleLearn handles POST /api/v1/sessions/:id/learn
func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req learnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.Learn(req.Solutions, req.Values); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

// handleSaveSnapshot handles POST /api/v1/sessions/:id/snapshot
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request, sess *Session) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore.Error())
		return
	}

	snap := sess.Snapshot()
	if err := s.store.SaveSnapshot(sess.ID, snap); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	slog.Info("Snapshot saved", "session_id", sess.ID, "round", snap.Round)
	writeJSON(w, http.StatusCreated, snap.ToInfo())
}

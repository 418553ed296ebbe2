package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claude/fitplan/internal/models"
	"github.com/claude/fitplan/internal/session"
	"github.com/claude/fitplan/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type openSessionResponse struct {
	ID       uuid.UUID      `json:"id"`
	Snapshot store.Snapshot `json:"snapshot"`
}

type planResponse struct {
	Plan    *models.Plan       `json:"plan"`
	Summary models.PlanSummary `json:"summary"`
}

// exerciseView adds the formatted prescription line to an exercise.
type exerciseView struct {
	models.Exercise
	Prescription string `json:"prescription"`
}

type dayResponse struct {
	Day       int               `json:"day"`
	Completed bool              `json:"is_completed"`
	Muscle    string            `json:"muscle,omitempty"`
	Workout   []exerciseView    `json:"workout"`
	Summary   models.DaySummary `json:"summary"`
}

type completionResponse struct {
	SelectedDay int          `json:"selected_day"`
	Completion  map[int]bool `json:"completion"`
}

type selectRequest struct {
	Day *int `json:"day"`
}

type toggleRequest struct {
	Day        *int `json:"day"`
	ExerciseID *int `json:"exercise_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Open(r.Context(), userInfoFromContext(r).Login)
	if err != nil {
		if errors.Is(err, session.ErrTooManySessions) || errors.Is(err, session.ErrClosed) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		s.log.Error("open session error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, openSessionResponse{ID: sess.ID, Snapshot: sess.Store.Snapshot()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Store.Snapshot())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	s.sessions.Close(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	snap := sess.Store.Snapshot()
	if snap.Plan == nil {
		writeNotLoaded(w, snap)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{Plan: snap.Plan, Summary: snap.Plan.Summarize()})
}

func (s *Server) handleCurrentDay(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	snap := sess.Store.Snapshot()
	if snap.Plan == nil {
		writeNotLoaded(w, snap)
		return
	}
	day := snap.CurrentDay
	if day == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": store.NoSuchDay.String()})
		return
	}

	muscle := r.URL.Query().Get("muscle")
	exercises := day.FilterByMuscle(muscle)
	views := make([]exerciseView, len(exercises))
	for i, ex := range exercises {
		views[i] = exerciseView{Exercise: ex, Prescription: ex.Prescription()}
	}
	writeJSON(w, http.StatusOK, dayResponse{
		Day:       day.Day,
		Completed: day.Completed,
		Muscle:    muscle,
		Workout:   views,
		Summary:   day.Summarize(),
	})
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	snap := sess.Store.Snapshot()
	writeJSON(w, http.StatusOK, completionResponse{SelectedDay: snap.SelectedDay, Completion: snap.Completion})
}

func (s *Server) handleSelectDay(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Day == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "day is required"})
		return
	}
	s.writeOutcome(w, sess, sess.Store.SelectDay(*req.Day))
}

func (s *Server) handleToggleExercise(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Day == nil || req.ExerciseID == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "day and exercise_id are required"})
		return
	}
	s.writeOutcome(w, sess, sess.Store.ToggleExerciseCompletion(*req.Day, *req.ExerciseID))
}

// sessionFromRequest resolves the {id} URL parameter to a session owned by
// the caller. Sessions of other callers are reported as not found.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return nil, false
	}
	sess, ok := s.sessions.Get(id)
	if !ok || sess.Owner != userInfoFromContext(r).Login {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil, false
	}
	return sess, true
}

// writeOutcome maps a store outcome to a response. Accepted mutations return
// the new snapshot.
func (s *Server) writeOutcome(w http.ResponseWriter, sess *session.Session, outcome store.Outcome) {
	switch outcome {
	case store.OK:
		writeJSON(w, http.StatusOK, sess.Store.Snapshot())
	case store.NoSuchDay, store.NoSuchExercise:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": outcome.String()})
	case store.NotLoaded:
		writeJSON(w, http.StatusConflict, map[string]string{"error": outcome.String()})
	case store.Closed:
		writeJSON(w, http.StatusGone, map[string]string{"error": "session closed"})
	default:
		s.log.Error("unexpected outcome", "session", sess.ID, "outcome", outcome.String())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": outcome.String()})
	}
}

func writeNotLoaded(w http.ResponseWriter, snap store.Snapshot) {
	body := map[string]string{"error": "plan not loaded", "status": string(snap.Status)}
	if snap.LoadError != "" {
		body["load_error"] = snap.LoadError
	}
	writeJSON(w, http.StatusNotFound, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

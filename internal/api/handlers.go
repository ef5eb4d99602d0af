package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/abhisek/repertoire/internal/ingest"
	"github.com/abhisek/repertoire/internal/practice"
)

const (
	maxBodyBytes        = 64 << 10
	defaultHistoryLimit = 20
)

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) recordSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, &practice.ErrValidation{Field: "body", Reason: "unreadable or too large"})
		return
	}
	in, err := ingest.DecodeReport(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v, err := s.engine.RecordSession(r.Context(), bearerToken(r), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) retryAggregate(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.RetryAggregate(r.Context(), bearerToken(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type goalRequest struct {
	GoalDate string `json:"goal_date"`
}

func (s *server) setGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, &practice.ErrValidation{Field: "body", Reason: "expected {\"goal_date\": \"YYYY-MM-DD\"}"})
		return
	}
	v, err := s.engine.SetGoal(r.Context(), bearerToken(r), mux.Vars(r)["piece"], req.GoalDate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) clearGoal(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.ClearGoal(r.Context(), bearerToken(r), mux.Vars(r)["piece"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) getGoal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	d, err := s.engine.GetGoal(r.Context(), vars["performer"], vars["piece"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*practice.Date{"goal_date": d})
}

func (s *server) listSkills(w http.ResponseWriter, r *http.Request) {
	views, err := s.engine.ListSkills(r.Context(), mux.Vars(r)["performer"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *server) getSkill(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	v, err := s.engine.GetSkill(r.Context(), vars["performer"], vars["piece"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	if v == nil {
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:   "not_found",
			Message: "no practice recorded for this piece",
		})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) history(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	limit := defaultHistoryLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			s.writeError(w, &practice.ErrValidation{Field: "limit", Reason: "must be an integer"})
			return
		}
		limit = n
	}
	items, err := s.engine.History(r.Context(), vars["performer"], vars["piece"], limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	HistoryID string `json:"history_id,omitempty"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind string) int {
	switch kind {
	case practice.KindIdentityNotFound:
		return http.StatusUnauthorized
	case practice.KindInvalidPiece:
		return http.StatusNotFound
	case practice.KindValidation:
		return http.StatusBadRequest
	case practice.KindStorage:
		return http.StatusServiceUnavailable
	case practice.KindPartialWrite:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	kind := practice.Kind(err)
	body := errorBody{
		Error:     kind,
		Message:   err.Error(),
		Retryable: practice.Retryable(err),
	}
	var pw *practice.ErrPartialWrite
	if errors.As(err, &pw) {
		body.HistoryID = pw.HistoryID
	}
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "kind", kind, "error", err)
		if kind == practice.KindInternal {
			body.Message = "internal error"
		}
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

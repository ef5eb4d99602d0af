package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/repertoire/internal/ingest"
	"github.com/abhisek/repertoire/internal/mastery"
	"github.com/abhisek/repertoire/internal/practice"
)

// fakeEngine records the last call and returns canned results.
type fakeEngine struct {
	token   string
	retried string
	input   ingest.SessionInput
	piece   string
	goal    string
	limit   int
	view    ingest.View
	skill   *ingest.View
	goalOut *practice.Date
	err     error
}

func (f *fakeEngine) RecordSession(_ context.Context, token string, in ingest.SessionInput) (ingest.View, error) {
	f.token, f.input = token, in
	return f.view, f.err
}

func (f *fakeEngine) RetryAggregate(_ context.Context, token, historyID string) (ingest.View, error) {
	f.token, f.retried = token, historyID
	return f.view, f.err
}

func (f *fakeEngine) SetGoal(_ context.Context, token, pieceID, goalDate string) (ingest.View, error) {
	f.token, f.piece, f.goal = token, pieceID, goalDate
	return f.view, f.err
}

func (f *fakeEngine) ClearGoal(_ context.Context, token, pieceID string) (ingest.View, error) {
	f.token, f.piece = token, pieceID
	return f.view, f.err
}

func (f *fakeEngine) GetGoal(_ context.Context, _, pieceID string) (*practice.Date, error) {
	f.piece = pieceID
	return f.goalOut, f.err
}

func (f *fakeEngine) GetSkill(_ context.Context, _, pieceID string) (*ingest.View, error) {
	f.piece = pieceID
	return f.skill, f.err
}

func (f *fakeEngine) ListSkills(context.Context, string) ([]ingest.View, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []ingest.View{f.view}, nil
}

func (f *fakeEngine) History(_ context.Context, _, pieceID string, limit int) ([]ingest.HistoryItem, error) {
	f.piece, f.limit = pieceID, limit
	return []ingest.HistoryItem{}, f.err
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleView() ingest.View {
	return ingest.View{
		PerformerID:   "ana",
		PieceID:       "moonlight",
		Level:         mastery.Info(mastery.LevelLearning),
		PracticeCount: 1,
		Badges:        []ingest.BadgeView{},
	}
}

func TestHealthz(t *testing.T) {
	rec := do(t, NewRouter(&fakeEngine{}, nil, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRecordSession(t *testing.T) {
	eng := &fakeEngine{view: sampleView()}
	h := NewRouter(eng, nil, nil)

	rec := do(t, h, http.MethodPost, "/v1/sessions",
		`{"piece_id":"moonlight","duration_minutes":0,"confidence_rating":9}`,
		"Authorization", "Bearer tok-123")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "tok-123", eng.token)
	assert.Equal(t, "moonlight", eng.input.PieceID)
	assert.Equal(t, 9, eng.input.ConfidenceRating, "coercion happens in the facade")

	var v map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	level := v["level"].(map[string]any)
	assert.Equal(t, "learning", level["id"])
	assert.Equal(t, "Learning", level["label"])
	assert.Equal(t, []any{}, v["badges"])
	assert.Nil(t, v["goal_date"])
}

func TestRecordSession_BadBody(t *testing.T) {
	eng := &fakeEngine{}
	rec := do(t, NewRouter(eng, nil, nil), http.MethodPost, "/v1/sessions", `{"duration_minutes":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, practice.KindValidation, decodeError(t, rec).Error)
	assert.Empty(t, eng.token, "engine must not be called")
}

func TestErrorMapping(t *testing.T) {
	storage := &practice.ErrStorage{Op: "apply session", Err: errors.New("disk full")}
	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{"identity", &practice.ErrIdentityNotFound{}, http.StatusUnauthorized, false},
		{"piece", &practice.ErrInvalidPiece{PieceID: "x"}, http.StatusNotFound, false},
		{"validation", &practice.ErrValidation{Field: "goal_date", Reason: "bad"}, http.StatusBadRequest, false},
		{"storage", storage, http.StatusServiceUnavailable, true},
		{"partial", &practice.ErrPartialWrite{Succeeded: "history", Failed: "aggregate", HistoryID: "h-1", Err: storage}, http.StatusMultiStatus, true},
		{"internal", errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRouter(&fakeEngine{err: tt.err}, nil, nil)
			rec := do(t, h, http.MethodPost, "/v1/sessions",
				`{"piece_id":"x","duration_minutes":10,"confidence_rating":3}`)
			assert.Equal(t, tt.status, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, practice.Kind(tt.err), body.Error)
			assert.Equal(t, tt.retryable, body.Retryable)
			if tt.name == "partial" {
				assert.Equal(t, "h-1", body.HistoryID)
			}
			if tt.name == "internal" {
				assert.Equal(t, "internal error", body.Message)
			}
		})
	}
}

func TestSetGoal(t *testing.T) {
	eng := &fakeEngine{view: sampleView()}
	h := NewRouter(eng, nil, nil)

	rec := do(t, h, http.MethodPut, "/v1/pieces/moonlight/goal", `{"goal_date":"2025-12-01"}`,
		"Authorization", "bearer tok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", eng.token)
	assert.Equal(t, "moonlight", eng.piece)
	assert.Equal(t, "2025-12-01", eng.goal)

	rec = do(t, h, http.MethodPut, "/v1/pieces/moonlight/goal", `{"date":"2025-12-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/v1/pieces/etude/goal", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "etude", eng.piece)
}

func TestGetGoal(t *testing.T) {
	d := practice.Date{Year: 2025, Month: time.December, Day: 1}
	eng := &fakeEngine{goalOut: &d}
	rec := do(t, NewRouter(eng, nil, nil), http.MethodGet, "/v1/performers/ana/skills/moonlight/goal", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"goal_date":"2025-12-01"}`, rec.Body.String())
}

func TestGetSkill(t *testing.T) {
	v := sampleView()
	eng := &fakeEngine{skill: &v}
	h := NewRouter(eng, nil, nil)

	rec := do(t, h, http.MethodGet, "/v1/performers/ana/skills/moonlight", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "moonlight", eng.piece)

	eng.skill = nil
	rec = do(t, h, http.MethodGet, "/v1/performers/ana/skills/etude", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error)
}

func TestListSkills(t *testing.T) {
	rec := do(t, NewRouter(&fakeEngine{view: sampleView()}, nil, nil), http.MethodGet, "/v1/performers/ana/skills", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Len(t, views, 1)
}

func TestHistoryLimit(t *testing.T) {
	eng := &fakeEngine{}
	h := NewRouter(eng, nil, nil)

	rec := do(t, h, http.MethodGet, "/v1/performers/ana/skills/moonlight/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultHistoryLimit, eng.limit)
	assert.JSONEq(t, `[]`, rec.Body.String())

	do(t, h, http.MethodGet, "/v1/performers/ana/skills/moonlight/history?limit=5", "")
	assert.Equal(t, 5, eng.limit)

	rec = do(t, h, http.MethodGet, "/v1/performers/ana/skills/moonlight/history?limit=many", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetryAggregate(t *testing.T) {
	eng := &fakeEngine{view: sampleView()}
	rec := do(t, NewRouter(eng, nil, nil), http.MethodPost, "/v1/sessions/h-1/retry", "",
		"Authorization", "Bearer tok-9")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "h-1", eng.retried)
	assert.Equal(t, "tok-9", eng.token)

	eng.err = &practice.ErrIdentityNotFound{}
	rec = do(t, NewRouter(eng, nil, nil), http.MethodPost, "/v1/sessions/h-1/retry", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, eng.token)

	eng.err = &practice.ErrValidation{Field: "history_id", Reason: "no such history entry"}
	rec = do(t, NewRouter(eng, nil, nil), http.MethodPost, "/v1/sessions/missing/retry", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, practice.KindValidation, decodeError(t, rec).Error)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, NewRouter(&fakeEngine{}, nil, nil), http.MethodGet, "/v1/sessions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	do(t, NewRouter(&fakeEngine{}, nil, &buf), http.MethodGet, "/healthz", "")
	assert.Contains(t, buf.String(), `"GET /healthz HTTP/1.1" 200`)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"":             "",
		"Bearer":       "",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, bearerToken(req), "header %q", header)
	}
}

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/repertoire/internal/config"
	"github.com/abhisek/repertoire/internal/ingest"
	"github.com/abhisek/repertoire/internal/mastery"
	"github.com/abhisek/repertoire/internal/store"
)

func newApp(t *testing.T, secret string) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DB.Path = filepath.Join(t.TempDir(), "nested", "repertoire.db")
	cfg.Token.Secret = secret

	a, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func seed(t *testing.T, a *App) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, a.Store.PerformerRepo().Create(ctx, store.Performer{ID: "ana", DisplayName: "Ana"}))
	require.NoError(t, a.Store.PieceRepo().Create(ctx, store.Piece{ID: "moonlight", Title: "Moonlight Sonata", Published: true}))
}

func TestNew_RecordsThroughService(t *testing.T) {
	a := newApp(t, "")
	seed(t, a)
	ctx := context.Background()

	token, err := a.Tokens.IssueToken("ana")
	require.NoError(t, err)

	v, err := a.Service.RecordSession(ctx, token, ingest.SessionInput{
		PieceID:          "moonlight",
		DurationMinutes:  20,
		ConfidenceRating: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, mastery.LevelLearning, v.Level.Level)

	goal, err := a.Service.SetGoal(ctx, token, "moonlight", "2030-01-01")
	require.NoError(t, err)
	assert.Equal(t, 1, goal.PracticeCount)
}

func TestHandler_RequiresSecret(t *testing.T) {
	_, err := newApp(t, "").Handler(nil)
	assert.ErrorIs(t, err, ErrNoTokenSecret)
}

func TestHandler_ServesAPI(t *testing.T) {
	a := newApp(t, "s3cret")
	seed(t, a)
	h, err := a.Handler(nil)
	require.NoError(t, err)

	token, err := a.Tokens.IssueToken("ana")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions",
		strings.NewReader(`{"piece_id":"moonlight","duration_minutes":30,"confidence_rating":4}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/v1/performers/ana/skills/moonlight", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"practice_count":1`)
}

func TestServerConfig(t *testing.T) {
	a := newApp(t, "x")
	sc := a.ServerConfig()
	assert.Equal(t, a.Config.HTTP.Addr, sc.Addr)
	assert.Equal(t, a.Config.HTTP.ShutdownTimeout, sc.ShutdownTimeout)
}

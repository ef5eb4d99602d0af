// Package api exposes the ingestion facade over HTTP.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/abhisek/repertoire/internal/ingest"
	"github.com/abhisek/repertoire/internal/logging"
	"github.com/abhisek/repertoire/internal/practice"
)

// Engine is the subset of ingest.Service the HTTP layer calls.
type Engine interface {
	RecordSession(ctx context.Context, token string, in ingest.SessionInput) (ingest.View, error)
	RetryAggregate(ctx context.Context, token, historyID string) (ingest.View, error)
	SetGoal(ctx context.Context, token, pieceID, goalDate string) (ingest.View, error)
	ClearGoal(ctx context.Context, token, pieceID string) (ingest.View, error)
	GetGoal(ctx context.Context, performerID, pieceID string) (*practice.Date, error)
	GetSkill(ctx context.Context, performerID, pieceID string) (*ingest.View, error)
	ListSkills(ctx context.Context, performerID string) ([]ingest.View, error)
	History(ctx context.Context, performerID, pieceID string, limit int) ([]ingest.HistoryItem, error)
}

type server struct {
	engine Engine
	log    *slog.Logger
}

// NewRouter builds the route table. Requests are access-logged in combined
// log format to accessLog (nil disables it) and panics become 500s.
func NewRouter(engine Engine, log *slog.Logger, accessLog io.Writer) http.Handler {
	if log == nil {
		log = logging.Discard()
	}
	s := &server{engine: engine, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/sessions", s.recordSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/retry", s.retryAggregate).Methods(http.MethodPost)
	v1.HandleFunc("/pieces/{piece}/goal", s.setGoal).Methods(http.MethodPut)
	v1.HandleFunc("/pieces/{piece}/goal", s.clearGoal).Methods(http.MethodDelete)
	v1.HandleFunc("/performers/{performer}/skills", s.listSkills).Methods(http.MethodGet)
	v1.HandleFunc("/performers/{performer}/skills/{piece}", s.getSkill).Methods(http.MethodGet)
	v1.HandleFunc("/performers/{performer}/skills/{piece}/goal", s.getGoal).Methods(http.MethodGet)
	v1.HandleFunc("/performers/{performer}/skills/{piece}/history", s.history).Methods(http.MethodGet)

	var h http.Handler = r
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{log}), handlers.PrintRecoveryStack(false))(h)
	if accessLog != nil {
		h = handlers.CombinedLoggingHandler(accessLog, h)
	}
	return h
}

// recoveryLogger routes gorilla's panic reports into slog.
type recoveryLogger struct {
	log *slog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error("panic in handler", "detail", v)
}

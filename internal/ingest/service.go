// Package ingest is the single entry point for practice reports and goal
// changes coming from outside the engine. It resolves the caller, checks the
// piece, normalizes input and delegates to the practice package.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abhisek/repertoire/internal/logging"
	"github.com/abhisek/repertoire/internal/practice"
	"github.com/abhisek/repertoire/internal/store"
)

// IdentityResolver maps a caller token to a performer id.
type IdentityResolver interface {
	ResolvePerformer(ctx context.Context, token string) (string, error)
}

// PieceCatalog reports whether a piece can be practiced.
type PieceCatalog interface {
	PieceExistsAndPublished(ctx context.Context, pieceID string) (bool, error)
}

// HistoryStore keeps the raw session audit trail.
type HistoryStore interface {
	AppendHistory(ctx context.Context, entry store.HistoryEntry) (store.HistoryEntry, error)
	GetHistory(ctx context.Context, id string) (*store.HistoryEntry, error)
	RecentHistory(ctx context.Context, performerID, pieceID string, limit int) ([]store.HistoryEntry, error)
}

// SessionInput is a practice-session report as submitted by a caller.
type SessionInput struct {
	PieceID          string    `json:"piece_id"`
	DurationMinutes  int       `json:"duration_minutes"`
	ConfidenceRating int       `json:"confidence_rating"`
	Notes            string    `json:"notes,omitempty"`
	SubmittedAt      time.Time `json:"submitted_at,omitzero"`
}

// Service is the session ingestion facade.
type Service struct {
	identity   IdentityResolver
	pieces     PieceCatalog
	history    HistoryStore
	aggregator *practice.Aggregator
	goals      *practice.Goals
	log        *slog.Logger
	now        func() time.Time
}

// Deps groups the collaborators a Service needs.
type Deps struct {
	Identity   IdentityResolver
	Pieces     PieceCatalog
	History    HistoryStore
	Aggregator *practice.Aggregator
	Goals      *practice.Goals
	Logger     *slog.Logger
	Now        func() time.Time
}

// NewService creates the facade.
func NewService(d Deps) *Service {
	s := &Service{
		identity:   d.Identity,
		pieces:     d.Pieces,
		history:    d.History,
		aggregator: d.Aggregator,
		goals:      d.Goals,
		log:        d.Logger,
		now:        d.Now,
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RecordSession records one practice session for the caller. The history
// entry is written first; if the aggregate update then fails the error is a
// *practice.ErrPartialWrite carrying the history id for RetryAggregate.
func (s *Service) RecordSession(ctx context.Context, token string, in SessionInput) (View, error) {
	performerID, err := s.resolve(ctx, token)
	if err != nil {
		return View{}, err
	}
	now := s.now()
	in = normalize(in, now)
	if in.SubmittedAt.After(now.Add(practice.MaxClockSkew)) {
		return View{}, &practice.ErrValidation{Field: "submitted_at", Reason: "must not be in the future"}
	}
	if err := s.checkPiece(ctx, in.PieceID); err != nil {
		return View{}, err
	}

	entry, err := s.history.AppendHistory(ctx, store.HistoryEntry{
		PerformerID: performerID,
		PieceID:     in.PieceID,
		Duration:    in.DurationMinutes,
		Confidence:  in.ConfidenceRating,
		Notes:       in.Notes,
		PracticedAt: in.SubmittedAt,
	})
	if err != nil {
		return View{}, &practice.ErrStorage{Op: "append history", Err: err}
	}

	agg, err := s.aggregator.ApplyRecorded(ctx, entry)
	if err != nil {
		s.log.Error("aggregate update failed after history write",
			"performer", performerID, "piece", in.PieceID, "history_id", entry.ID, "error", err)
		return View{}, &practice.ErrPartialWrite{
			Succeeded: "history",
			Failed:    "aggregate",
			HistoryID: entry.ID,
			Err:       err,
		}
	}
	return NewView(agg), nil
}

// RetryAggregate applies an already recorded history entry of the caller to
// its aggregate without writing history again. It is the reconcile path for
// a partial write. An entry already folded in is rejected, so repeating a
// retry never counts a session twice.
func (s *Service) RetryAggregate(ctx context.Context, token, historyID string) (View, error) {
	performerID, err := s.resolve(ctx, token)
	if err != nil {
		return View{}, err
	}
	entry, err := s.history.GetHistory(ctx, historyID)
	if errors.Is(err, store.ErrNotFound) {
		return View{}, &practice.ErrValidation{Field: "history_id", Reason: "no such history entry"}
	}
	if err != nil {
		return View{}, &practice.ErrStorage{Op: "load history", Err: err}
	}
	// Another performer's entry is reported as missing.
	if entry.PerformerID != performerID {
		return View{}, &practice.ErrValidation{Field: "history_id", Reason: "no such history entry"}
	}

	entry.Duration = NormalizeDuration(entry.Duration)
	entry.Confidence = NormalizeConfidence(entry.Confidence)
	agg, err := s.aggregator.ApplyRecorded(ctx, *entry)
	if err != nil {
		return View{}, err
	}
	s.log.Info("aggregate reconciled", "history_id", historyID,
		"performer", entry.PerformerID, "piece", entry.PieceID)
	return NewView(agg), nil
}

// SetGoal sets the caller's target mastery date for a piece.
func (s *Service) SetGoal(ctx context.Context, token, pieceID, goalDate string) (View, error) {
	performerID, err := s.resolve(ctx, token)
	if err != nil {
		return View{}, err
	}
	if err := s.checkPiece(ctx, pieceID); err != nil {
		return View{}, err
	}
	agg, err := s.goals.SetGoal(ctx, performerID, pieceID, goalDate)
	if err != nil {
		return View{}, err
	}
	return NewView(agg), nil
}

// ClearGoal removes the caller's target date for a piece.
func (s *Service) ClearGoal(ctx context.Context, token, pieceID string) (View, error) {
	performerID, err := s.resolve(ctx, token)
	if err != nil {
		return View{}, err
	}
	if err := s.checkPiece(ctx, pieceID); err != nil {
		return View{}, err
	}
	agg, err := s.goals.ClearGoal(ctx, performerID, pieceID)
	if err != nil {
		return View{}, err
	}
	return NewView(agg), nil
}

// GetGoal returns the goal date for a pair, or nil.
func (s *Service) GetGoal(ctx context.Context, performerID, pieceID string) (*practice.Date, error) {
	return s.goals.GetGoal(ctx, performerID, pieceID)
}

// GetSkill returns the view of a pair, or nil when nothing was recorded.
func (s *Service) GetSkill(ctx context.Context, performerID, pieceID string) (*View, error) {
	agg, err := s.aggregator.Lookup(ctx, performerID, pieceID)
	if err != nil || agg == nil {
		return nil, err
	}
	v := NewView(agg)
	return &v, nil
}

// ListSkills returns every skill of a performer ordered by piece id.
func (s *Service) ListSkills(ctx context.Context, performerID string) ([]View, error) {
	aggs, err := s.aggregator.ListForPerformer(ctx, performerID)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(aggs))
	for _, a := range aggs {
		views = append(views, NewView(a))
	}
	return views, nil
}

// History returns the most recent sessions of a pair, newest first. A limit
// of 0 returns all of them.
func (s *Service) History(ctx context.Context, performerID, pieceID string, limit int) ([]HistoryItem, error) {
	if limit < 0 {
		return nil, &practice.ErrValidation{Field: "limit", Reason: "must not be negative"}
	}
	entries, err := s.history.RecentHistory(ctx, performerID, pieceID, limit)
	if err != nil {
		return nil, &practice.ErrStorage{Op: "load history", Err: err}
	}
	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, newHistoryItem(e))
	}
	return items, nil
}

func (s *Service) resolve(ctx context.Context, token string) (string, error) {
	performerID, err := s.identity.ResolvePerformer(ctx, token)
	if err == nil {
		return performerID, nil
	}
	if practice.Kind(err) == practice.KindInternal {
		return "", &practice.ErrIdentityNotFound{Err: err}
	}
	return "", err
}

func (s *Service) checkPiece(ctx context.Context, pieceID string) error {
	if pieceID == "" {
		return &practice.ErrValidation{Field: "piece_id", Reason: "must not be empty"}
	}
	ok, err := s.pieces.PieceExistsAndPublished(ctx, pieceID)
	if err != nil {
		return &practice.ErrStorage{Op: "check piece", Err: err}
	}
	if !ok {
		return &practice.ErrInvalidPiece{PieceID: pieceID}
	}
	return nil
}

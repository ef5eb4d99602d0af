package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var historyFields = []string{
	"id",
	"sequence",
	"performer_id",
	"piece_id",
	"duration_minutes",
	"confidence_rating",
	"notes",
	"practiced_at",
	"applied_at",
}

// historyRepo implements HistoryRepo over the practice_sessions table.
type historyRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *historyRepo) AppendHistory(ctx context.Context, entry HistoryEntry) (HistoryEntry, error) {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("next sequence: %w", err)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Sequence = seqNum
	entry.PracticedAt = entry.PracticedAt.UTC()

	query, args := builder().
		Insert(tableSessions).
		Columns(historyFields...).
		Values(
			entry.ID,
			entry.Sequence,
			entry.PerformerID,
			entry.PieceID,
			entry.Duration,
			entry.Confidence,
			entry.Notes,
			entry.PracticedAt,
			nullableTime(entry.AppliedAt),
		).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return HistoryEntry{}, fmt.Errorf("save history entry: %w", err)
	}
	return entry, nil
}

func (r *historyRepo) GetHistory(ctx context.Context, id string) (*HistoryEntry, error) {
	query, args := builder().
		Select(historyFields...).
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("id", id)).
		Limit(1).
		Query()

	entries, err := r.scan(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query history entry: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return &entries[0], nil
}

func (r *historyRepo) RecentHistory(ctx context.Context, performerID, pieceID string, limit int) ([]HistoryEntry, error) {
	sel := builder().
		Select(historyFields...).
		From(entsql.Table(tableSessions)).
		Where(entsql.And(
			entsql.EQ("performer_id", performerID),
			entsql.EQ("piece_id", pieceID),
		)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	entries, err := r.scan(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return entries, nil
}

func (r *historyRepo) scan(ctx context.Context, query string, args []any) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := queryRows(ctx, r.drv, query, args, func(rows *entsql.Rows) error {
		var (
			e         HistoryEntry
			appliedAt sql.NullTime
		)
		if err := rows.Scan(
			&e.ID,
			&e.Sequence,
			&e.PerformerID,
			&e.PieceID,
			&e.Duration,
			&e.Confidence,
			&e.Notes,
			&e.PracticedAt,
			&appliedAt,
		); err != nil {
			return err
		}
		e.PracticedAt = e.PracticedAt.UTC()
		e.AppliedAt = timePtr(appliedAt)
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

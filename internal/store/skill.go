package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

var skillFields = []string{
	"performer_id",
	"piece_id",
	"skill_level",
	"practice_count",
	"total_practice_minutes",
	"last_practice_at",
	"confidence_rating",
	"goal_date",
	"version",
	"created_at",
	"updated_at",
}

// skillRepo implements SkillRepo over the skills and skill_badges tables.
type skillRepo struct {
	drv *entsql.Driver
}

func (r *skillRepo) Get(ctx context.Context, performerID, pieceID string) (*SkillRecord, error) {
	query, args := builder().
		Select(skillFields...).
		From(entsql.Table(tableSkills)).
		Where(entsql.And(
			entsql.EQ("performer_id", performerID),
			entsql.EQ("piece_id", pieceID),
		)).
		Limit(1).
		Query()

	recs, err := scanSkills(ctx, r.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("query skill: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}

	byPiece, err := r.badges(ctx, performerID, pieceID)
	if err != nil {
		return nil, err
	}
	rec := recs[0]
	rec.Badges = byPiece[pieceID]
	return &rec, nil
}

func (r *skillRepo) ListByPerformer(ctx context.Context, performerID string) ([]SkillRecord, error) {
	query, args := builder().
		Select(skillFields...).
		From(entsql.Table(tableSkills)).
		Where(entsql.EQ("performer_id", performerID)).
		OrderBy("piece_id").
		Query()

	recs, err := scanSkills(ctx, r.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}

	byPiece, err := r.badges(ctx, performerID, "")
	if err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i].Badges = byPiece[recs[i].PieceID]
	}
	return recs, nil
}

func (r *skillRepo) Save(ctx context.Context, rec *SkillRecord) (err error) {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var n int64
	if rec.Version == 0 {
		n, err = insertSkill(ctx, tx, rec)
	} else {
		n, err = updateSkill(ctx, tx, rec)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}

	for _, b := range rec.Badges {
		if err = insertBadge(ctx, tx, rec.PerformerID, rec.PieceID, b); err != nil {
			return err
		}
	}

	if rec.AppliedHistoryID != "" {
		if err = markApplied(ctx, tx, rec.AppliedHistoryID, rec.UpdatedAt); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	rec.Version++
	return nil
}

// badges loads badges for a performer, keyed by piece id. An empty pieceID
// loads every piece.
func (r *skillRepo) badges(ctx context.Context, performerID, pieceID string) (map[string][]BadgeRecord, error) {
	where := entsql.EQ("performer_id", performerID)
	if pieceID != "" {
		where = entsql.And(where, entsql.EQ("piece_id", pieceID))
	}
	query, args := builder().
		Select("piece_id", "badge_id", "earned_at").
		From(entsql.Table(tableBadges)).
		Where(where).
		OrderBy("earned_at", "id").
		Query()

	out := make(map[string][]BadgeRecord)
	err := queryRows(ctx, r.drv, query, args, func(rows *entsql.Rows) error {
		var piece string
		var b BadgeRecord
		if err := rows.Scan(&piece, &b.BadgeID, &b.EarnedAt); err != nil {
			return err
		}
		b.EarnedAt = b.EarnedAt.UTC()
		out[piece] = append(out[piece], b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query badges: %w", err)
	}
	return out, nil
}

func scanSkills(ctx context.Context, q dialect.ExecQuerier, query string, args []any) ([]SkillRecord, error) {
	var recs []SkillRecord
	err := queryRows(ctx, q, query, args, func(rows *entsql.Rows) error {
		var (
			rec      SkillRecord
			lastAt   sql.NullTime
			goalDate sql.NullString
		)
		err := rows.Scan(
			&rec.PerformerID,
			&rec.PieceID,
			&rec.Level,
			&rec.PracticeCount,
			&rec.TotalMinutes,
			&lastAt,
			&rec.Confidence,
			&goalDate,
			&rec.Version,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			return err
		}
		rec.LastPracticeAt = timePtr(lastAt)
		rec.GoalDate = stringPtr(goalDate)
		rec.CreatedAt = rec.CreatedAt.UTC()
		rec.UpdatedAt = rec.UpdatedAt.UTC()
		recs = append(recs, rec)
		return nil
	})
	return recs, err
}

// insertSkill inserts a new aggregate. A row that already exists for the
// pair is left alone and reported as zero affected rows.
func insertSkill(ctx context.Context, tx dialect.ExecQuerier, rec *SkillRecord) (int64, error) {
	query, args := builder().
		Insert(tableSkills).
		Columns(skillFields...).
		Values(
			rec.PerformerID,
			rec.PieceID,
			rec.Level,
			rec.PracticeCount,
			rec.TotalMinutes,
			nullableTime(rec.LastPracticeAt),
			rec.Confidence,
			nullableString(rec.GoalDate),
			rec.Version+1,
			rec.CreatedAt.UTC(),
			rec.UpdatedAt.UTC(),
		).
		OnConflict(
			entsql.ConflictColumns("performer_id", "piece_id"),
			entsql.DoNothing(),
		).
		Query()

	n, err := execAffected(ctx, tx, query, args)
	if err != nil {
		return 0, fmt.Errorf("insert skill: %w", err)
	}
	return n, nil
}

// updateSkill writes rec only if the stored version still matches.
func updateSkill(ctx context.Context, tx dialect.ExecQuerier, rec *SkillRecord) (int64, error) {
	upd := builder().
		Update(tableSkills).
		Set("skill_level", rec.Level).
		Set("practice_count", rec.PracticeCount).
		Set("total_practice_minutes", rec.TotalMinutes).
		Set("confidence_rating", rec.Confidence).
		Set("version", rec.Version+1).
		Set("updated_at", rec.UpdatedAt.UTC())
	if rec.LastPracticeAt != nil {
		upd.Set("last_practice_at", rec.LastPracticeAt.UTC())
	} else {
		upd.SetNull("last_practice_at")
	}
	if rec.GoalDate != nil {
		upd.Set("goal_date", *rec.GoalDate)
	} else {
		upd.SetNull("goal_date")
	}

	query, args := upd.Where(entsql.And(
		entsql.EQ("performer_id", rec.PerformerID),
		entsql.EQ("piece_id", rec.PieceID),
		entsql.EQ("version", rec.Version),
	)).Query()

	n, err := execAffected(ctx, tx, query, args)
	if err != nil {
		return 0, fmt.Errorf("update skill: %w", err)
	}
	return n, nil
}

// insertBadge stores b unless the pair already holds that badge, in which
// case the original earned_at is kept.
func insertBadge(ctx context.Context, tx dialect.ExecQuerier, performerID, pieceID string, b BadgeRecord) error {
	query, args := builder().
		Insert(tableBadges).
		Columns("performer_id", "piece_id", "badge_id", "earned_at").
		Values(performerID, pieceID, b.BadgeID, b.EarnedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("performer_id", "piece_id", "badge_id"),
			entsql.DoNothing(),
		).
		Query()

	if _, err := execAffected(ctx, tx, query, args); err != nil {
		return fmt.Errorf("insert badge %s: %w", b.BadgeID, err)
	}
	return nil
}

// markApplied stamps a history entry as folded into its aggregate. Only an
// unapplied entry matches, so a second application affects no rows.
func markApplied(ctx context.Context, tx dialect.ExecQuerier, historyID string, at time.Time) error {
	query, args := builder().
		Update(tableSessions).
		Set("applied_at", at.UTC()).
		Where(entsql.And(
			entsql.EQ("id", historyID),
			entsql.IsNull("applied_at"),
		)).
		Query()

	n, err := execAffected(ctx, tx, query, args)
	if err != nil {
		return fmt.Errorf("mark history %s applied: %w", historyID, err)
	}
	if n == 0 {
		return ErrAlreadyApplied
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// pieceRepo implements PieceRepo over the pieces table.
type pieceRepo struct {
	drv *entsql.Driver
}

func (r *pieceRepo) Create(ctx context.Context, p Piece) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	query, args := builder().
		Insert(tablePieces).
		Columns("id", "title", "composer", "published", "created_at").
		Values(p.ID, p.Title, p.Composer, p.Published, p.CreatedAt.UTC()).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("create piece %s: %w", p.ID, err)
	}
	return nil
}

func (r *pieceRepo) Get(ctx context.Context, id string) (*Piece, error) {
	pieces, err := r.query(ctx, entsql.EQ("id", id))
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, ErrNotFound
	}
	return &pieces[0], nil
}

func (r *pieceRepo) List(ctx context.Context) ([]Piece, error) {
	return r.query(ctx, nil)
}

func (r *pieceRepo) SetPublished(ctx context.Context, id string, published bool) error {
	query, args := builder().
		Update(tablePieces).
		Set("published", published).
		Where(entsql.EQ("id", id)).
		Query()

	n, err := execAffected(ctx, r.drv, query, args)
	if err != nil {
		return fmt.Errorf("update piece %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pieceRepo) PieceExistsAndPublished(ctx context.Context, id string) (bool, error) {
	p, err := r.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.Published, nil
}

func (r *pieceRepo) query(ctx context.Context, where *entsql.Predicate) ([]Piece, error) {
	sel := builder().
		Select("id", "title", "composer", "published", "created_at").
		From(entsql.Table(tablePieces)).
		OrderBy("id")
	if where != nil {
		sel = sel.Where(where)
	}
	query, args := sel.Query()

	var pieces []Piece
	err := queryRows(ctx, r.drv, query, args, func(rows *entsql.Rows) error {
		var p Piece
		if err := rows.Scan(&p.ID, &p.Title, &p.Composer, &p.Published, &p.CreatedAt); err != nil {
			return err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		pieces = append(pieces, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query pieces: %w", err)
	}
	return pieces, nil
}

// performerRepo implements PerformerRepo over the performers table.
type performerRepo struct {
	drv *entsql.Driver
}

func (r *performerRepo) Create(ctx context.Context, p Performer) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	query, args := builder().
		Insert(tablePerformers).
		Columns("id", "display_name", "created_at").
		Values(p.ID, p.DisplayName, p.CreatedAt.UTC()).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("create performer %s: %w", p.ID, err)
	}
	return nil
}

func (r *performerRepo) Get(ctx context.Context, id string) (*Performer, error) {
	query, args := builder().
		Select("id", "display_name", "created_at").
		From(entsql.Table(tablePerformers)).
		Where(entsql.EQ("id", id)).
		Limit(1).
		Query()

	var found *Performer
	err := queryRows(ctx, r.drv, query, args, func(rows *entsql.Rows) error {
		var p Performer
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.CreatedAt); err != nil {
			return err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		found = &p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query performer: %w", err)
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// Piece is a catalog entry. Only published pieces accept practice.
type Piece struct {
	ent.Schema
}

func (Piece) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable(),
		field.String("title").
			NotEmpty(),
		field.String("composer").
			Default(""),
		field.Bool("published").
			Default(false),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

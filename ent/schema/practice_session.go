package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PracticeSession is one append-only history entry.
type PracticeSession struct {
	ent.Schema
}

func (PracticeSession) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable().
			Comment("UUID assigned on append"),
		field.Int64("sequence").
			Unique().
			Immutable().
			Comment("Global sequence number ordering entries"),
		field.String("performer_id").
			NotEmpty().
			Immutable(),
		field.String("piece_id").
			NotEmpty().
			Immutable(),
		field.Int("duration_minutes").
			Immutable(),
		field.Int("confidence_rating").
			Immutable(),
		field.String("notes").
			Default("").
			Immutable(),
		field.Time("practiced_at").
			Immutable(),
		field.Time("applied_at").
			Optional().
			Nillable().
			Comment("Set in the same transaction that folds the entry into its skill"),
	}
}

func (PracticeSession) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("performer_id", "piece_id"),
	}
}

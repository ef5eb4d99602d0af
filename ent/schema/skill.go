package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Skill is the progression aggregate for one performer and piece.
type Skill struct {
	ent.Schema
}

func (Skill) Mixin() []ent.Mixin {
	return []ent.Mixin{
		TimeMixin{},
	}
}

func (Skill) Fields() []ent.Field {
	return []ent.Field{
		field.String("performer_id").
			NotEmpty().
			Immutable(),
		field.String("piece_id").
			NotEmpty().
			Immutable(),
		field.String("skill_level").
			Default("novice").
			Comment("Mastery level name, novice through mastered"),
		field.Int("practice_count").
			Default(0).
			NonNegative(),
		field.Int("total_practice_minutes").
			Default(0).
			NonNegative(),
		field.Time("last_practice_at").
			Optional().
			Nillable().
			Comment("Latest practiced_at folded in; never moves backwards"),
		field.Int("confidence_rating").
			Default(0).
			Comment("Rating from the latest session, 0 before any practice"),
		field.String("goal_date").
			Optional().
			Nillable().
			Comment("Target date as YYYY-MM-DD"),
		field.Int64("version").
			Default(0).
			Comment("Optimistic concurrency counter"),
	}
}

func (Skill) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("performer_id", "piece_id").
			Unique(),
	}
}

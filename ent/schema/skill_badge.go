package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SkillBadge records a badge earned on a performer and piece. The first
// earned_at is kept forever.
type SkillBadge struct {
	ent.Schema
}

func (SkillBadge) Fields() []ent.Field {
	return []ent.Field{
		field.String("performer_id").
			NotEmpty(),
		field.String("piece_id").
			NotEmpty(),
		field.String("badge_id").
			NotEmpty(),
		field.Time("earned_at").
			Immutable(),
	}
}

func (SkillBadge) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("performer_id", "piece_id", "badge_id").
			Unique(),
	}
}

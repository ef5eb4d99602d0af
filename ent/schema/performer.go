package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// Performer is a known caller identity.
type Performer struct {
	ent.Schema
}

func (Performer) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable(),
		field.String("display_name").
			NotEmpty(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

package store

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/abhisek/repertoire/ent/schema"
)

// Table and column names shared by the repositories.
const (
	tableSkills     = "skills"
	tableBadges     = "skill_badges"
	tableSessions   = "practice_sessions"
	tablePieces     = "pieces"
	tablePerformers = "performers"
)

// entities maps each ent schema in ent/schema to the table it migrates to.
// Index names follow ent's <type>_<columns> convention.
var entities = []struct {
	table  string
	prefix string
	def    ent.Interface
}{
	{tableSkills, "skill", entschema.Skill{}},
	{tableBadges, "skillbadge", entschema.SkillBadge{}},
	{tableSessions, "practicesession", entschema.PracticeSession{}},
	{tablePieces, "piece", entschema.Piece{}},
	{tablePerformers, "performer", entschema.Performer{}},
}

// buildTables turns the ent schema definitions into migration tables.
// Schemas without an explicit "id" field get an auto-increment int key.
func buildTables() ([]*schema.Table, error) {
	tables := make([]*schema.Table, 0, len(entities))
	for _, e := range entities {
		t, err := buildTable(e.table, e.prefix, e.def)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", e.table, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func buildTable(name, prefix string, def ent.Interface) (*schema.Table, error) {
	var (
		fields  []ent.Field
		indexes []ent.Index
	)
	for _, m := range def.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, def.Fields()...)
	indexes = append(indexes, def.Indexes()...)

	t := &schema.Table{Name: name}
	byName := make(map[string]*schema.Column)
	var pk *schema.Column
	for _, f := range fields {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("field %s: %w", d.Name, d.Err)
		}
		col := &schema.Column{
			Name:     d.Name,
			Type:     d.Info.Type,
			Nullable: d.Optional || d.Nillable,
			Default:  columnDefault(d),
		}
		if d.Name == "id" {
			pk = col
		} else {
			col.Unique = d.Unique
		}
		t.Columns = append(t.Columns, col)
		byName[col.Name] = col
	}
	if pk == nil {
		pk = &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
		t.Columns = append([]*schema.Column{pk}, t.Columns...)
	}
	t.PrimaryKey = []*schema.Column{pk}

	for _, idx := range indexes {
		d := idx.Descriptor()
		si := &schema.Index{
			Name:   prefix + "_" + strings.Join(d.Fields, "_"),
			Unique: d.Unique,
		}
		for _, f := range d.Fields {
			col, ok := byName[f]
			if !ok {
				return nil, fmt.Errorf("index on unknown field %q", f)
			}
			si.Columns = append(si.Columns, col)
		}
		t.Indexes = append(t.Indexes, si)
	}
	return t, nil
}

// columnDefault keeps static defaults. Function defaults such as time.Now
// are applied by the repositories on write.
func columnDefault(d *field.Descriptor) any {
	switch d.Default.(type) {
	case string, bool, int, int64:
		return d.Default
	}
	return nil
}

// migrate creates or updates all tables to match ent/schema.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	tables, err := buildTables()
	if err != nil {
		return fmt.Errorf("build tables: %w", err)
	}
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

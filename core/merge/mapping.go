package merge

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"bulkmerge/core/database"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Column is one property -> column pair of a mapping.
type Column struct {
	// Property is the Go struct field name.
	Property string `json:"property"`
	// Name is the database column name.
	Name string `json:"name"`
	// Type is the semantic type reported by the gorm schema parser (int, string, time, ...).
	Type string `json:"type"`
}

// Mapping describes how an entity type T maps onto a table.
// It is built once from the gorm schema of T and never mutated afterwards.
type Mapping[T any] struct {
	entity       string
	table        string
	columns      []Column
	fields       []*schema.Field
	key          *schema.Field
	keyGenerated bool
	tag          *schema.Field
}

type mappingOptions struct {
	table     string
	tagColumn string
}

// MappingOption customizes a mapping at build time.
type MappingOption func(*mappingOptions)

// WithTable overrides the table name resolved from the entity type.
func WithTable(name string) MappingOption {
	return func(o *mappingOptions) { o.table = name }
}

// WithTagColumn names a string column the executor may fill with a per-row correlation tag
// so that generated keys of a multi-row insert are matched by tag instead of by position.
func WithTagColumn(column string) MappingOption {
	return func(o *mappingOptions) { o.tagColumn = column }
}

// NewMapping parses T with the gorm schema parser of db and builds its mapping.
// Association fields and fields ignored by gorm are not mapped.
func NewMapping[T any](db *gorm.DB, opts ...MappingOption) (*Mapping[T], error) {
	var o mappingOptions
	for _, opt := range opts {
		opt(&o)
	}
	return newMapping[T](db, o)
}

func newMapping[T any](db *gorm.DB, o mappingOptions) (*Mapping[T], error) {
	model := new(T)
	entity := reflect.TypeOf(model).Elem().String()

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, &MappingError{Entity: entity, Reason: err.Error()}
	}
	s := stmt.Schema

	m := &Mapping[T]{
		entity: entity,
		table:  s.Table,
	}
	if o.table != "" {
		m.table = o.table
	}

	for _, f := range s.Fields {
		if f.DBName == "" || !f.Creatable {
			continue
		}
		m.fields = append(m.fields, f)
		m.columns = append(m.columns, Column{
			Property: f.Name,
			Name:     f.DBName,
			Type:     string(f.DataType),
		})
	}
	if len(m.columns) == 0 {
		return nil, &MappingError{Entity: entity, Reason: "no mapped columns"}
	}

	switch len(s.PrimaryFields) {
	case 0:
		// keyless mappings are representable but cannot be merged
	case 1:
		m.key = s.PrimaryFields[0]
		m.keyGenerated = m.key.AutoIncrement
	default:
		names := make([]string, 0, len(s.PrimaryFields))
		for _, f := range s.PrimaryFields {
			names = append(names, f.DBName)
		}
		return nil, &MappingError{
			Entity: entity,
			Reason: fmt.Sprintf("key must map to exactly one column, got %s", strings.Join(names, ", ")),
		}
	}

	if o.tagColumn != "" {
		f, ok := s.FieldsByDBName[o.tagColumn]
		if !ok {
			return nil, &MappingError{Entity: entity, Reason: fmt.Sprintf("tag column %q is not mapped", o.tagColumn)}
		}
		if f.DataType != schema.String {
			return nil, &MappingError{Entity: entity, Reason: fmt.Sprintf("tag column %q must be a string", o.tagColumn)}
		}
		if m.key != nil && f.DBName == m.key.DBName {
			return nil, &MappingError{Entity: entity, Reason: "tag column cannot be the key"}
		}
		m.tag = f
	}

	return m, nil
}

// Entity returns the Go type name the mapping was built from.
func (m *Mapping[T]) Entity() string { return m.entity }

// Table returns the target table name.
func (m *Mapping[T]) Table() string { return m.table }

// Columns returns a copy of the mapped columns in declaration order.
func (m *Mapping[T]) Columns() []Column {
	out := make([]Column, len(m.columns))
	copy(out, m.columns)
	return out
}

// Key returns the key column, if the mapping has one.
func (m *Mapping[T]) Key() (Column, bool) {
	if m.key == nil {
		return Column{}, false
	}
	return Column{Property: m.key.Name, Name: m.key.DBName, Type: string(m.key.DataType)}, true
}

// KeyGenerated reports whether the key is assigned by the database on insert.
func (m *Mapping[T]) KeyGenerated() bool { return m.keyGenerated }

// TagColumn returns the correlation tag column, or "" when rows are correlated one by one.
func (m *Mapping[T]) TagColumn() string {
	if m.tag == nil {
		return ""
	}
	return m.tag.DBName
}

func (m *Mapping[T]) keyValue(ctx context.Context, row *T) (any, bool) {
	return m.key.ValueOf(ctx, reflect.ValueOf(row).Elem())
}

func (m *Mapping[T]) setKey(ctx context.Context, row *T, v any) error {
	return m.key.Set(ctx, reflect.ValueOf(row).Elem(), v)
}

// values returns the column values of row. The key column is left out when withKey is false.
func (m *Mapping[T]) values(ctx context.Context, row *T, withKey bool) map[string]any {
	rv := reflect.ValueOf(row).Elem()
	out := make(map[string]any, len(m.fields))
	for _, f := range m.fields {
		if !withKey && m.key != nil && f.DBName == m.key.DBName {
			continue
		}
		v, _ := f.ValueOf(ctx, rv)
		out[f.DBName] = v
	}
	return out
}

// updateColumns lists the columns rewritten when an existing row is merged.
func (m *Mapping[T]) updateColumns() []string {
	cols := make([]string, 0, len(m.columns))
	for _, c := range m.columns {
		if m.key != nil && c.Name == m.key.DBName {
			continue
		}
		if m.tag != nil && c.Name == m.tag.DBName {
			continue
		}
		cols = append(cols, c.Name)
	}
	return cols
}

// VerifyMapping checks that every mapped column exists in the target table.
// It is an optional preflight that catches schema drift before the first batch is sent.
func VerifyMapping[T any](db *gorm.DB, m *Mapping[T]) error {
	cols, err := database.GetTableColumns(db, m.table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return &MappingError{Entity: m.entity, Reason: fmt.Sprintf("table %s does not exist", m.table)}
	}

	present := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		present[c.Field] = struct{}{}
	}

	var missing []string
	for _, c := range m.columns {
		if _, ok := present[strings.ToLower(c.Name)]; !ok {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return &MappingError{
			Entity: m.entity,
			Reason: fmt.Sprintf("columns missing in %s: %s", m.table, strings.Join(missing, ", ")),
		}
	}
	return nil
}

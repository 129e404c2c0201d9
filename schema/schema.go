// Package schema holds the static field-metadata tables that map domain
// struct properties onto RediSearch index fields. A Schema is built once,
// when the domain type is registered, and read concurrently afterwards.
package schema

import "strings"

// FieldType is the backend semantic of an indexed field.
type FieldType int

const (
	Text FieldType = iota + 1
	Tag
	Numeric
	Geo
	// Nested marks a composite field whose sub-fields are indexed through
	// an embedded schema.
	Nested
)

func (t FieldType) String() string {
	switch t {
	case Text:
		return "TEXT"
	case Tag:
		return "TAG"
	case Numeric:
		return "NUMERIC"
	case Geo:
		return "GEO"
	case Nested:
		return "NESTED"
	default:
		return "UNKNOWN"
	}
}

// Point is a geographic coordinate pair, indexed as a GEO field.
type Point struct {
	Lon float64
	Lat float64
}

// Field describes one indexed property of a domain type.
type Field struct {
	// Name is the property name as it appears in query intents (lowerCamel).
	Name string
	// Alias overrides the index field name. Empty means the field is
	// addressed by its property path with dots replaced by underscores.
	Alias string
	Type  FieldType
	// IsCollection marks set/list valued fields; Type then describes the
	// element semantic.
	IsCollection bool
	// IndexMissing reports whether the index tracks missing values for the
	// field, enabling ismissing()/!ismissing() filters.
	IndexMissing bool
	// IsKey marks the property that receives the Redis key on decode.
	IsKey bool
	// Nested is the embedded schema for composite fields.
	Nested *Schema
}

// Binding is a resolved property path: the index field key to use in query
// strings plus the metadata driving clause selection.
type Binding struct {
	Key          string
	Type         FieldType
	IsCollection bool
	IndexMissing bool
}

// Schema is the field-metadata table for one domain type.
type Schema struct {
	indexName string
	fields    []Field
	byName    map[string]int
}

// New builds a schema from an explicit field list.
func New(indexName string, fields ...Field) *Schema {
	s := &Schema{
		indexName: indexName,
		fields:    fields,
		byName:    make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		s.byName[f.Name] = i
	}
	return s
}

// IndexName returns the physical index the domain type is stored under.
func (s *Schema) IndexName() string {
	return s.indexName
}

// Fields returns the registered fields in declaration order.
func (s *Schema) Fields() []Field {
	return s.fields
}

// Resolve walks a dotted property path and returns the index binding for the
// terminal field. ok is false when any segment cannot be matched; callers are
// expected to drop the clause rather than fail the plan.
func (s *Schema) Resolve(path string) (Binding, bool) {
	return s.resolve(path, path)
}

func (s *Schema) resolve(full, remainder string) (Binding, bool) {
	segment, rest, hasRest := strings.Cut(remainder, ".")
	idx, ok := s.byName[segment]
	if !ok {
		return Binding{}, false
	}
	f := s.fields[idx]

	if f.Type == Nested {
		if !hasRest || f.Nested == nil {
			return Binding{}, false
		}
		return f.Nested.resolve(full, rest)
	}
	if hasRest {
		return Binding{}, false
	}

	key := f.Alias
	if key == "" {
		key = strings.ReplaceAll(full, ".", "_")
	}
	return Binding{
		Key:          key,
		Type:         f.Type,
		IsCollection: f.IsCollection,
		IndexMissing: f.IndexMissing,
	}, true
}

// Alias returns the index field name for a property path, falling back to
// the path itself when it cannot be resolved.
func (s *Schema) Alias(path string) string {
	if b, ok := s.Resolve(path); ok {
		return b.Key
	}
	return strings.ReplaceAll(path, ".", "_")
}

// HasIndexMissing reports whether the property's index field tracks missing
// values. Unresolvable properties report false.
func (s *Schema) HasIndexMissing(path string) bool {
	b, ok := s.Resolve(path)
	return ok && b.IndexMissing
}

// KeyProperty returns the name of the property marked as the key holder.
func (s *Schema) KeyProperty() (string, bool) {
	for _, f := range s.fields {
		if f.IsKey {
			return f.Name, true
		}
	}
	return "", false
}

package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"
)

var (
	timeType  = reflect.TypeOf(time.Time{})
	pointType = reflect.TypeOf(Point{})
)

// FromStruct registers a domain type by walking its struct fields once and
// building the field-metadata table. Indexing is declared with `search`
// tags:
//
//	type Person struct {
//		ID        string   `search:",key"`
//		FirstName string   `search:",text"`
//		Status    string   `search:",tag"`
//		Age       int      `search:",indexed"`
//		Home      Point    `search:",indexed"`
//		Skills    []string `search:",tag"`
//		Address   Address  `search:",indexed"`
//	}
//
// The first tag element overrides the property name; options are text, tag,
// numeric, geo, indexed (infer from the Go type), alias=<name>, missing and
// key. Untagged fields are not indexed.
func FromStruct(prototype any, indexName string) (*Schema, error) {
	t := reflect.TypeOf(prototype)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: prototype must be a struct, got %T", prototype)
	}
	fields, err := structFields(t)
	if err != nil {
		return nil, err
	}
	return New(indexName, fields...), nil
}

func structFields(t reflect.Type) ([]Field, error) {
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, ok := sf.Tag.Lookup("search")
		if !ok || tag == "-" {
			continue
		}
		f, err := fieldFromTag(sf, tag)
		if err != nil {
			return nil, err
		}
		if f != nil {
			fields = append(fields, *f)
		}
	}
	return fields, nil
}

func fieldFromTag(sf reflect.StructField, tag string) (*Field, error) {
	parts := strings.Split(tag, ",")
	f := Field{Name: parts[0]}
	if f.Name == "" {
		f.Name = lowerCamel(sf.Name)
	}

	var explicit FieldType
	infer := false
	for _, opt := range parts[1:] {
		switch {
		case opt == "text":
			explicit = Text
		case opt == "tag":
			explicit = Tag
		case opt == "numeric":
			explicit = Numeric
		case opt == "geo":
			explicit = Geo
		case opt == "indexed":
			infer = true
		case opt == "missing":
			f.IndexMissing = true
		case opt == "key":
			f.IsKey = true
			if explicit == 0 {
				explicit = Tag
			}
		case strings.HasPrefix(opt, "alias="):
			f.Alias = strings.TrimPrefix(opt, "alias=")
		case opt == "":
		default:
			return nil, fmt.Errorf("schema: unknown tag option %q on field %s", opt, sf.Name)
		}
	}

	ft := sf.Type
	for ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	if ft.Kind() == reflect.Slice || ft.Kind() == reflect.Array {
		f.IsCollection = true
		ft = ft.Elem()
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
	}

	if explicit != 0 {
		f.Type = explicit
		return &f, nil
	}
	if !infer {
		return nil, fmt.Errorf("schema: field %s needs an index kind (text, tag, numeric, geo or indexed)", sf.Name)
	}

	switch inferred := inferType(ft); inferred {
	case Nested:
		nested, err := structFields(ft)
		if err != nil {
			return nil, err
		}
		f.Type = Nested
		f.Nested = New("", nested...)
		return &f, nil
	case 0:
		// No mapping for this Go type; the field stays unindexed.
		return nil, nil
	default:
		f.Type = inferred
		return &f, nil
	}
}

// inferType applies the generic-index mapping: character-like, booleans and
// identifier types become tags, numeric and time values become numeric
// fields, points become geo, other structs recurse as nested.
func inferType(t reflect.Type) FieldType {
	if t == timeType {
		return Numeric
	}
	if t == pointType {
		return Geo
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool:
		return Tag
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Numeric
	case reflect.Struct:
		return Nested
	default:
		return 0
	}
}

// lowerCamel lowers the leading uppercase run so FirstName becomes firstName
// and initialisms collapse (ID -> id, IDNumber -> idNumber).
func lowerCamel(name string) string {
	runes := []rune(name)
	for i := 0; i < len(runes) && unicode.IsUpper(runes[i]); i++ {
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

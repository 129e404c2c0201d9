// Package document converts between Redis hash representations and typed
// domain objects. Property names, key designation and nesting follow the
// same `search` struct tags the schema package registers indexes from.
package document

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

const (
	tagName = "search"
	// collectionSeparator joins collection elements inside a single hash
	// field value.
	collectionSeparator = "|"
)

var timeType = reflect.TypeOf(time.Time{})

// Decode populates dest (a struct pointer) from a raw hash field map.
// Nested structs read dot-prefixed fields ("address.city"). Missing hash
// fields leave the destination field at its zero value.
func Decode(fields map[string]string, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("document: decode destination must be a non-nil struct pointer, got %T", dest)
	}
	return decodeStruct(fields, rv.Elem(), "")
}

func decodeStruct(fields map[string]string, rv reflect.Value, prefix string) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := propertyName(sf)
		if name == "" {
			continue
		}
		fv := rv.Field(i)

		if fv.Kind() == reflect.Struct && sf.Type != timeType {
			if err := decodeStruct(fields, fv, prefix+name+"."); err != nil {
				return err
			}
			continue
		}

		raw, ok := fields[prefix+name]
		if !ok {
			continue
		}
		if err := setValue(fv, raw); err != nil {
			return fmt.Errorf("document: field %s%s: %w", prefix, name, err)
		}
	}
	return nil
}

func setValue(fv reflect.Value, raw string) error {
	if fv.Type() == timeType {
		millis, err := cast.ToInt64E(raw)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(time.UnixMilli(millis)))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(raw)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(raw)
		if err != nil {
			return err
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Slice:
		if raw == "" {
			return nil
		}
		parts := strings.Split(raw, collectionSeparator)
		slice := reflect.MakeSlice(fv.Type(), len(parts), len(parts))
		for i, part := range parts {
			if err := setValue(slice.Index(i), part); err != nil {
				return err
			}
		}
		fv.Set(slice)
	default:
		return fmt.Errorf("unsupported destination kind %s", fv.Kind())
	}
	return nil
}

// Encode flattens a struct into a hash field map, the inverse of Decode.
// Zero-valued fields are included so that round trips are stable; the key
// field is skipped.
func Encode(src any) (map[string]string, error) {
	rv := reflect.ValueOf(src)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("document: encode source must be a struct, got %T", src)
	}
	fields := make(map[string]string)
	if err := encodeStruct(fields, rv, ""); err != nil {
		return nil, err
	}
	return fields, nil
}

func encodeStruct(fields map[string]string, rv reflect.Value, prefix string) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || isKeyField(sf) {
			continue
		}
		name := propertyName(sf)
		if name == "" {
			continue
		}
		fv := rv.Field(i)

		if fv.Kind() == reflect.Struct && sf.Type != timeType {
			if err := encodeStruct(fields, fv, prefix+name+"."); err != nil {
				return err
			}
			continue
		}

		s, err := encodeValue(fv)
		if err != nil {
			return fmt.Errorf("document: field %s%s: %w", prefix, name, err)
		}
		fields[prefix+name] = s
	}
	return nil
}

func encodeValue(fv reflect.Value) (string, error) {
	if fv.Type() == timeType {
		return strconv.FormatInt(fv.Interface().(time.Time).UnixMilli(), 10), nil
	}
	switch fv.Kind() {
	case reflect.Slice:
		parts := make([]string, fv.Len())
		for i := 0; i < fv.Len(); i++ {
			s, err := encodeValue(fv.Index(i))
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, collectionSeparator), nil
	default:
		return cast.ToStringE(fv.Interface())
	}
}

// AttachKey writes the backend key into the struct field tagged with the
// key option. Objects without a key field are returned unchanged.
func AttachKey(dest any, key string) {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return
	}
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || !isKeyField(sf) {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.String {
			fv.SetString(key)
		}
		return
	}
}

// FieldNames lists the top-level indexed property names of a struct type,
// in declaration order. ok is false when any tagged field could not be
// named, which disqualifies the type from projection optimization.
func FieldNames(t reflect.Type) ([]string, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	var names []string
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if _, ok := sf.Tag.Lookup(tagName); !ok {
			// An untagged field is computed ad hoc: open projection.
			return nil, false
		}
		if isKeyField(sf) {
			continue
		}
		name := propertyName(sf)
		if name == "" {
			return nil, false
		}
		names = append(names, name)
	}
	return names, len(names) > 0
}

func propertyName(sf reflect.StructField) string {
	tag, ok := sf.Tag.Lookup(tagName)
	if !ok {
		return lowerCamel(sf.Name)
	}
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return lowerCamel(sf.Name)
	}
	return name
}

func isKeyField(sf reflect.StructField) bool {
	tag, ok := sf.Tag.Lookup(tagName)
	if !ok {
		return false
	}
	_, opts, _ := strings.Cut(tag, ",")
	for _, opt := range strings.Split(opts, ",") {
		if opt == "key" {
			return true
		}
	}
	return false
}

func lowerCamel(name string) string {
	runes := []rune(name)
	for i := 0; i < len(runes); i++ {
		if runes[i] < 'A' || runes[i] > 'Z' {
			break
		}
		if i > 0 && i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' {
			break
		}
		runes[i] = runes[i] + ('a' - 'A')
	}
	return string(runes)
}

package searchquery

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/berickus/redis-om-spring/schema"
)

// reserved characters of the RediSearch query syntax, escaped in field names
// and tag values.
const reserved = ",.<>{}[]\"':;!@#$%^&*()-+=~| "

var escaper = buildEscaper()

func buildEscaper() *strings.Replacer {
	pairs := make([]string, 0, len(reserved)*2)
	for _, r := range reserved {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}

// Escape prefixes reserved query-syntax characters with a backslash.
func Escape(s string) string {
	return escaper.Replace(s)
}

// formatValue renders a bound parameter as query text. Times become epoch
// milliseconds, points become "lon,lat", everything else goes through cast.
func formatValue(v any) string {
	switch x := v.(type) {
	case time.Time:
		return strconv.FormatInt(x.UnixMilli(), 10)
	case schema.Point:
		return fmt.Sprintf("%v,%v", x.Lon, x.Lat)
	default:
		return cast.ToString(v)
	}
}

// collectionValues flattens a slice or array parameter into its elements.
// Scalar values come back as a single-element slice.
func collectionValues(v any) []any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out
	default:
		return []any{v}
	}
}

// IsEmptyCollection reports whether a bound parameter is an empty slice or
// array. An empty "any of these values" predicate can never match, so
// executions short-circuit before calling the backend.
func IsEmptyCollection(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	default:
		return false
	}
}

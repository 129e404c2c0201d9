package searchquery

import (
	"fmt"
	"strings"

	"github.com/berickus/redis-om-spring/schema"
)

// Clause binds a comparison operator to a backend field type. It knows how
// many bound parameters it consumes and how to render itself as a RediSearch
// query fragment.
type Clause struct {
	op     Operator
	field  schema.FieldType
	arity  int
	render func(field string, args []any) string
}

// Operator returns the comparison the clause implements.
func (c Clause) Operator() Operator { return c.op }

// Arity is the number of bound parameters the clause consumes.
func (c Clause) Arity() int { return c.arity }

// IsSentinel reports whether the clause is a null-check marker that gates
// the existence-filter execution path instead of rendering inline.
func (c Clause) IsSentinel() bool {
	return c.op == OpIsNull || c.op == OpIsNotNull
}

// Render produces the query fragment for the clause. Sentinel clauses render
// their aggregation filter-predicate form; the primary search path excludes
// them before rendering.
func (c Clause) Render(field string, args []any) string {
	return c.render(field, args)
}

// Distance is a geo search radius.
type Distance struct {
	Value float64
	Unit  string // m, km, mi, ft
}

func (d Distance) String() string {
	unit := d.Unit
	if unit == "" {
		unit = "m"
	}
	return fmt.Sprintf("%v %s", d.Value, unit)
}

type clauseKey struct {
	field schema.FieldType
	op    Operator
}

var catalog = map[clauseKey]Clause{}

func register(field schema.FieldType, op Operator, arity int, render func(string, []any) string) {
	catalog[clauseKey{field, op}] = Clause{op: op, field: field, arity: arity, render: render}
}

// Lookup finds the clause template for a field type and operator pair.
func Lookup(field schema.FieldType, op Operator) (Clause, bool) {
	c, ok := catalog[clauseKey{field, op}]
	return c, ok
}

// IsNullClause and IsNotNullClause are the sentinel clauses. They consume no
// parameters and never appear in the primary query string.
var (
	IsNullClause = Clause{op: OpIsNull, arity: 0, render: func(field string, _ []any) string {
		return "!exists(@" + field + ")"
	}}
	IsNotNullClause = Clause{op: OpIsNotNull, arity: 0, render: func(field string, _ []any) string {
		return "exists(@" + field + ")"
	}}
)

func init() {
	// TEXT
	register(schema.Text, OpAll, 0, func(_ string, _ []any) string { return "*" })
	register(schema.Text, OpEquals, 1, func(f string, a []any) string {
		return fmt.Sprintf("@%s:%s", f, formatValue(a[0]))
	})
	register(schema.Text, OpNotEquals, 1, func(f string, a []any) string {
		return fmt.Sprintf("-@%s:%s", f, formatValue(a[0]))
	})
	register(schema.Text, OpStartingWith, 1, func(f string, a []any) string {
		return fmt.Sprintf("@%s:%s*", f, formatValue(a[0]))
	})
	register(schema.Text, OpEndingWith, 1, func(f string, a []any) string {
		return fmt.Sprintf("@%s:*%s", f, formatValue(a[0]))
	})
	register(schema.Text, OpContaining, 1, func(f string, a []any) string {
		return fmt.Sprintf("@%s:*%s*", f, formatValue(a[0]))
	})
	register(schema.Text, OpLike, 1, func(f string, a []any) string {
		return fmt.Sprintf("@%s:%%%s%%", f, formatValue(a[0]))
	})

	// TAG
	register(schema.Tag, OpEquals, 1, func(f string, a []any) string {
		return fmt.Sprintf("@%s:{%s}", f, Escape(formatValue(a[0])))
	})
	register(schema.Tag, OpNotEquals, 1, func(f string, a []any) string {
		return fmt.Sprintf("-@%s:{%s}", f, Escape(formatValue(a[0])))
	})
	register(schema.Tag, OpStartingWith, 1, func(f string, a []any) string {
		return fmt.Sprintf("@%s:{%s*}", f, Escape(formatValue(a[0])))
	})
	register(schema.Tag, OpEndingWith, 1, func(f string, a []any) string {
		return fmt.Sprintf("@%s:{*%s}", f, Escape(formatValue(a[0])))
	})
	register(schema.Tag, OpIn, 1, func(f string, a []any) string {
		vs := collectionValues(a[0])
		parts := make([]string, len(vs))
		for i, v := range vs {
			parts[i] = Escape(formatValue(v))
		}
		return fmt.Sprintf("@%s:{%s}", f, strings.Join(parts, "|"))
	})
	register(schema.Tag, OpContainingAll, 1, func(f string, a []any) string {
		vs := collectionValues(a[0])
		parts := make([]string, len(vs))
		for i, v := range vs {
			parts[i] = fmt.Sprintf("@%s:{%s}", f, Escape(formatValue(v)))
		}
		return strings.Join(parts, " ")
	})

	// NUMERIC
	register(schema.Numeric, OpEquals, 1, func(f string, a []any) string {
		v := formatValue(a[0])
		return fmt.Sprintf("@%s:[%s %s]", f, v, v)
	})
	register(schema.Numeric, OpNotEquals, 1, func(f string, a []any) string {
		v := formatValue(a[0])
		return fmt.Sprintf("-@%s:[%s %s]", f, v, v)
	})
	register(schema.Numeric, OpBetween, 2, func(f string, a []any) string {
		return fmt.Sprintf("@%s:[%s %s]", f, formatValue(a[0]), formatValue(a[1]))
	})
	register(schema.Numeric, OpGreaterThan, 1, func(f string, a []any) string {
		return fmt.Sprintf("@%s:[(%s inf]", f, formatValue(a[0]))
	})
	register(schema.Numeric, OpGreaterThanEqual, 1, func(f string, a []any) string {
		return fmt.Sprintf("@%s:[%s inf]", f, formatValue(a[0]))
	})
	register(schema.Numeric, OpLessThan, 1, func(f string, a []any) string {
		return fmt.Sprintf("@%s:[-inf (%s]", f, formatValue(a[0]))
	})
	register(schema.Numeric, OpLessThanEqual, 1, func(f string, a []any) string {
		return fmt.Sprintf("@%s:[-inf %s]", f, formatValue(a[0]))
	})
	register(schema.Numeric, OpIn, 1, func(f string, a []any) string {
		vs := collectionValues(a[0])
		parts := make([]string, len(vs))
		for i, v := range vs {
			fv := formatValue(v)
			parts[i] = fmt.Sprintf("@%s:[%s %s]", f, fv, fv)
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return "(" + strings.Join(parts, "|") + ")"
	})
	register(schema.Numeric, OpContainingAll, 1, func(f string, a []any) string {
		vs := collectionValues(a[0])
		parts := make([]string, len(vs))
		for i, v := range vs {
			fv := formatValue(v)
			parts[i] = fmt.Sprintf("@%s:[%s %s]", f, fv, fv)
		}
		return strings.Join(parts, " ")
	})

	// GEO
	register(schema.Geo, OpNear, 2, func(f string, a []any) string {
		p := a[0].(schema.Point)
		d, _ := a[1].(Distance)
		return fmt.Sprintf("@%s:[%v %v %s]", f, p.Lon, p.Lat, d)
	})
	register(schema.Geo, OpEquals, 1, func(f string, a []any) string {
		p := a[0].(schema.Point)
		return fmt.Sprintf("@%s:[%v %v 0.0005 mi]", f, p.Lon, p.Lat)
	})
	register(schema.Geo, OpIn, 1, func(f string, a []any) string {
		vs := collectionValues(a[0])
		parts := make([]string, len(vs))
		for i, v := range vs {
			p := v.(schema.Point)
			parts[i] = fmt.Sprintf("@%s:[%v %v 0.0005 mi]", f, p.Lon, p.Lat)
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return "(" + strings.Join(parts, "|") + ")"
	})
	register(schema.Geo, OpContainingAll, 1, func(f string, a []any) string {
		vs := collectionValues(a[0])
		parts := make([]string, len(vs))
		for i, v := range vs {
			p := v.(schema.Point)
			parts[i] = fmt.Sprintf("@%s:[%v %v 0.0005 mi]", f, p.Lon, p.Lat)
		}
		return strings.Join(parts, " ")
	})
}

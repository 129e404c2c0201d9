package searchquery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berickus/redis-om-spring/schema"
)

func TestClauseRendering(t *testing.T) {
	tests := []struct {
		name      string
		fieldType schema.FieldType
		op        Operator
		field     string
		args      []any
		expected  string
	}{
		{
			name:      "text equals",
			fieldType: schema.Text,
			op:        OpEquals,
			field:     "title",
			args:      []any{"redis"},
			expected:  "@title:redis",
		},
		{
			name:      "text not equals",
			fieldType: schema.Text,
			op:        OpNotEquals,
			field:     "title",
			args:      []any{"redis"},
			expected:  "-@title:redis",
		},
		{
			name:      "text starting with",
			fieldType: schema.Text,
			op:        OpStartingWith,
			field:     "title",
			args:      []any{"red"},
			expected:  "@title:red*",
		},
		{
			name:      "text ending with",
			fieldType: schema.Text,
			op:        OpEndingWith,
			field:     "title",
			args:      []any{"dis"},
			expected:  "@title:*dis",
		},
		{
			name:      "text containing",
			fieldType: schema.Text,
			op:        OpContaining,
			field:     "title",
			args:      []any{"edi"},
			expected:  "@title:*edi*",
		},
		{
			name:      "text like",
			fieldType: schema.Text,
			op:        OpLike,
			field:     "title",
			args:      []any{"redis"},
			expected:  "@title:%redis%",
		},
		{
			name:      "tag equals escapes the value",
			fieldType: schema.Tag,
			op:        OpEquals,
			field:     "status",
			args:      []any{"in progress"},
			expected:  `@status:{in\ progress}`,
		},
		{
			name:      "tag membership",
			fieldType: schema.Tag,
			op:        OpIn,
			field:     "status",
			args:      []any{[]string{"active", "paused"}},
			expected:  "@status:{active|paused}",
		},
		{
			name:      "tag contains all values",
			fieldType: schema.Tag,
			op:        OpContainingAll,
			field:     "tags",
			args:      []any{[]string{"go", "redis"}},
			expected:  "@tags:{go} @tags:{redis}",
		},
		{
			name:      "numeric equals",
			fieldType: schema.Numeric,
			op:        OpEquals,
			field:     "age",
			args:      []any{42},
			expected:  "@age:[42 42]",
		},
		{
			name:      "numeric between",
			fieldType: schema.Numeric,
			op:        OpBetween,
			field:     "age",
			args:      []any{18, 65},
			expected:  "@age:[18 65]",
		},
		{
			name:      "numeric greater than",
			fieldType: schema.Numeric,
			op:        OpGreaterThan,
			field:     "age",
			args:      []any{21},
			expected:  "@age:[(21 inf]",
		},
		{
			name:      "numeric less than or equal",
			fieldType: schema.Numeric,
			op:        OpLessThanEqual,
			field:     "age",
			args:      []any{30},
			expected:  "@age:[-inf 30]",
		},
		{
			name:      "numeric membership groups alternatives",
			fieldType: schema.Numeric,
			op:        OpIn,
			field:     "age",
			args:      []any{[]int{1, 2}},
			expected:  "(@age:[1 1]|@age:[2 2])",
		},
		{
			name:      "geo near",
			fieldType: schema.Geo,
			op:        OpNear,
			field:     "location",
			args:      []any{schema.Point{Lon: 2.35, Lat: 48.85}, Distance{Value: 5, Unit: "km"}},
			expected:  "@location:[2.35 48.85 5 km]",
		},
		{
			name:      "geo equals uses a pinpoint radius",
			fieldType: schema.Geo,
			op:        OpEquals,
			field:     "location",
			args:      []any{schema.Point{Lon: 2.35, Lat: 48.85}},
			expected:  "@location:[2.35 48.85 0.0005 mi]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, ok := Lookup(tt.fieldType, tt.op)
			require.True(t, ok, "no clause registered for %s/%s", tt.fieldType, tt.op)
			assert.Equal(t, tt.expected, clause.Render(tt.field, tt.args))
			assert.Equal(t, len(tt.args), clause.Arity())
		})
	}
}

func TestSentinelClauses(t *testing.T) {
	assert.True(t, IsNullClause.IsSentinel())
	assert.True(t, IsNotNullClause.IsSentinel())
	assert.Equal(t, 0, IsNullClause.Arity())

	assert.Equal(t, "!exists(@email)", IsNullClause.Render("email", nil))
	assert.Equal(t, "exists(@email)", IsNotNullClause.Render("email", nil))

	regular, ok := Lookup(schema.Tag, OpEquals)
	require.True(t, ok)
	assert.False(t, regular.IsSentinel())
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `john\.doe\@mail\.com`, Escape("john.doe@mail.com"))
	assert.Equal(t, `in\ progress`, Escape("in progress"))
	assert.Equal(t, "plain", Escape("plain"))
}

func TestFormatValue(t *testing.T) {
	ts := time.UnixMilli(1700000000000).UTC()
	assert.Equal(t, "1700000000000", formatValue(ts))
	assert.Equal(t, "2.35,48.85", formatValue(schema.Point{Lon: 2.35, Lat: 48.85}))
	assert.Equal(t, "42", formatValue(42))
	assert.Equal(t, "true", formatValue(true))
}

func TestIsEmptyCollection(t *testing.T) {
	assert.True(t, IsEmptyCollection([]string{}))
	assert.False(t, IsEmptyCollection([]string{"a"}))
	assert.False(t, IsEmptyCollection("a"))
	assert.False(t, IsEmptyCollection(nil))
}

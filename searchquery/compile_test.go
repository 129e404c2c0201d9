package searchquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileStructured(t *testing.T) {
	sch := personSchema()

	tests := []struct {
		name     string
		method   string
		tree     Tree
		params   []any
		expected string
	}{
		{
			name:     "single tag clause",
			method:   "findByStatus",
			tree:     Tree{Or: [][]Condition{{{Property: "status", Op: OpEquals}}}},
			params:   []any{"active"},
			expected: "@status:{active}",
		},
		{
			name:   "conjunction consumes parameters in term order",
			method: "findByStatusAndAgeBetween",
			tree: Tree{Or: [][]Condition{{
				{Property: "status", Op: OpEquals},
				{Property: "age", Op: OpBetween},
			}}},
			params:   []any{"active", 18, 65},
			expected: "@status:{active} @age:[18 65]",
		},
		{
			name:   "disjunction wraps each branch in parentheses",
			method: "findByStatusOrAgeGreaterThan",
			tree: Tree{Or: [][]Condition{
				{{Property: "status", Op: OpEquals}},
				{{Property: "age", Op: OpGreaterThan}},
			}},
			params:   []any{"active", 21},
			expected: "(@status:{active}) | (@age:[(21 inf])",
		},
		{
			name:     "nested property resolves through the embedded schema",
			method:   "findByAddressCity",
			tree:     Tree{Or: [][]Condition{{{Property: "address.city", Op: OpEquals}}}},
			params:   []any{"Paris"},
			expected: "@address_city:{Paris}",
		},
		{
			name:     "nested property honors the field alias",
			method:   "findByAddressZip",
			tree:     Tree{Or: [][]Condition{{{Property: "address.zip", Op: OpEquals}}}},
			params:   []any{"75001"},
			expected: "@postal:{75001}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PlanFromMethod(tt.method, tt.tree, sch)
			require.NoError(t, err)

			compiled, err := Compile(p, tt.params, true)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, compiled)
		})
	}
}

func TestCompileSentinelOnlyFallsBackToMatchAll(t *testing.T) {
	sch := personSchema()
	p, err := PlanFromMethod("findByEmailIsNotNull", Tree{Or: [][]Condition{{
		{Property: "email", Op: OpIsNotNull},
	}}}, sch)
	require.NoError(t, err)

	compiled, err := Compile(p, nil, true)
	require.NoError(t, err)
	assert.Equal(t, "*", compiled)
}

func TestCompileParameterShortage(t *testing.T) {
	sch := personSchema()
	p, err := PlanFromMethod("findByAgeBetween", Tree{Or: [][]Condition{{
		{Property: "age", Op: OpBetween},
	}}}, sch)
	require.NoError(t, err)

	_, err = Compile(p, []any{18}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs 2 parameters")
}

func TestCompileTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		names    []string
		params   []any
		expected string
	}{
		{
			name:     "simple substitution",
			template: "@title:$title",
			names:    []string{"title"},
			params:   []any{"redis"},
			expected: "@title:redis",
		},
		{
			name:     "placeholder names sharing a prefix stay distinct",
			template: "@a:$v @b:$vv",
			names:    []string{"v", "vv"},
			params:   []any{"one", "two"},
			expected: "@a:one @b:two",
		},
		{
			name:     "unknown placeholder stays literal",
			template: "@title:$unknown",
			names:    []string{"title"},
			params:   []any{"redis"},
			expected: "@title:$unknown",
		},
		{
			name:     "collection parameter flattens to alternatives",
			template: "@status:{$statuses}",
			names:    []string{"statuses"},
			params:   []any{[]string{"active", "paused"}},
			expected: "@status:{active | paused}",
		},
		{
			name:     "blank template matches everything",
			template: "",
			expected: "*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PlanFromTemplate(tt.template, ParamNames(tt.names...))
			compiled, err := Compile(p, tt.params, true)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, compiled)
		})
	}
}

func TestCompileAggregationTemplateParams(t *testing.T) {
	p, err := PlanFromAggregation(Aggregation{
		Query:      "@department:{$dept}",
		ParamNames: []string{"dept"},
	})
	require.NoError(t, err)

	compiled, err := Compile(p, []any{"engineering"}, true)
	require.NoError(t, err)
	assert.Equal(t, "@department:{engineering}", compiled)
}

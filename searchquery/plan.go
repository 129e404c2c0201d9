package searchquery

import (
	"regexp"
	"strings"

	"github.com/berickus/redis-om-spring/schema"
)

// Kind discriminates the execution strategy a plan compiles into.
type Kind int

const (
	KindSearch Kind = iota + 1
	KindAggregate
	KindDelete
	KindTagValues
	KindAutocomplete
)

func (k Kind) String() string {
	switch k {
	case KindSearch:
		return "SEARCH"
	case KindAggregate:
		return "AGGREGATE"
	case KindDelete:
		return "DELETE"
	case KindTagValues:
		return "TAG_VALUES"
	case KindAutocomplete:
		return "AUTOCOMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Condition is one property comparison term of a parsed method expression.
type Condition struct {
	Property string
	Op       Operator
}

// Sort is a sort directive attached to a method expression.
type Sort struct {
	Property  string
	Ascending bool
}

// Tree is the pre-tokenized method expression: a disjunction of
// conjunctions of comparison terms plus optional sort directives.
type Tree struct {
	Or   [][]Condition
	Sort []Sort
}

// ClauseEntry pairs a resolved index field key with its clause template.
type ClauseEntry struct {
	Field  string
	Clause Clause
}

// NullCheck records a sentinel clause for the existence-filter path.
type NullCheck struct {
	Field   string
	NotNull bool
	// IndexMissing selects the ismissing()/!ismissing() filter form over
	// the legacy exists()/!exists() form.
	IndexMissing bool
}

// Plan is the normalized query plan. It is built exactly once per query
// method and never mutated afterwards, so concurrent executions need no
// locking.
type Plan struct {
	kind          Kind
	orParts       [][]ClauseEntry
	nullChecks    []NullCheck
	hasNullCheck  bool
	template      string
	paramNames    []string
	returnFields  []string
	offset        int // -1 when unset
	limit         int // -1 when unset
	sortBy        string
	sortAscending bool
	dialect       int
	tagField      string
	agg           *Aggregation
}

func newPlan(kind Kind) *Plan {
	return &Plan{kind: kind, offset: -1, limit: -1, sortAscending: true, dialect: 1}
}

// Kind returns the query kind driving strategy selection.
func (p *Plan) Kind() Kind { return p.kind }

// OrParts returns the disjunction of conjunctions of clause entries.
func (p *Plan) OrParts() [][]ClauseEntry { return p.orParts }

// HasNullCheck reports whether any sentinel clause is present; it gates the
// existence-filter aggregation strategy.
func (p *Plan) HasNullCheck() bool { return p.hasNullCheck }

// NullChecks returns the sentinel clauses in term order.
func (p *Plan) NullChecks() []NullCheck { return p.nullChecks }

// Template returns the raw query template, if the plan was built from one.
func (p *Plan) Template() string { return p.template }

// ParamNames returns the fallback ordered names for template placeholders.
func (p *Plan) ParamNames() []string { return p.paramNames }

// ReturnFields returns the statically configured projection field list.
func (p *Plan) ReturnFields() []string { return p.returnFields }

// StaticOffset returns the plan offset, ok reporting whether one was set.
func (p *Plan) StaticOffset() (int, bool) { return p.offset, p.offset >= 0 }

// StaticLimit returns the plan limit, ok reporting whether one was set.
func (p *Plan) StaticLimit() (int, bool) { return p.limit, p.limit >= 0 }

// SortBy returns the static sort property, ok reporting whether one was set.
func (p *Plan) SortBy() (string, bool) { return p.sortBy, p.sortBy != "" }

// SortAscending reports the static sort direction.
func (p *Plan) SortAscending() bool { return p.sortAscending }

// Dialect is the query dialect version sent with every backend call.
func (p *Plan) Dialect() int { return p.dialect }

// TagField is the target field of a TAG_VALUES plan.
func (p *Plan) TagField() string { return p.tagField }

// Agg returns the aggregation specification of an AGGREGATE plan.
func (p *Plan) Agg() *Aggregation { return p.agg }

// BuildOption configures plan construction.
type BuildOption func(*buildConfig)

type buildConfig struct {
	logger  Logger
	dialect int
}

// WithLogger sets the logger used to report dropped terms during plan
// construction.
func WithLogger(l Logger) BuildOption {
	return func(c *buildConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDialect sets the query dialect version carried by the plan.
func WithDialect(v int) BuildOption {
	return func(c *buildConfig) {
		if v > 0 {
			c.dialect = v
		}
	}
}

var deleteVerb = regexp.MustCompile(`^(?:remove|delete)`)

const (
	tagValuesPrefix    = "getAll"
	autocompletePrefix = "autoComplete"
)

// PlanFromMethod builds a plan from a method name and its pre-tokenized
// expression tree. The method name selects the query kind: remove*/delete*
// become DELETE plans, "search" a match-all SEARCH, getAll<Field> a
// TAG_VALUES lookup and autoComplete* an AUTOCOMPLETE delegation; everything
// else is a SEARCH over the expression tree.
//
// Terms whose property cannot be resolved against the schema are dropped
// and logged rather than failing the plan; the query then matches more
// broadly than written.
func PlanFromMethod(methodName string, tree Tree, sch *schema.Schema, opts ...BuildOption) (*Plan, error) {
	cfg := buildConfig{logger: nopLogger{}, dialect: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch {
	case strings.EqualFold(methodName, "search"):
		p := newPlan(KindSearch)
		p.dialect = cfg.dialect
		all, _ := Lookup(schema.Text, OpAll)
		p.orParts = [][]ClauseEntry{{{Field: "__ALL__", Clause: all}}}
		return p, nil
	case strings.HasPrefix(methodName, tagValuesPrefix) && len(methodName) > len(tagValuesPrefix):
		p := newPlan(KindTagValues)
		p.dialect = cfg.dialect
		p.tagField = lowerFirst(methodName[len(tagValuesPrefix):])
		return p, nil
	case strings.HasPrefix(methodName, autocompletePrefix):
		p := newPlan(KindAutocomplete)
		p.dialect = cfg.dialect
		return p, nil
	}

	kind := KindSearch
	if deleteVerb.MatchString(methodName) {
		kind = KindDelete
	}
	p := newPlan(kind)
	p.dialect = cfg.dialect

	for _, conjunction := range tree.Or {
		part := make([]ClauseEntry, 0, len(conjunction))
		for _, cond := range conjunction {
			entry, nc, ok := buildEntry(cond, sch, cfg.logger)
			if !ok {
				continue
			}
			part = append(part, entry)
			if nc != nil {
				p.nullChecks = append(p.nullChecks, *nc)
				p.hasNullCheck = true
			}
		}
		p.orParts = append(p.orParts, part)
	}

	if len(tree.Sort) > 0 {
		p.sortBy = tree.Sort[0].Property
		p.sortAscending = tree.Sort[0].Ascending
	}
	return p, nil
}

func buildEntry(cond Condition, sch *schema.Schema, logger Logger) (ClauseEntry, *NullCheck, bool) {
	if cond.Op == OpIsNull || cond.Op == OpIsNotNull {
		field := sch.Alias(cond.Property)
		clause := IsNullClause
		if cond.Op == OpIsNotNull {
			clause = IsNotNullClause
		}
		nc := &NullCheck{
			Field:        field,
			NotNull:      cond.Op == OpIsNotNull,
			IndexMissing: sch.HasIndexMissing(cond.Property),
		}
		return ClauseEntry{Field: field, Clause: clause}, nc, true
	}

	binding, ok := sch.Resolve(cond.Property)
	if !ok {
		logger.Debugf("searchquery: no indexed field for property %q, dropping term", cond.Property)
		return ClauseEntry{}, nil, false
	}

	op := cond.Op
	if binding.IsCollection {
		// Default collection comparison is any-element-matches; the
		// all-match modifier selects the containment-all variants.
		switch op {
		case OpContaining, OpEquals:
			op = OpIn
		}
	} else if op == OpContainingAll {
		op = OpContaining
	}

	clause, ok := Lookup(binding.Type, op)
	if !ok {
		logger.Debugf("searchquery: no %s clause for %s field %q, dropping term", op, binding.Type, cond.Property)
		return ClauseEntry{}, nil, false
	}
	return ClauseEntry{Field: binding.Key, Clause: clause}, nil, true
}

// TemplateOption configures a template-based plan.
type TemplateOption func(*Plan)

// ReturnFields sets the static projection field list.
func ReturnFields(fields ...string) TemplateOption {
	return func(p *Plan) { p.returnFields = fields }
}

// StaticPaging sets the plan's offset and limit defaults.
func StaticPaging(offset, limit int) TemplateOption {
	return func(p *Plan) {
		p.offset = offset
		p.limit = limit
	}
}

// StaticSort sets the plan's sort property and direction.
func StaticSort(property string, ascending bool) TemplateOption {
	return func(p *Plan) {
		p.sortBy = property
		p.sortAscending = ascending
	}
}

// ParamNames sets the ordered fallback names matched against $placeholders.
func ParamNames(names ...string) TemplateOption {
	return func(p *Plan) { p.paramNames = names }
}

// UseDialect overrides the query dialect version.
func UseDialect(v int) TemplateOption {
	return func(p *Plan) {
		if v > 0 {
			p.dialect = v
		}
	}
}

// AsDelete turns the template plan into a delete-by-query plan.
func AsDelete() TemplateOption {
	return func(p *Plan) { p.kind = KindDelete }
}

// PlanFromTemplate builds a SEARCH plan around an explicit query template
// with $name placeholders.
func PlanFromTemplate(template string, opts ...TemplateOption) *Plan {
	p := newPlan(KindSearch)
	p.template = template
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlanForTagValues builds a distinct-values plan for a single tag field.
func PlanForTagValues(field string) *Plan {
	p := newPlan(KindTagValues)
	p.tagField = field
	return p
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

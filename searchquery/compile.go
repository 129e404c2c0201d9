package searchquery

import (
	"fmt"
	"strings"
)

// Compile renders the plan into the backend's textual query syntax, binding
// the given parameter values positionally. When excludeNullClauses is true
// (the primary search path) sentinel clauses are skipped entirely; the
// existence-filter path renders them as aggregation filter predicates
// instead. An empty result compiles to the match-everything token.
func Compile(p *Plan, params []any, excludeNullClauses bool) (string, error) {
	var compiled string
	if len(p.orParts) > 0 {
		s, err := compileOrParts(p, params, excludeNullClauses)
		if err != nil {
			return "", err
		}
		compiled = s
	} else {
		compiled = substituteTemplate(p.template, p.paramNames, params)
	}

	if strings.TrimSpace(compiled) == "" {
		return "*", nil
	}
	return compiled, nil
}

func compileOrParts(p *Plan, params []any, excludeNullClauses bool) (string, error) {
	multiple := len(p.orParts) > 1
	remaining := params

	groups := make([]string, 0, len(p.orParts))
	for _, part := range p.orParts {
		rendered := make([]string, 0, len(part))
		for _, entry := range part {
			if excludeNullClauses && entry.Clause.IsSentinel() {
				continue
			}
			arity := entry.Clause.Arity()
			if len(remaining) < arity {
				return "", fmt.Errorf("searchquery: %s clause on %q needs %d parameters, %d remaining",
					entry.Clause.Operator(), entry.Field, arity, len(remaining))
			}
			args := remaining[:arity]
			remaining = remaining[arity:]
			rendered = append(rendered, entry.Clause.Render(Escape(entry.Field), args))
		}
		group := strings.Join(rendered, " ")
		if multiple {
			group = "(" + group + ")"
		}
		groups = append(groups, group)
	}
	return strings.Join(groups, " | "), nil
}

// substituteTemplate performs a single pass over the template, replacing
// each $name placeholder whose identifier exactly matches a parameter name.
// The identifier run is maximal, so $name never partially matches a longer
// placeholder sharing the same prefix. Collection parameters are flattened
// into an OR-joined value list before substitution.
func substituteTemplate(template string, names []string, params []any) string {
	if template == "" || len(names) == 0 {
		return template
	}

	values := make(map[string]string, len(names))
	for i, name := range names {
		if name == "" || i >= len(params) {
			continue
		}
		values[name] = templateValue(params[i])
	}

	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); {
		if template[i] != '$' {
			b.WriteByte(template[i])
			i++
			continue
		}
		j := i + 1
		for j < len(template) && isIdentChar(template[j]) {
			j++
		}
		name := template[i+1 : j]
		if v, ok := values[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(template[i:j])
		}
		i = j
	}
	return b.String()
}

func templateValue(param any) string {
	vs := collectionValues(param)
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, " | ")
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

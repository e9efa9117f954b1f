package transformer

import "samfdw/internal/cell"

// Plan is a per-position rule list compiled once for a requested field list,
// so the per-row loop does no map lookups.
type Plan struct {
	fields []string
	rules  []Rule
}

// Compile builds a Plan for fields in order.
func Compile(fields []string) Plan {
	p := Plan{
		fields: append([]string(nil), fields...),
		rules:  make([]Rule, len(fields)),
	}
	for i, f := range fields {
		p.rules[i] = RuleFor(f)
	}
	return p
}

// Fields returns the field list the plan was compiled for.
func (p Plan) Fields() []string { return p.fields }

// Len reports the number of positions.
func (p Plan) Len() int { return len(p.rules) }

// Apply coerces raw for position i.
func (p Plan) Apply(i int, raw string) cell.Cell {
	return apply(p.rules[i], raw)
}

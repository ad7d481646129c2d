package tenancy

import (
	"fmt"
	"strings"
)

// FieldBuilding is the column every tenant-partitioned record carries.
const FieldBuilding = "building_id"

// Cond is one equality predicate.
type Cond struct {
	Field string
	Value any
}

// Filter is an ordered set of equality predicates over storage columns,
// a value type the storage layer can render to a parameterized WHERE
// fragment and tests can inspect. The zero value is an empty filter; With
// returns a new filter, leaving the receiver untouched.
type Filter struct {
	conds []Cond
}

// NewFilter builds a filter from the given predicates.
func NewFilter(conds ...Cond) Filter {
	f := Filter{}
	for _, c := range conds {
		f = f.With(c.Field, c.Value)
	}
	return f
}

// With returns a copy of the filter with field = value set, replacing any
// existing predicate on the same field (last write wins, as in a map merge).
func (f Filter) With(field string, value any) Filter {
	out := Filter{conds: make([]Cond, len(f.conds), len(f.conds)+1)}
	copy(out.conds, f.conds)
	for i := range out.conds {
		if out.conds[i].Field == field {
			out.conds[i].Value = value
			return out
		}
	}
	out.conds = append(out.conds, Cond{Field: field, Value: value})
	return out
}

// Get returns the value set for a field.
func (f Filter) Get(field string) (any, bool) {
	for _, c := range f.conds {
		if c.Field == field {
			return c.Value, true
		}
	}
	return nil, false
}

// Len returns the number of predicates.
func (f Filter) Len() int { return len(f.conds) }

// Conditions returns a copy of the predicates in insertion order.
func (f Filter) Conditions() []Cond {
	out := make([]Cond, len(f.conds))
	copy(out, f.conds)
	return out
}

// SQL renders the filter as "field = $n AND ..." with placeholders starting
// at argStart, plus the matching argument slice. An empty filter renders to
// an empty string.
func (f Filter) SQL(argStart int) (string, []any) {
	if len(f.conds) == 0 {
		return "", nil
	}
	var b strings.Builder
	args := make([]any, 0, len(f.conds))
	for i, c := range f.conds {
		if i > 0 {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "%s = $%d", c.Field, argStart+i)
		args = append(args, c.Value)
	}
	return b.String(), args
}

package odata

import "strings"

// Filter is an OData $filter expression.
type Filter interface {
	String() string
}

type eqFilter struct {
	field string
	value string
}

func (f eqFilter) String() string {
	return f.field + " eq " + quote(f.value)
}

type joinFilter struct {
	op    string
	terms []Filter
}

func (f joinFilter) String() string {
	parts := make([]string, 0, len(f.terms))
	for _, t := range f.terms {
		if t == nil {
			continue
		}
		s := t.String()
		if s == "" {
			continue
		}
		if j, ok := t.(joinFilter); ok && j.op != f.op && len(j.terms) > 1 {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "+f.op+" ")
}

// Eq matches a string field against a literal.
func Eq(field, value string) Filter {
	return eqFilter{field: field, value: value}
}

// And joins terms with "and".
func And(terms ...Filter) Filter {
	return joinFilter{op: "and", terms: terms}
}

// Or joins terms with "or".
func Or(terms ...Filter) Filter {
	return joinFilter{op: "or", terms: terms}
}

// In matches field against any of values as a disjunction of equalities.
func In(field string, values ...string) Filter {
	terms := make([]Filter, 0, len(values))
	for _, v := range values {
		terms = append(terms, Eq(field, v))
	}
	return Or(terms...)
}

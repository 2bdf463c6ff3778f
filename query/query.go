// Package query represents and evaluates document predicates and dimension
// selectors.
//
// Predicates form an expression tree of field comparisons combined with
// And/Or/Not; an opaque function predicate covers anything the tree cannot
// express. Every predicate implements the single Predicate interface, so the
// evaluator never special-cases caller-supplied code.
package query

import "strings"

// Predicate tests a materialized document.
type Predicate interface {
	Evaluate(doc any) bool
}

// Operator identifies a field comparison.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreaterThan
	OpGreaterEqual
	OpLessThan
	OpLessEqual
)

func (op Operator) String() string {
	switch op {
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpGreaterThan:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpLessEqual:
		return "<="
	default:
		return "op?"
	}
}

// Comparison is a single field-against-literal predicate leaf.
type Comparison struct {
	Field    string
	Operator Operator
	Value    any
}

// Evaluate implements Predicate. Documents missing the field never match,
// not even under OpNotEqual: an absent field has no value to compare.
func (c *Comparison) Evaluate(doc any) bool {
	v, ok := extractField(doc, c.Field)
	if !ok {
		return false
	}
	want := normalize(c.Value)
	switch c.Operator {
	case OpEqual:
		return compareEqual(v, want)
	case OpNotEqual:
		return !compareEqual(v, want)
	case OpGreaterThan:
		return compareLess(want, v)
	case OpGreaterEqual:
		return compareLess(want, v) || compareEqual(v, want)
	case OpLessThan:
		return compareLess(v, want)
	case OpLessEqual:
		return compareLess(v, want) || compareEqual(v, want)
	default:
		return false
	}
}

// Eq matches documents whose field equals value.
func Eq(field string, value any) Predicate {
	return &Comparison{Field: field, Operator: OpEqual, Value: value}
}

// Ne matches documents whose field is present and differs from value.
func Ne(field string, value any) Predicate {
	return &Comparison{Field: field, Operator: OpNotEqual, Value: value}
}

// Gt matches documents whose field is ordered after value.
func Gt(field string, value any) Predicate {
	return &Comparison{Field: field, Operator: OpGreaterThan, Value: value}
}

// Gte matches documents whose field is ordered at or after value.
func Gte(field string, value any) Predicate {
	return &Comparison{Field: field, Operator: OpGreaterEqual, Value: value}
}

// Lt matches documents whose field is ordered before value.
func Lt(field string, value any) Predicate {
	return &Comparison{Field: field, Operator: OpLessThan, Value: value}
}

// Lte matches documents whose field is ordered at or before value.
func Lte(field string, value any) Predicate {
	return &Comparison{Field: field, Operator: OpLessEqual, Value: value}
}

type andPredicate struct{ children []Predicate }

func (p *andPredicate) Evaluate(doc any) bool {
	for _, c := range p.children {
		if !c.Evaluate(doc) {
			return false
		}
	}
	return true
}

// And matches documents satisfying every child predicate.
// And() with no children matches everything.
func And(children ...Predicate) Predicate {
	return &andPredicate{children: children}
}

type orPredicate struct{ children []Predicate }

func (p *orPredicate) Evaluate(doc any) bool {
	for _, c := range p.children {
		if c.Evaluate(doc) {
			return true
		}
	}
	return false
}

// Or matches documents satisfying at least one child predicate.
func Or(children ...Predicate) Predicate {
	return &orPredicate{children: children}
}

type notPredicate struct{ child Predicate }

func (p *notPredicate) Evaluate(doc any) bool { return !p.child.Evaluate(doc) }

// Not inverts a predicate.
func Not(child Predicate) Predicate {
	return &notPredicate{child: child}
}

// Func wraps an opaque caller-supplied predicate over a whole document, for
// expressiveness the comparison tree cannot cover. The function must be free
// of side effects on the document; it receives the engine's materialized
// value.
type Func func(doc any) bool

// Evaluate implements Predicate.
func (f Func) Evaluate(doc any) bool { return f(doc) }

// All matches every document. It is the nil-predicate stand-in used when a
// find call has no where clause.
func All() Predicate { return Func(func(any) bool { return true }) }

// extractField resolves a dot-separated path inside a document.
func extractField(doc any, path string) (any, bool) {
	cur := doc
	for path != "" {
		var seg string
		if i := strings.IndexByte(path, '.'); i >= 0 {
			seg, path = path[:i], path[i+1:]
		} else {
			seg, path = path, ""
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

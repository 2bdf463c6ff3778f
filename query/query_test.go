package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func doc(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func TestComparisons(t *testing.T) {
	d := doc("status", "open", "count", float64(3), "done", true, "note", nil)

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"eq string hit", Eq("status", "open"), true},
		{"eq string miss", Eq("status", "closed"), false},
		{"eq number hit", Eq("count", float64(3)), true},
		{"eq untyped int literal", Eq("count", 3), true},
		{"eq bool", Eq("done", true), true},
		{"eq null", Eq("note", nil), true},
		{"ne hit", Ne("status", "closed"), true},
		{"ne miss", Ne("status", "open"), false},
		{"ne on absent field", Ne("missing", "x"), false},
		{"gt hit", Gt("count", 2), true},
		{"gt equal", Gt("count", 3), false},
		{"gte equal", Gte("count", 3), true},
		{"lt hit", Lt("count", 4), true},
		{"lte equal", Lte("count", 3), true},
		{"gt string", Gt("status", "aaa"), true},
		{"lt string", Lt("status", "zzz"), true},
		{"ordering across kinds never matches", Gt("status", 5), false},
		{"eq across kinds never matches", Eq("count", "3"), false},
		{"absent field never matches", Eq("missing", "x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Evaluate(d))
		})
	}
}

func TestNestedFieldComparison(t *testing.T) {
	d := doc("meta", doc("region", "eu", "prio", float64(2)))

	assert.True(t, Eq("meta.region", "eu").Evaluate(d))
	assert.True(t, Gte("meta.prio", 2).Evaluate(d))
	assert.False(t, Eq("meta.region.deeper", "eu").Evaluate(d))
}

func TestStructuralEquality(t *testing.T) {
	d := doc("tags", []any{"a", "b"}, "cfg", doc("on", true))

	assert.True(t, Eq("tags", []any{"a", "b"}).Evaluate(d))
	assert.False(t, Eq("tags", []any{"b", "a"}).Evaluate(d))
	assert.True(t, Eq("cfg", map[string]any{"on": true}).Evaluate(d))
	assert.False(t, Eq("cfg", map[string]any{"on": false}).Evaluate(d))
}

func TestCombinators(t *testing.T) {
	d := doc("status", "open", "count", float64(3))

	assert.True(t, And(Eq("status", "open"), Gt("count", 1)).Evaluate(d))
	assert.False(t, And(Eq("status", "open"), Gt("count", 10)).Evaluate(d))
	assert.True(t, And().Evaluate(d))

	assert.True(t, Or(Eq("status", "closed"), Gt("count", 1)).Evaluate(d))
	assert.False(t, Or(Eq("status", "closed"), Gt("count", 10)).Evaluate(d))
	assert.False(t, Or().Evaluate(d))

	assert.True(t, Not(Eq("status", "closed")).Evaluate(d))
	assert.False(t, Not(Eq("status", "open")).Evaluate(d))

	nested := Or(
		And(Eq("status", "open"), Lt("count", 2)),
		And(Eq("status", "open"), Gte("count", 3)),
	)
	assert.True(t, nested.Evaluate(d))
}

func TestFuncPredicate(t *testing.T) {
	d := doc("name", "alpha")

	p := Func(func(doc any) bool {
		m, ok := doc.(map[string]any)
		if !ok {
			return false
		}
		s, _ := m["name"].(string)
		return strings.HasPrefix(s, "al")
	})
	assert.True(t, p.Evaluate(d))
	assert.False(t, p.Evaluate(doc("name", "beta")))

	assert.True(t, All().Evaluate(d))
	assert.True(t, All().Evaluate("scalar"))
}

func TestSelectors(t *testing.T) {
	assert.True(t, Any().Match("anything"))
	assert.True(t, Any().Match(""))

	assert.True(t, Exact("orders").Match("orders"))
	assert.False(t, Exact("orders").Match("invoices"))

	in := OneOf("a", "b")
	assert.True(t, in.Match("a"))
	assert.True(t, in.Match("b"))
	assert.False(t, in.Match("c"))
	assert.False(t, OneOf().Match("a"))

	pred := ComponentFunc(func(c string) bool { return len(c) > 2 })
	assert.True(t, pred.Match("abc"))
	assert.False(t, pred.Match("ab"))
}

func TestOperatorString(t *testing.T) {
	assert.Equal(t, "==", OpEqual.String())
	assert.Equal(t, "!=", OpNotEqual.String())
	assert.Equal(t, ">", OpGreaterThan.String())
	assert.Equal(t, ">=", OpGreaterEqual.String())
	assert.Equal(t, "<", OpLessThan.String())
	assert.Equal(t, "<=", OpLessEqual.String())
}

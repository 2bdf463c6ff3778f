package query

// Selector matches one coordinate component of a slice request. A slice
// supplies exactly one selector per database dimension.
type Selector interface {
	Match(component string) bool
}

type anySelector struct{}

func (anySelector) Match(string) bool { return true }

// Any is the wildcard selector: it matches every component value that is
// actually present in the data, never enumerating beyond what exists.
func Any() Selector { return anySelector{} }

type exactSelector struct{ value string }

func (s exactSelector) Match(component string) bool { return component == s.value }

// Exact matches only the given component value.
func Exact(value string) Selector { return exactSelector{value: value} }

type oneOfSelector struct{ values map[string]struct{} }

func (s oneOfSelector) Match(component string) bool {
	_, ok := s.values[component]
	return ok
}

// OneOf matches any of the given component values.
func OneOf(values ...string) Selector {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return oneOfSelector{values: set}
}

// ComponentFunc is an opaque caller-supplied selector over a single
// component string.
type ComponentFunc func(component string) bool

// Match implements Selector.
func (f ComponentFunc) Match(component string) bool { return f(component) }

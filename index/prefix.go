package index

import (
	"iter"
	"strings"

	"github.com/tidwall/btree"
)

// Prefix is the queryable form of the sorted encoded-key listing. It backs
// prefix range scans: O(log n) to locate the first matching key, then linear
// iteration within the matching range.
type Prefix struct {
	tree *btree.BTreeG[string]
}

// NewPrefix builds a scan structure from a set of encoded keys.
// The input need not be sorted.
func NewPrefix(keys []string) *Prefix {
	tree := btree.NewBTreeG[string](func(a, b string) bool { return a < b })
	for _, k := range keys {
		tree.Set(k)
	}
	return &Prefix{tree: tree}
}

// Len returns the number of indexed keys.
func (p *Prefix) Len() int { return p.tree.Len() }

// Contains reports whether the exact encoded key is present.
func (p *Prefix) Contains(key string) bool {
	_, ok := p.tree.Get(key)
	return ok
}

// Keys returns all indexed keys in sorted order.
func (p *Prefix) Keys() []string {
	out := make([]string, 0, p.tree.Len())
	p.tree.Scan(func(k string) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Scan yields, in sorted order, every key that starts with prefix.
// The empty prefix yields all keys. The sequence is restartable: ranging
// over it again starts a fresh scan.
func (p *Prefix) Scan(prefix string) iter.Seq[string] {
	return func(yield func(string) bool) {
		p.tree.Ascend(prefix, func(k string) bool {
			if !strings.HasPrefix(k, prefix) {
				return false
			}
			return yield(k)
		})
	}
}

// Package cooccur counts how often products appear together in the same
// workspace and reduces those counts to each product's top partners.
package cooccur

import (
	"sort"

	"github.com/otherjamesbrown/deskspin/pkg/catalog"
)

// Aggregator accumulates symmetric co-occurrence counts for one pass. The
// adjacency lives only as long as the Aggregator; call Reset to reuse it.
type Aggregator struct {
	order  map[string]int            // key -> first-seen position
	labels map[string]string         // key -> display label
	edges  map[string]map[string]int // key -> partner key -> count
}

// New returns an empty Aggregator.
func New() *Aggregator {
	a := &Aggregator{}
	a.Reset()
	return a
}

// Reset drops all accumulated state.
func (a *Aggregator) Reset() {
	a.order = make(map[string]int)
	a.labels = make(map[string]string)
	a.edges = make(map[string]map[string]int)
}

func (a *Aggregator) see(key string) {
	if _, ok := a.order[key]; !ok {
		a.order[key] = len(a.order)
	}
}

// Label sets the display name used when key is reported as a partner.
// Keys without a label are reported as themselves.
func (a *Aggregator) Label(key, label string) {
	a.see(key)
	a.labels[key] = label
}

// Observe records one workspace's product keys. Each unordered pair of
// distinct keys increments both directions once; repeated keys collapse.
func (a *Aggregator) Observe(keys []string) {
	distinct := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup || k == "" {
			continue
		}
		seen[k] = struct{}{}
		distinct = append(distinct, k)
		a.see(k)
	}

	for i, x := range distinct {
		for _, y := range distinct[i+1:] {
			a.add(x, y)
			a.add(y, x)
		}
	}
}

func (a *Aggregator) add(from, to string) {
	m, ok := a.edges[from]
	if !ok {
		m = make(map[string]int)
		a.edges[from] = m
	}
	m[to]++
}

// Count returns how many workspaces contained both x and y.
func (a *Aggregator) Count(x, y string) int {
	return a.edges[x][y]
}

// Top returns key's n most frequent partners, count descending, ties broken by
// the order in which partners were first seen.
func (a *Aggregator) Top(key string, n int) []catalog.Partner {
	partners := a.edges[key]
	if len(partners) == 0 || n <= 0 {
		return []catalog.Partner{}
	}

	keys := make([]string, 0, len(partners))
	for k := range partners {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := partners[keys[i]], partners[keys[j]]
		if ci != cj {
			return ci > cj
		}
		return a.order[keys[i]] < a.order[keys[j]]
	})

	if len(keys) > n {
		keys = keys[:n]
	}
	out := make([]catalog.Partner, len(keys))
	for i, k := range keys {
		out[i] = catalog.Partner{Product: a.label(k), Count: partners[k]}
	}
	return out
}

func (a *Aggregator) label(key string) string {
	if l, ok := a.labels[key]; ok {
		return l
	}
	return key
}

// Apply replaces each product's OftenWith with its top catalog.MaxOftenWith
// partners, using keyFn to find the product's key.
func (a *Aggregator) Apply(products []*catalog.Product, keyFn func(*catalog.Product) string) {
	for _, p := range products {
		p.OftenWith = a.Top(keyFn(p), catalog.MaxOftenWith)
	}
}

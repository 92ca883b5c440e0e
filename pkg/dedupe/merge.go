// Package dedupe merges raw product mentions into canonical catalog products.
package dedupe

import (
	"sort"

	"github.com/otherjamesbrown/deskspin/pkg/canonical"
	"github.com/otherjamesbrown/deskspin/pkg/catalog"
)

// Stats summarises one merge pass.
type Stats struct {
	Input   int `json:"input"`
	Skipped int `json:"skipped"`
	Merged  int `json:"merged"`
	Unique  int `json:"unique"`
}

// Result is the output of Merge.
type Result struct {
	Products []*catalog.Product
	// Keys holds the grouping key of each product, index-aligned with Products.
	Keys  []string
	Stats Stats
}

type group struct {
	product    *catalog.Product
	key        string
	workspaces map[string]struct{}
	partners   map[string]int // label -> index into product.OftenWith
}

// Merge groups mentions by canonical key. The first mention under a key seeds
// the product; later ones add their count, union their workspaces and sum
// partner counts by label. Mentions whose brand resolves to canonical.BrandSkip
// are dropped. Products come back sorted by count descending, ties in
// first-seen order, each with at most catalog.MaxOftenWith partners.
func Merge(mentions []catalog.Mention, c *canonical.Canonicalizer) *Result {
	res := &Result{Stats: Stats{Input: len(mentions)}}

	groups := make(map[string]*group)
	var order []*group

	for _, m := range mentions {
		brand := c.FixBrand(m.Brand, m.Name)
		if canonical.IsSkip(brand) {
			res.Stats.Skipped++
			continue
		}

		name := c.NormalizeName(m.Name)
		key := canonical.CanonicalKey(name)

		g, ok := groups[key]
		if !ok {
			g = &group{
				key: key,
				product: &catalog.Product{
					Name:        name,
					Brand:       brand,
					Model:       m.Model,
					Description: m.Description,
					URL:         m.URL,
					Category:    m.Category,
					Workspaces:  []string{},
					OftenWith:   []catalog.Partner{},
				},
				workspaces: make(map[string]struct{}),
				partners:   make(map[string]int),
			}
			groups[key] = g
			order = append(order, g)
		} else {
			res.Stats.Merged++
		}

		g.product.Count += m.EffectiveCount()
		g.addWorkspaces(m.WorkspaceIDs())
		g.addPartners(m.OftenWith)
	}

	for _, g := range order {
		sortPartners(g.product.OftenWith)
		if len(g.product.OftenWith) > catalog.MaxOftenWith {
			g.product.OftenWith = g.product.OftenWith[:catalog.MaxOftenWith]
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].product.Count > order[j].product.Count
	})

	res.Products = make([]*catalog.Product, len(order))
	res.Keys = make([]string, len(order))
	for i, g := range order {
		res.Products[i] = g.product
		res.Keys[i] = g.key
	}
	res.Stats.Unique = len(order)
	return res
}

func (g *group) addWorkspaces(ids []string) {
	for _, id := range ids {
		if _, ok := g.workspaces[id]; ok {
			continue
		}
		g.workspaces[id] = struct{}{}
		g.product.Workspaces = append(g.product.Workspaces, id)
	}
}

func (g *group) addPartners(partners []catalog.Partner) {
	for _, p := range partners {
		if i, ok := g.partners[p.Product]; ok {
			g.product.OftenWith[i].Count += p.Count
			continue
		}
		g.partners[p.Product] = len(g.product.OftenWith)
		g.product.OftenWith = append(g.product.OftenWith, p)
	}
}

// sortPartners orders partners by count descending, keeping insertion order on ties.
func sortPartners(p []catalog.Partner) {
	sort.SliceStable(p, func(i, j int) bool { return p[i].Count > p[j].Count })
}

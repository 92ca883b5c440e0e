package pipeline

import (
	"sort"

	"github.com/otherjamesbrown/deskspin/pkg/canonical"
	"github.com/otherjamesbrown/deskspin/pkg/catalog"
)

// maxUnknownListed bounds Summary.Unknown.
const maxUnknownListed = 10

// BrandCount is one row of the brand distribution.
type BrandCount struct {
	Brand    string `json:"brand"`
	Products int    `json:"products"`
}

// CategoryCount is one row of a per-category tally.
type CategoryCount struct {
	Category string `json:"category"`
	Products int    `json:"products"`
}

// Summary reports what a run produced.
type Summary struct {
	// Top holds the most popular products.
	Top []*catalog.Product `json:"top"`

	// Brands counts products per brand, most common first.
	Brands []BrandCount `json:"brands"`

	// Unknown lists names still without a brand; UnknownTotal is the full count.
	Unknown      []string `json:"unknown"`
	UnknownTotal int      `json:"unknown_total"`

	// Categories tallies the whole catalog; Imported tallies the import subset.
	Categories []CategoryCount `json:"categories"`
	Imported   []CategoryCount `json:"imported"`
}

// Summarize builds a Summary. products must already be sorted by count.
func Summarize(products, imported []*catalog.Product, topN int) Summary {
	s := Summary{
		Top:        products[:min(topN, len(products))],
		Brands:     brandDistribution(products, topN),
		Categories: categoryCounts(products),
		Imported:   categoryCounts(imported),
		Unknown:    []string{},
	}

	for _, p := range products {
		if p.Brand != canonical.BrandUnknown {
			continue
		}
		s.UnknownTotal++
		if len(s.Unknown) < maxUnknownListed {
			s.Unknown = append(s.Unknown, p.Name)
		}
	}
	return s
}

func brandDistribution(products []*catalog.Product, limit int) []BrandCount {
	index := make(map[string]int)
	var out []BrandCount
	for _, p := range products {
		i, ok := index[p.Brand]
		if !ok {
			i = len(out)
			index[p.Brand] = i
			out = append(out, BrandCount{Brand: p.Brand})
		}
		out[i].Products++
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Products > out[j].Products })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// categoryCounts tallies products per category, largest first, ties by name.
func categoryCounts(products []*catalog.Product) []CategoryCount {
	counts := catalog.CountByCategory(products)
	out := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CategoryCount{Category: c, Products: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Products != out[j].Products {
			return out[i].Products > out[j].Products
		}
		return out[i].Category < out[j].Category
	})
	return out
}

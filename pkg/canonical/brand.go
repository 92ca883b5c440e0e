package canonical

import (
	"strings"
	"unicode/utf8"
)

// DetectBrand extracts a brand and model from a product name that came
// without one. The first known brand contained in the name wins and the model
// is the text after it. Failing that, a capitalised first word of a multi-word
// name is taken as the brand. Otherwise the brand is BrandUnknown and the model
// is the whole name.
func (c *Canonicalizer) DetectBrand(productName string) (brand, model string) {
	nameLower := strings.ToLower(productName)

	for _, known := range c.knownBrands {
		knownLower := strings.ToLower(known)
		idx := strings.Index(nameLower, knownLower)
		if idx < 0 {
			continue
		}
		model = productName
		if len(nameLower) == len(productName) {
			model = productName[idx+len(knownLower):]
		}
		model = strings.TrimSpace(model)
		model = strings.TrimSpace(strings.TrimLeft(model, "-–"))
		if model == "" {
			model = productName
		}
		return known, model
	}

	words := strings.Split(productName, " ")
	if len(words) > 1 {
		first, _ := utf8.DecodeRuneInString(words[0])
		if first >= 'A' && first <= 'Z' {
			return words[0], strings.Join(words[1:], " ")
		}
	}

	return BrandUnknown, productName
}

// Package canonical turns raw product mentions into canonical names, brands and
// grouping keys. All rule tables are ordered and scanned linearly; the first
// matching rule wins.
package canonical

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// BrandUnknown is the brand assigned when detection found nothing.
	BrandUnknown = "Unknown"

	// BrandSkip marks a mention that is not a desk product and must be dropped.
	BrandSkip = "Skip"
)

var (
	dashRun   = regexp.MustCompile(`\s*[-‐‑–—]\s*`)
	quoteFold = strings.NewReplacer("“", `"`, "”", `"`, "„", `"`, "‘", "'", "’", "'")
)

// Clean applies Unicode compatibility folding, straightens curly quotes, folds
// every dash variant to " - ", collapses whitespace and trims.
func Clean(raw string) string {
	s := norm.NFKC.String(raw)
	s = quoteFold.Replace(s)
	s = dashRun.ReplaceAllString(s, " - ")
	return strings.Join(strings.Fields(s), " ")
}

type nameRule struct {
	NameRule
	match          string // cleaned, lowercased pattern
	canonicalMatch string // cleaned, lowercased canonical name
}

// Canonicalizer holds immutable copies of the normalization tables.
type Canonicalizer struct {
	nameRules      []nameRule
	brandOverrides []BrandRule
	brandAliases   []BrandAlias
	appleKeywords  []string
	skipKeywords   []string
	knownBrands    []string
	qualifiers     []string
	qualifier      *regexp.Regexp
}

// Option configures a Canonicalizer.
type Option func(*options)

type options struct {
	nameRules      []NameRule
	brandOverrides []BrandRule
	brandAliases   []BrandAlias
	appleKeywords  []string
	skipKeywords   []string
	knownBrands    []string
	qualifiers     []string
}

// WithNameRules replaces the name normalization table.
func WithNameRules(rules []NameRule) Option {
	return func(o *options) { o.nameRules = rules }
}

// WithBrandOverrides replaces the product-name brand overrides.
func WithBrandOverrides(rules []BrandRule) Option {
	return func(o *options) { o.brandOverrides = rules }
}

// WithBrandAliases replaces the brand alias table.
func WithBrandAliases(aliases []BrandAlias) Option {
	return func(o *options) { o.brandAliases = aliases }
}

// WithSkipKeywords replaces the skip list.
func WithSkipKeywords(keywords []string) Option {
	return func(o *options) { o.skipKeywords = keywords }
}

// WithKnownBrands replaces the brand detection list.
func WithKnownBrands(brands []string) Option {
	return func(o *options) { o.knownBrands = brands }
}

// New creates a Canonicalizer from the default tables, modified by opts.
// Tables are copied, so callers may reuse or mutate their slices afterwards.
func New(opts ...Option) *Canonicalizer {
	o := &options{
		nameRules:      DefaultNameRules(),
		brandOverrides: DefaultBrandOverrides(),
		brandAliases:   DefaultBrandAliases(),
		appleKeywords:  DefaultAppleKeywords(),
		skipKeywords:   DefaultSkipKeywords(),
		knownBrands:    DefaultKnownBrands(),
		qualifiers:     DefaultQualifiers(),
	}
	for _, opt := range opts {
		opt(o)
	}

	c := &Canonicalizer{
		brandOverrides: append([]BrandRule(nil), o.brandOverrides...),
		brandAliases:   append([]BrandAlias(nil), o.brandAliases...),
		appleKeywords:  append([]string(nil), o.appleKeywords...),
		skipKeywords:   append([]string(nil), o.skipKeywords...),
		knownBrands:    append([]string(nil), o.knownBrands...),
		qualifiers:     append([]string(nil), o.qualifiers...),
	}

	c.nameRules = make([]nameRule, 0, len(o.nameRules))
	for _, r := range o.nameRules {
		c.nameRules = append(c.nameRules, nameRule{
			NameRule:       r,
			match:          strings.ToLower(Clean(r.Pattern)),
			canonicalMatch: strings.ToLower(Clean(r.Canonical)),
		})
	}

	quoted := make([]string, len(c.qualifiers))
	for i, q := range c.qualifiers {
		quoted[i] = regexp.QuoteMeta(q)
	}
	c.qualifier = regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))

	return c
}

// NameRules returns a copy of the name table in precedence order.
func (c *Canonicalizer) NameRules() []NameRule {
	out := make([]NameRule, len(c.nameRules))
	for i, r := range c.nameRules {
		out[i] = r.NameRule
	}
	return out
}

// BrandOverrides returns a copy of the override table in precedence order.
func (c *Canonicalizer) BrandOverrides() []BrandRule {
	return append([]BrandRule(nil), c.brandOverrides...)
}

// NormalizeName maps a raw product name onto its canonical display name.
// Names that match no rule are returned cleaned. NormalizeName is idempotent.
func (c *Canonicalizer) NormalizeName(raw string) string {
	clean := Clean(raw)
	lower := strings.ToLower(clean)

	for _, r := range c.nameRules {
		if !strings.Contains(lower, r.match) {
			continue
		}

		// Strip the canonical name when the input already carries it, so a
		// second pass sees the same residual as the first.
		residual := removeFirst(clean, lower, r.canonicalMatch)
		if residual == clean {
			residual = removeFirst(clean, lower, r.match)
		}
		residual = strings.TrimLeft(strings.TrimSpace(residual), " -–")
		residual = strings.Join(strings.Fields(residual), " ")

		if residual != "" && c.qualifier.MatchString(residual) {
			return r.Canonical + " " + residual
		}
		return r.Canonical
	}

	return clean
}

// removeFirst removes the first occurrence of the lowercase needle from s,
// matching case-insensitively. lower must be strings.ToLower(s).
func removeFirst(s, lower, needle string) string {
	idx := strings.Index(lower, needle)
	if idx < 0 {
		return s
	}
	if len(lower) != len(s) {
		// Case folding changed byte widths; fall back to the lowercased text.
		return lower[:idx] + lower[idx+len(needle):]
	}
	return s[:idx] + s[idx+len(needle):]
}

// FixBrand corrects a detected brand using the product name. It consults, in
// order: product-name overrides, the brand alias table, then for Unknown
// brands the Apple keyword family and the skip list. It returns BrandSkip for
// mentions that are not desk products.
func (c *Canonicalizer) FixBrand(brand, productName string) string {
	nameLower := strings.ToLower(productName)

	for _, o := range c.brandOverrides {
		if strings.Contains(nameLower, o.Pattern) {
			return o.Brand
		}
	}

	for _, a := range c.brandAliases {
		if brand != a.Alias {
			continue
		}
		if a.Disambiguate != nil && !a.Disambiguate(nameLower) {
			return brand
		}
		return a.Brand
	}

	if brand == BrandUnknown {
		if containsAny(nameLower, c.appleKeywords) {
			return "Apple"
		}
		if containsAny(nameLower, c.skipKeywords) {
			return BrandSkip
		}
	}

	return brand
}

// IsSkip reports whether brand marks a mention for removal.
func IsSkip(brand string) bool {
	return brand == BrandSkip
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

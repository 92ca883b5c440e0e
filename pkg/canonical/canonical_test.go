package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "  Some   Random\tLamp  ", "Some Random Lamp"},
		{"curly quotes", "Desk “Pad” ‘mini’", `Desk "Pad" 'mini'`},
		{"hyphen", "ATH-M50x", "ATH - M50x"},
		{"en dash with spaces", "Desk  –  Walnut", "Desk - Walnut"},
		{"em dash", "Foo—Bar", "Foo - Bar"},
		{"full width folded", "ＭＸ Master", "MX Master"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Clean(got), "Clean must be idempotent")
		})
	}
}

func TestNormalizeName(t *testing.T) {
	c := New()

	tests := []struct {
		in   string
		want string
	}{
		{"MX Master 3S", "Logitech MX Master 3S"},
		{"mx master 3s mouse", "Logitech MX Master 3S"},
		{"Logitech MX Master 3", "Logitech MX Master 3"},
		{"MX Master", "Logitech MX Master"},
		{"Magic Keyboard with Touch ID", "Apple Magic Keyboard with Touch ID"},
		{"Apple Magic Keyboard with Touch ID and Numeric Keypad", "Apple Magic Keyboard with Touch ID and Numeric Keypad"},
		{"Magic Keyboard - Numeric", "Apple Magic Keyboard Numeric"},
		{"Magic Keyboard (Space Gray)", "Apple Magic Keyboard"},
		{"Apple Wireless Keyboard", "Apple Magic Keyboard"},
		{"Key Light Air", "Elgato Key Light"},
		{"Elgato Keylight", "Elgato Key Light"},
		{"ATH-M50x", "Audio-Technica ATH-M50x"},
		{"ath m50x headphones", "Audio-Technica ATH-M50x"},
		{"CalDigit TS3+", "CalDigit TS3 Plus"},
		{"Herman Miller Aeron Chair", "Herman Miller Aeron"},
		{"AirPods Pro 2", "Apple AirPods Pro"},
		{"Some   Random   Lamp", "Some Random Lamp"},
		{"Dell U2720Q—27\"", `Dell U2720Q - 27"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, c.NormalizeName(tt.in))
		})
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	c := New()

	inputs := []string{
		"MX Master 3S",
		"Magic Keyboard with Touch ID",
		"Magic Keyboard - Numeric Keypad",
		"Apple Magic Keyboard for Mac",
		"Key Light Air",
		"ATH-M50x",
		"ath m50x Touch ID",
		"CalDigit TS3+",
		"screen bar halo",
		"Twelve South Book Arc",
		"Random – Thing",
		"Desk “Pad”",
		"  lots   of   space ",
		"ＡｉｒＰｏｄｓ Max",
	}
	for _, r := range c.NameRules() {
		inputs = append(inputs, r.Pattern, r.Canonical)
	}

	for _, in := range inputs {
		once := c.NormalizeName(in)
		assert.Equal(t, once, c.NormalizeName(once), "normalizing %q twice", in)
	}
}

func TestNameRules_Order(t *testing.T) {
	rules := New().NameRules()
	require.NotEmpty(t, rules)

	index := func(pattern string) int {
		for i, r := range rules {
			if r.Pattern == pattern {
				return i
			}
		}
		t.Fatalf("pattern %q not in table", pattern)
		return -1
	}

	assert.Equal(t, "mx master 3s", rules[0].Pattern)
	assert.Less(t, index("mx master 3s"), index("mx master 3"))
	assert.Less(t, index("mx master 3"), index("mx master"))
	assert.Less(t, index("airpods pro"), index("airpods"))
	assert.Less(t, index("ts3+"), index("ts3"))
	// Preserved as found: the generic pattern shadows the Air variant.
	assert.Less(t, index("key light"), index("key light air"))
}

func TestNew_CopiesTables(t *testing.T) {
	rules := []NameRule{{Pattern: "widget", Canonical: "Acme Widget"}}
	c := New(WithNameRules(rules))
	rules[0].Canonical = "Changed"

	assert.Equal(t, "Acme Widget", c.NormalizeName("blue widget"))

	got := c.NameRules()
	got[0].Canonical = "Mutated"
	assert.Equal(t, "Acme Widget", c.NameRules()[0].Canonical)
}

func TestFixBrand(t *testing.T) {
	c := New()

	tests := []struct {
		name    string
		brand   string
		product string
		want    string
	}{
		{"elgato named product misdetected as LG", "LG", "Elgato Stream Deck", "Elgato"},
		{"stream deck override without elgato", "LG", "Stream Deck XL", "Elgato"},
		{"real LG ultrafine", "LG", "LG UltraFine 5K", "LG"},
		{"LG with model number", "LG", "lg 27UK850", "LG"},
		{"LG kept when undecided", "LG", "Portable Screen", "LG"},
		{"MX alias", "MX", "Master 3", "Logitech"},
		{"Logi alias", "Logi", "MX Master 3S", "Logitech"},
		{"El Gato alias", "El Gato", "Wave:3", "Elgato"},
		{"Audio Engine alias", "Audio Engine", "HD3", "Audioengine"},
		{"override beats alias", "Logi", "Samsung Galaxy Tab", "Samsung"},
		{"unknown macbook", "Unknown", "MacBook Pro 14", "Apple"},
		{"unknown magic mouse", "Unknown", "Magic Mouse", "Apple"},
		{"unknown plant", "Unknown", "Pothos plant", BrandSkip},
		{"unknown mug", "Unknown", "Ceramic mug", BrandSkip},
		{"unknown zero width joiner", "Unknown", "Zero\u200dWidth", BrandSkip},
		{"unknown stays unknown", "Unknown", "Walnut Riser", BrandUnknown},
		{"skip list only for unknown brands", "Acme", "Pothos plant", "Acme"},
		{"unrelated brand kept", "Keychron", "Q1 Pro", "Keychron"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.FixBrand(tt.brand, tt.product))
		})
	}
}

func TestIsSkip(t *testing.T) {
	assert.True(t, IsSkip(BrandSkip))
	assert.False(t, IsSkip("Skipper"))
	assert.False(t, IsSkip(BrandUnknown))
}

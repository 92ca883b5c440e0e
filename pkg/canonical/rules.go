package canonical

import (
	"regexp"
	"strings"
)

// NameRule maps a lowercase substring pattern to a canonical product name.
type NameRule struct {
	Pattern   string
	Canonical string
}

// BrandRule assigns a brand to any product whose lowercased name contains Pattern.
type BrandRule struct {
	Pattern string
	Brand   string
}

// BrandAlias rewrites a detected brand. When Disambiguate is set, the alias only
// applies if it returns true for the lowercased product name; otherwise the
// detected brand is kept unchanged.
type BrandAlias struct {
	Alias        string
	Brand        string
	Disambiguate func(nameLower string) bool
}

// DefaultNameRules returns the name normalization table. Order is significant:
// the first pattern contained in the name wins, so specific patterns precede
// their generic prefixes ("mx master 3s" before "mx master").
func DefaultNameRules() []NameRule {
	return []NameRule{
		{"mx master 3s", "Logitech MX Master 3S"},
		{"mx master 3", "Logitech MX Master 3"},
		{"mx master 2s", "Logitech MX Master 2S"},
		{"mx master 2", "Logitech MX Master 2"},
		{"mx master", "Logitech MX Master"},

		{"magic keyboard", "Apple Magic Keyboard"},
		{"apple keyboard", "Apple Magic Keyboard"},
		{"apple wireless keyboard", "Apple Magic Keyboard"},

		{"magic trackpad", "Apple Magic Trackpad"},
		{"apple trackpad", "Apple Magic Trackpad"},

		// "key light" precedes "key light air", so Air models fold into Key Light.
		{"key light", "Elgato Key Light"},
		{"keylight", "Elgato Key Light"},
		{"key light air", "Elgato Key Light Air"},
		{"keylight air", "Elgato Key Light Air"},
		{"stream deck", "Elgato Stream Deck"},
		{"streamdeck", "Elgato Stream Deck"},
		{"cam link", "Elgato Cam Link 4K"},
		{"camlink", "Elgato Cam Link 4K"},

		{"ath-m50x", "Audio-Technica ATH-M50x"},
		{"ath m50x", "Audio-Technica ATH-M50x"},

		{"ts3+", "CalDigit TS3 Plus"},
		{"ts3 plus", "CalDigit TS3 Plus"},
		{"ts3", "CalDigit TS3 Plus"},
		{"ts4", "CalDigit TS4"},

		{"screenbar", "BenQ ScreenBar"},
		{"screen bar", "BenQ ScreenBar"},
		{"screenbar halo", "BenQ ScreenBar Halo"},

		{"bookarc", "Twelve South BookArc"},
		{"book arc", "Twelve South BookArc"},

		{"a2+", "Audioengine A2+"},

		{"air75", "NuPhy Air75"},
		{"air 75", "NuPhy Air75"},

		{"airpods pro", "Apple AirPods Pro"},
		{"airpods max", "Apple AirPods Max"},
		{"airpods", "Apple AirPods"},

		{"aeron", "Herman Miller Aeron"},
		{"embody", "Herman Miller Embody"},

		{"studio display", "Apple Studio Display"},

		{"mv7", "Shure MV7"},
		{"sm7b", "Shure SM7B"},
	}
}

// DefaultBrandOverrides returns the product-name brand overrides. They are
// consulted before the alias table, which is how "Elgato Stream Deck" escapes a
// misdetected "LG".
func DefaultBrandOverrides() []BrandRule {
	return []BrandRule{
		{"elgato", "Elgato"},
		{"key light", "Elgato"},
		{"keylight", "Elgato"},
		{"stream deck", "Elgato"},
		{"streamdeck", "Elgato"},
		{"cam link", "Elgato"},
		{"camlink", "Elgato"},
		{"wave mic", "Elgato"},
		{"iloud", "IK Multimedia"},
		{"avantree", "Avantree"},
		{"zflip", "Samsung"},
		{"z flip", "Samsung"},
		{"galaxy", "Samsung"},
		{"aeropress", "AeroPress"},
		{"sonos", "Sonos"},
		{"3m ", "3M"},
		{"amazon", "Amazon"},
	}
}

var lgModelNumber = regexp.MustCompile(`\blg\s+\d`)

// isLGProduct reports whether a name really refers to an LG display.
func isLGProduct(nameLower string) bool {
	return strings.Contains(nameLower, "ultrafine") ||
		strings.Contains(nameLower, "ultragear") ||
		lgModelNumber.MatchString(nameLower) ||
		strings.HasPrefix(nameLower, "lg ")
}

// DefaultBrandAliases returns the brand alias table.
func DefaultBrandAliases() []BrandAlias {
	return []BrandAlias{
		{Alias: "MX", Brand: "Logitech"},
		{Alias: "Magic", Brand: "Apple"},
		{Alias: "AirPods", Brand: "Apple"},
		{Alias: "Logi", Brand: "Logitech"},
		{Alias: "Audio Engine", Brand: "Audioengine"},
		{Alias: "El Gato", Brand: "Elgato"},
		{Alias: "TwelveSouth", Brand: "Twelve South"},
		{Alias: "LG", Brand: "LG", Disambiguate: isLGProduct},
	}
}

// DefaultAppleKeywords returns the keywords that attribute an Unknown brand to Apple.
func DefaultAppleKeywords() []string {
	return []string{"macbook", "imac", "ipad", "magic", "airpods"}
}

// DefaultSkipKeywords returns keywords that mark an Unknown-brand mention as
// not a desk product.
func DefaultSkipKeywords() []string {
	return []string{
		"plant", "plants", "pothos", "succulent",
		"water bottle", "mug", "cup", "coaster",
		"post-it", "whiteboard", "notebook", "pen",
		"candle", "diffuser", "humidifier",
		"cloudapp",
		"\u200d",
	}
}

// DefaultQualifiers returns the variant qualifiers kept after a canonical name.
func DefaultQualifiers() []string {
	return []string{"touch id", "numeric", "numpad", "for mac"}
}

// DefaultKnownBrands returns the brand detection list. Order is significant:
// Elgato precedes LG and Audio-Technica precedes shorter audio brands.
func DefaultKnownBrands() []string {
	return []string{
		"Elgato", "Insta360", "GoPro", "Canon", "Nikon", "Fujifilm", "Blackmagic",
		"amaran", "Aputure", "Neewer", "Godox", "Lume Cube",

		"Apple", "Microsoft", "Samsung", "Dell", "ASUS", "Acer", "Lenovo",
		"BenQ", "ViewSonic", "AOC", "Philips", "MSI", "HP", "LG",

		"Logitech", "Logi", "Razer", "SteelSeries", "Corsair", "HyperX",
		"Keychron", "NuPhy", "HHKB", "Ducky", "Varmilo", "Leopold", "Topre",
		"Glorious", "Das Keyboard", "Kinesis", "ZSA", "Moonlander",

		"Audio-Technica", "Audioengine",
		"Rode", "RØDE", "Shure", "Blue", "Sennheiser", "Beyerdynamic",
		"Focusrite", "Scarlett", "Universal Audio", "PreSonus",
		"Kanto", "Sonos", "Bose", "JBL", "Klipsch", "Edifier",
		"iLoud", "IK Multimedia",

		"Herman Miller", "Steelcase", "Humanscale", "Haworth", "Secretlab",
		"Autonomous", "Uplift", "Fully", "Jarvis", "Vari", "FlexiSpot", "Vernal",
		"IKEA", "Branch", "Ergotron",

		"Twelve South", "TwelveSouth",
		"Oakywood", "Grovemade", "Ugmonk", "Orbitkey", "Bellroy",
		"Rain Design", "Satechi", "Moft",

		"CalDigit", "OWC", "Anker", "Belkin", "Native Union", "Nomad",

		"Dyson", "Xiaomi", "Teenage Engineering", "Kindle", "Amazon",
		"Avantree", "Jabra", "Poly", "Plantronics",

		"Aeron", "Embody", "Mirra", "Leap", "Gesture",
	}
}

package canonical

import "strings"

// keySuffixes are stripped from the end of a key, each at most once, in order.
var keySuffixes = [][]string{
	{"mouse"},
	{"keyboard"},
	{"monitor"},
	{"display"},
	{"speakers", "speaker"},
	{"x2"},
	// Never matches once spaces are filtered out; kept to mirror the
	// published suffix list.
	{"x 2"},
}

// CanonicalKey derives the grouping key for a normalized product name: the
// lowercase alphanumeric form with trailing generic nouns removed.
func CanonicalKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	key := b.String()

	for _, alternatives := range keySuffixes {
		for _, suffix := range alternatives {
			if strings.HasSuffix(key, suffix) {
				key = strings.TrimSuffix(key, suffix)
				break
			}
		}
	}
	return key
}

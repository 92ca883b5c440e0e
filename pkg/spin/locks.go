package spin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
)

// ParseLocks parses a "category:id,category:id" lock string. Malformed pairs
// are ignored and the remaining pairs kept; see ParseLocksReport.
func ParseLocks(s string) catalog.LockSet {
	locks, _ := ParseLocksReport(s)
	return locks
}

// ParseLocksReport parses a lock string and also returns one error per ignored
// pair. A pair is ignored when it has no colon, an empty category, or an id
// that is not a positive integer. A later pair for the same category replaces
// an earlier one. The returned errors wrap errors.ErrMalformedLock.
func ParseLocksReport(s string) (catalog.LockSet, []*dserrors.ItemError) {
	locks := make(catalog.LockSet)
	var ignored []*dserrors.ItemError

	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		reject := func(reason string) {
			ignored = append(ignored, dserrors.NewItemError(dserrors.ErrMalformedInput, "parse_locks", pair,
				fmt.Errorf("%s: %w", reason, dserrors.ErrMalformedLock)))
		}

		category, rawID, ok := strings.Cut(pair, ":")
		if !ok {
			reject("missing colon")
			continue
		}
		category = strings.TrimSpace(category)
		if category == "" {
			reject("empty category")
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
		if err != nil || id <= 0 {
			reject("id is not a positive integer")
			continue
		}
		locks[category] = id
	}
	return locks, ignored
}

// FormatLocks renders locks in the form ParseLocks accepts, ordered by the
// given categories. Categories without a lock are left out.
func FormatLocks(locks catalog.LockSet, categories []catalog.Category) string {
	var parts []string
	for _, c := range categories {
		if id, ok := locks[c.Name]; ok {
			parts = append(parts, c.Name+":"+strconv.FormatInt(id, 10))
		}
	}
	return strings.Join(parts, ",")
}

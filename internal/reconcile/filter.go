// Package reconcile turns abbreviation and mapping rows into identifier
// translations and applies them to the key columns of the main table.
package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nconklindev/modelswap/internal/types"
)

var (
	ErrEmptyPartition = errors.New("no rows for variation")
	ErrNoTranslations = errors.New("no translation pairs")
)

// FilterVariation keeps the rows whose variation contains tag, ignoring case.
// An empty result is an error listing the variations that do exist.
func FilterVariation(rows []types.AbbreviationRow, tag string) ([]types.AbbreviationRow, error) {
	needle := strings.ToLower(tag)

	var out []types.AbbreviationRow
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Variation), needle) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrEmptyPartition, tag, strings.Join(Variations(rows), ", "))
	}
	return out, nil
}

// Variations lists the distinct variation values in first-seen order.
func Variations(rows []types.AbbreviationRow) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		if !seen[r.Variation] {
			seen[r.Variation] = true
			out = append(out, r.Variation)
		}
	}
	return out
}

// DuplicateCodes returns each code that appears more than once, in the order
// its second occurrence is met.
func DuplicateCodes(rows []types.AbbreviationRow) []string {
	count := make(map[string]int)
	var dups []string
	for _, r := range rows {
		count[r.Code]++
		if count[r.Code] == 2 {
			dups = append(dups, r.Code)
		}
	}
	return dups
}

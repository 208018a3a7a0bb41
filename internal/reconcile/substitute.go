package reconcile

import (
	"github.com/nconklindev/modelswap/internal/types"
)

// Substitute rewrites key-column cells that exactly equal a pair's source
// identifier. Pairs are applied in order, so when two pairs could touch the
// same cell the last one applied wins. The input table is left untouched.
func Substitute(t *types.Table, keyCols []int, pairs []types.TranslationPair) (*types.Table, []types.ReplacementRecord) {
	out := t.Clone()

	var log []types.ReplacementRecord
	for _, p := range pairs {
		for _, col := range keyCols {
			for i, row := range out.Rows {
				if row[col] != p.Source {
					continue
				}
				log = append(log, types.ReplacementRecord{
					Row:        out.SheetRow(i),
					Column:     col + 1,
					ColumnName: out.Headers[col],
					OldValue:   p.Source,
					NewValue:   p.Target,
				})
				row[col] = p.Target
			}
		}
	}
	return out, log
}

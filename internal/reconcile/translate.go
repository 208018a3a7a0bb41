package reconcile

import (
	"fmt"

	"github.com/nconklindev/modelswap/internal/types"
)

// DescriptionIndex maps each code to its description. The first row with a
// non-empty description wins; later rows for the same code are ignored.
func DescriptionIndex(rows []types.AbbreviationRow) map[string]string {
	idx := make(map[string]string, len(rows))
	for _, r := range rows {
		if r.Code == "" || r.Description == "" {
			continue
		}
		if _, ok := idx[r.Code]; !ok {
			idx[r.Code] = r.Description
		}
	}
	return idx
}

// IdentifierIndex maps the keyColumn value of each mapping row ("Description"
// or "ModelNumber") to its ProductModelID. First row wins; rows without an
// identifier are skipped. Identifiers stay strings.
func IdentifierIndex(rows []types.MappingRow, keyColumn string) map[string]string {
	idx := make(map[string]string, len(rows))
	for _, r := range rows {
		key := r.Description
		if keyColumn == "ModelNumber" {
			key = r.ModelNumber
		}
		if key == "" || r.ProductModelID == "" {
			continue
		}
		if _, ok := idx[key]; !ok {
			idx[key] = r.ProductModelID
		}
	}
	return idx
}

// Translations is the outcome of BuildTranslations.
type Translations struct {
	Pairs  []types.TranslationPair
	Misses []types.Miss
}

// Variation is one side of the translation: its tag and its filtered rows.
type Variation struct {
	Tag  string
	Rows []types.AbbreviationRow
}

// BuildTranslations resolves every distinct source code to a source and a
// target identifier via code -> description -> identifier. Each code that
// fails on either side is recorded as one miss and produces no pair.
func BuildTranslations(source, target Variation, ids map[string]string) (*Translations, error) {
	sourceDesc := DescriptionIndex(source.Rows)
	targetDesc := DescriptionIndex(target.Rows)

	out := &Translations{}
	for _, code := range distinctCodes(source.Rows) {
		srcID, miss := resolve(source.Tag, code, sourceDesc, ids)
		if miss != nil {
			out.Misses = append(out.Misses, *miss)
			continue
		}
		dstID, miss := resolve(target.Tag, code, targetDesc, ids)
		if miss != nil {
			out.Misses = append(out.Misses, *miss)
			continue
		}
		out.Pairs = append(out.Pairs, types.TranslationPair{
			Source: srcID,
			Target: dstID,
			Code:   code,
		})
	}

	if len(out.Pairs) == 0 {
		return out, fmt.Errorf("%w for %s to %s: %d codes unresolved, check mappings or descriptions",
			ErrNoTranslations, source.Tag, target.Tag, len(out.Misses))
	}
	return out, nil
}

func resolve(tag, code string, descs, ids map[string]string) (string, *types.Miss) {
	desc, ok := descs[code]
	if !ok {
		return "", &types.Miss{Variation: tag, Code: code, Stage: types.StageDescription}
	}
	id, ok := ids[desc]
	if !ok {
		return "", &types.Miss{Variation: tag, Code: code, Description: desc, Stage: types.StageIdentifier}
	}
	return id, nil
}

func distinctCodes(rows []types.AbbreviationRow) []string {
	seen := make(map[string]bool, len(rows))
	var out []string
	for _, r := range rows {
		if !seen[r.Code] {
			seen[r.Code] = true
			out = append(out, r.Code)
		}
	}
	return out
}

// MissMessage renders a miss the way it is reported to the operator.
func MissMessage(m types.Miss) string {
	switch m.Stage {
	case types.StageDescription:
		return fmt.Sprintf("%s description for code %q not found", m.Variation, m.Code)
	default:
		return fmt.Sprintf("%s description %q for code %q not found in mappings", m.Variation, m.Description, m.Code)
	}
}

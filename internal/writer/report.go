package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nconklindev/modelswap/internal/types"
)

var reportHeader = []string{"Row", "Column", "ColumnName", "OldValue", "NewValue"}

// WriteReport writes the replacement log as CSV, one line per changed cell.
func WriteReport(path string, log []types.ReplacementRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report %s: %w", path, err)
		}
	}

	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer outFile.Close()

	records := make([][]string, 0, len(log)+1)
	records = append(records, reportHeader)
	for _, r := range log {
		records = append(records, []string{
			strconv.Itoa(r.Row),
			strconv.Itoa(r.Column),
			r.ColumnName,
			r.OldValue,
			r.NewValue,
		})
	}

	writer := csv.NewWriter(outFile)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return outFile.Close()
}

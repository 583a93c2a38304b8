package commands

import (
	"encoding/json"
	"io"

	"github.com/Chahine-tech/simpledb-go/pkg/result"
)

func writeJSONRows(out io.Writer, qr *result.QueryResult) error {
	rows := make([]map[string]any, len(qr.Rows))
	for i, row := range qr.Rows {
		record := map[string]any{}
		for j, col := range qr.Columns {
			record[col] = row[j]
		}
		rows[i] = record
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

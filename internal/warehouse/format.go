package warehouse

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Output formats for query results
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Format renders a result in the requested output format.
// JSON output is indented; text output is tab-separated with a header
// row, matching what analysts expect to paste into a spreadsheet.
func Format(result *Result, format string) (string, error) {
	switch format {
	case FormatJSON, "":
		return formatJSON(result)
	case FormatText:
		return formatText(result), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (supported: json, text)", format)
	}
}

func formatJSON(result *Result) (string, error) {
	rows := make([]map[string]interface{}, len(result.Rows))
	for i, row := range result.Rows {
		normalized := make(map[string]interface{}, len(row))
		for col, v := range row {
			normalized[col] = normalizeValue(v)
		}
		rows[i] = normalized
	}

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode rows as JSON: %w", err)
	}
	return string(out), nil
}

func formatText(result *Result) string {
	var b strings.Builder

	b.WriteString(strings.Join(result.Columns, "\t"))
	b.WriteByte('\n')

	for _, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			cells[i] = renderCell(row[col])
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteByte('\n')
	}

	return b.String()
}

// normalizeValue converts driver-specific types into JSON-friendly
// ones. Drivers hand back []byte for most text and numeric columns,
// and time.Time for date columns.
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return val
	}
}

func renderCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

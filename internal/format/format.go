// Package format renders query results as monospace text tables for
// Discord code blocks. It is pure: no I/O, no shared state.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/timcuber37/wca-statbot/internal/wcadb"
)

// maxColumnWidth caps a column so one long cell cannot blow up the
// whole table.
const maxColumnWidth = 50

// nullPlaceholder renders NULL and zero-time cells.
const nullPlaceholder = "-"

// timeColumns are result columns that hold centisecond values in the
// WCA export. Matched case-insensitively.
var timeColumns = map[string]bool{
	"best":              true,
	"average":           true,
	"single":            true,
	"value1":            true,
	"value2":            true,
	"value3":            true,
	"value4":            true,
	"value5":            true,
	"worldrecord":       true,
	"continentalrecord": true,
	"nationalrecord":    true,
}

// Table renders at most maxRows rows as an aligned text table. When
// rows were omitted, a trailing notice states how many.
func Table(rs wcadb.ResultSet, maxRows int) string {
	if len(rs.Rows) == 0 || len(rs.Columns) == 0 {
		return "No results found."
	}
	if maxRows <= 0 {
		maxRows = 50
	}

	shown := rs.Rows
	if len(shown) > maxRows {
		shown = shown[:maxRows]
	}

	rendered := make([][]string, len(shown))
	for i, row := range shown {
		cells := make([]string, len(rs.Columns))
		for j := range rs.Columns {
			var v any
			if j < len(row) {
				v = row[j]
			}
			cells[j] = Cell(rs.Columns[j], v)
		}
		rendered[i] = cells
	}

	widths := make([]int, len(rs.Columns))
	for j, col := range rs.Columns {
		widths[j] = len(col)
		for _, cells := range rendered {
			if n := len(cells[j]); n > widths[j] {
				widths[j] = n
			}
		}
		if widths[j] > maxColumnWidth {
			widths[j] = maxColumnWidth
		}
	}

	totalWidth := 0
	for _, w := range widths {
		totalWidth += w
	}
	totalWidth += (len(widths) - 1) * 3 // " | " separators

	var lines []string
	lines = append(lines, "Results:")
	lines = append(lines, strings.Repeat("=", totalWidth))
	lines = append(lines, joinRow(rs.Columns, widths))
	lines = append(lines, strings.Repeat("-", totalWidth))
	for _, cells := range rendered {
		lines = append(lines, joinRow(cells, widths))
	}
	// rs.Truncated means the executor's fetch cap cut the result off, so
	// any stated count understates the true omission.
	omitted := len(rs.Rows) - len(shown)
	switch {
	case omitted > 0 && rs.Truncated:
		lines = append(lines, "", fmt.Sprintf("... and %d+ more results", omitted))
	case omitted > 0:
		lines = append(lines, "", fmt.Sprintf("... and %d more results", omitted))
	case rs.Truncated:
		lines = append(lines, "", "... and more results")
	}

	return strings.Join(lines, "\n")
}

func joinRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		if len(cell) < widths[i] {
			cell += strings.Repeat(" ", widths[i]-len(cell))
		}
		padded[i] = cell
	}
	return strings.Join(padded, " | ")
}

// Cell renders a single value, applying the WCA centisecond transform
// for recognized time columns.
func Cell(column string, v any) string {
	if v == nil {
		return nullPlaceholder
	}
	if timeColumns[strings.ToLower(column)] {
		if cs, ok := asInt64(v); ok {
			return Centiseconds(cs)
		}
	}
	return fmt.Sprintf("%v", v)
}

// Centiseconds renders a WCA time value. Sub-minute times render as
// seconds with two decimals, longer ones as M:SS.cc. The WCA sentinels
// -1 (DNF), -2 (DNS) and 0 (no result) render as markers.
func Centiseconds(cs int64) string {
	switch {
	case cs == -1:
		return "DNF"
	case cs == -2:
		return "DNS"
	case cs == 0:
		return nullPlaceholder
	case cs < 0:
		return strconv.FormatInt(cs, 10)
	case cs < 6000:
		return fmt.Sprintf("%.2f", float64(cs)/100)
	default:
		minutes := cs / 6000
		seconds := float64(cs%6000) / 100
		return fmt.Sprintf("%d:%05.2f", minutes, seconds)
	}
}

func asInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int32:
		return int64(val), true
	case int:
		return int64(val), true
	case float64:
		return int64(val), true
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case []byte:
		n, err := strconv.ParseInt(string(val), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

package format

import (
	"strings"
	"testing"

	"github.com/timcuber37/wca-statbot/internal/wcadb"
)

func TestCentiseconds(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{1000, "10.00"},
		{6000, "1:00.00"},
		{5999, "59.99"},
		{313, "3.13"},
		{34743, "5:47.43"},
		{360000, "60:00.00"},
		{0, "-"},
		{-1, "DNF"},
		{-2, "DNS"},
	}
	for _, tc := range cases {
		if got := Centiseconds(tc.in); got != tc.want {
			t.Errorf("Centiseconds(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCellTransformsTimeColumnsOnly(t *testing.T) {
	if got := Cell("best", int64(1000)); got != "10.00" {
		t.Fatalf("Cell(best, 1000) = %q", got)
	}
	if got := Cell("BEST", "6000"); got != "1:00.00" {
		t.Fatalf("Cell(BEST, \"6000\") = %q (column match should be case-insensitive)", got)
	}
	if got := Cell("world_rank", int64(1000)); got != "1000" {
		t.Fatalf("Cell(world_rank, 1000) = %q, want untransformed", got)
	}
	if got := Cell("name", nil); got != "-" {
		t.Fatalf("Cell(name, nil) = %q", got)
	}
	if got := Cell("average", int64(-1)); got != "DNF" {
		t.Fatalf("Cell(average, -1) = %q", got)
	}
}

func TestTableColumnWidths(t *testing.T) {
	rs := wcadb.ResultSet{
		// "competition_identifier" header longer than any cell,
		// "n" header shorter than its cells.
		Columns: []string{"competition_identifier", "n"},
		Rows: [][]any{
			{"WC2023", "Max Park"},
			{"Euro2022", "Tymon"},
		},
	}
	out := Table(rs, 10)
	lines := strings.Split(out, "\n")
	if len(lines) != 6 {
		t.Fatalf("line count = %d, want 6 (title, rule, header, rule, 2 rows)", len(lines))
	}

	header := lines[2]
	firstRow := lines[4]
	secondRow := lines[5]

	sep := strings.Index(header, " | ")
	if sep != len("competition_identifier") {
		t.Fatalf("first column width = %d, want header length %d", sep, len("competition_identifier"))
	}
	if strings.Index(firstRow, " | ") != sep || strings.Index(secondRow, " | ") != sep {
		t.Error("data rows should align with the header separator")
	}

	// Second column width is driven by the longest cell ("Max Park").
	if len(firstRow) != sep+3+len("Max Park") {
		t.Fatalf("row width = %d, want %d", len(firstRow), sep+3+len("Max Park"))
	}
}

func TestTableTruncation(t *testing.T) {
	rs := wcadb.ResultSet{Columns: []string{"n"}}
	for i := 0; i < 7; i++ {
		rs.Rows = append(rs.Rows, []any{int64(i)})
	}

	out := Table(rs, 5)
	if !strings.Contains(out, "... and 2 more results") {
		t.Fatalf("missing truncation notice:\n%s", out)
	}
	dataLines := 0
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "Results:") ||
			strings.HasPrefix(trimmed, "=") || strings.HasPrefix(trimmed, "-") ||
			strings.HasPrefix(trimmed, "...") || trimmed == "n" {
			continue
		}
		dataLines++
	}
	if dataLines != 5 {
		t.Fatalf("data lines = %d, want 5", dataLines)
	}
}

func TestTableNoticeWhenFetchCapHit(t *testing.T) {
	// The executor stopped scanning at its fetch cap, so every fetched row
	// fits on screen but the result is still incomplete.
	rs := wcadb.ResultSet{
		Columns:   []string{"n"},
		Rows:      [][]any{{int64(1)}, {int64(2)}, {int64(3)}},
		Truncated: true,
	}
	if out := Table(rs, 3); !strings.Contains(out, "... and more results") {
		t.Fatalf("missing truncation notice:\n%s", out)
	}
}

func TestTableNoticeCountIsLowerBoundWhenFetchCapHit(t *testing.T) {
	rs := wcadb.ResultSet{Columns: []string{"n"}, Truncated: true}
	for i := 0; i < 7; i++ {
		rs.Rows = append(rs.Rows, []any{int64(i)})
	}
	if out := Table(rs, 5); !strings.Contains(out, "... and 2+ more results") {
		t.Fatalf("notice should mark the count as a lower bound:\n%s", out)
	}
}

func TestTableNoTruncationNoticeWhenAllShown(t *testing.T) {
	rs := wcadb.ResultSet{
		Columns: []string{"n"},
		Rows:    [][]any{{int64(1)}, {int64(2)}},
	}
	if out := Table(rs, 5); strings.Contains(out, "more results") {
		t.Fatalf("unexpected truncation notice:\n%s", out)
	}
}

func TestTableEmpty(t *testing.T) {
	if got := Table(wcadb.ResultSet{Columns: []string{"n"}}, 5); got != "No results found." {
		t.Fatalf("Table(empty) = %q", got)
	}
}

func TestTableWorldRecordShape(t *testing.T) {
	// The end-to-end shape for "what is the world record for 3x3".
	rs := wcadb.ResultSet{
		Columns: []string{"name", "best", "world_rank", "country_id"},
		Rows:    [][]any{{"Max Park", int64(313), int64(1), "USA"}},
	}
	out := Table(rs, 50)
	if !strings.Contains(out, "3.13") {
		t.Fatalf("best should render as seconds:\n%s", out)
	}
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("line count = %d, want 5 (single data row, no notice)", len(lines))
	}
	if !strings.Contains(lines[4], "Max Park") {
		t.Fatalf("data row = %q", lines[4])
	}
}

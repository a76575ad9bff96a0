// Package schema describes the imported WCA results database for LLM
// prompt grounding. The WCA export is an externally supplied schema, so
// the description is static data rather than live introspection.
package schema

import (
	"fmt"
	"strings"
	"sync"
)

// Table represents one table of the WCA export.
type Table struct {
	Name    string
	Comment string
	Columns []Column
}

// Column represents a table column.
type Column struct {
	Name    string
	Type    string
	Comment string
}

var rankColumns = []Column{
	{Name: "person_id", Type: "varchar"},
	{Name: "event_id", Type: "varchar"},
	{Name: "best", Type: "int", Comment: "centiseconds"},
	{Name: "world_rank", Type: "int"},
	{Name: "continent_rank", Type: "int"},
	{Name: "country_rank", Type: "int"},
}

var tables = []Table{
	{
		Name:    "ranks_single",
		Comment: "world rankings for single solves; world_rank 1 is the world record holder",
		Columns: rankColumns,
	},
	{
		Name:    "ranks_average",
		Comment: "world rankings for averages; world_rank 1 is the world record holder",
		Columns: rankColumns,
	},
	{
		Name:    "results",
		Comment: "per-round competition results",
		Columns: []Column{
			{Name: "id", Type: "bigint"},
			{Name: "competition_id", Type: "varchar"},
			{Name: "event_id", Type: "varchar"},
			{Name: "round_type_id", Type: "varchar"},
			{Name: "pos", Type: "int"},
			{Name: "best", Type: "int", Comment: "centiseconds"},
			{Name: "average", Type: "int", Comment: "centiseconds"},
			{Name: "person_name", Type: "varchar"},
			{Name: "person_id", Type: "varchar"},
			{Name: "person_country_id", Type: "varchar"},
			{Name: "format_id", Type: "varchar"},
			{Name: "regional_single_record", Type: "varchar"},
			{Name: "regional_average_record", Type: "varchar"},
		},
	},
	{
		Name:    "persons",
		Comment: "competitor information",
		Columns: []Column{
			{Name: "wca_id", Type: "varchar"},
			{Name: "sub_id", Type: "int"},
			{Name: "name", Type: "varchar"},
			{Name: "country_id", Type: "varchar"},
			{Name: "gender", Type: "varchar"},
		},
	},
	{
		Name:    "competitions",
		Comment: "competition details",
		Columns: []Column{
			{Name: "id", Type: "varchar"},
			{Name: "name", Type: "varchar"},
			{Name: "city_name", Type: "varchar"},
			{Name: "country_id", Type: "varchar"},
			{Name: "year", Type: "int"},
			{Name: "month", Type: "int"},
			{Name: "day", Type: "int"},
			{Name: "end_year", Type: "int"},
			{Name: "end_month", Type: "int"},
			{Name: "end_day", Type: "int"},
			{Name: "cancelled", Type: "int"},
			{Name: "venue", Type: "varchar"},
			{Name: "cell_name", Type: "varchar"},
		},
	},
	{
		Name:    "events",
		Comment: "puzzle events",
		Columns: []Column{
			{Name: "id", Type: "varchar"},
			{Name: "name", Type: "varchar"},
			{Name: "rank", Type: "int"},
			{Name: "format", Type: "varchar"},
			{Name: "cell_name", Type: "varchar"},
		},
	},
	{
		Name:    "countries",
		Comment: "countries",
		Columns: []Column{
			{Name: "id", Type: "varchar"},
			{Name: "name", Type: "varchar"},
			{Name: "continent_id", Type: "varchar"},
			{Name: "iso2", Type: "varchar"},
		},
	},
}

// eventIDs are the commonly queried WCA event identifiers.
var eventIDs = [][2]string{
	{"333", "3x3x3 Cube"},
	{"222", "2x2x2 Cube"},
	{"444", "4x4x4 Cube"},
	{"555", "5x5x5 Cube"},
	{"666", "6x6x6 Cube"},
	{"777", "7x7x7 Cube"},
	{"333bf", "3x3x3 Blindfolded"},
	{"333fm", "3x3x3 Fewest Moves"},
	{"333oh", "3x3x3 One-Handed"},
	{"clock", "Clock"},
	{"minx", "Megaminx"},
	{"pyram", "Pyraminx"},
	{"skewb", "Skewb"},
	{"sq1", "Square-1"},
	{"444bf", "4x4x4 Blindfolded"},
	{"555bf", "5x5x5 Blindfolded"},
	{"333mbf", "3x3x3 Multi-Blind"},
}

const notes = `IMPORTANT NOTES:
- Time values are stored in centiseconds (1/100th of a second). Example: 1000 = 10.00 seconds, 6000 = 1:00.00
- -1 means DNF (Did Not Finish), -2 means DNS (Did Not Start)
- The 'best' column in ranks_single and ranks_average contains the person's best time
- World rank 1 means world record holder`

const exampleQueries = `EXAMPLE QUERIES:

World record for 3x3 single:
SELECT p.name, r.best, r.world_rank, p.country_id
FROM ranks_single r
JOIN persons p ON r.person_id = p.wca_id
WHERE r.event_id = '333' AND r.world_rank = 1

Top 10 fastest 3x3 singles:
SELECT p.name, r.best, r.world_rank, p.country_id
FROM ranks_single r
JOIN persons p ON r.person_id = p.wca_id
WHERE r.event_id = '333'
ORDER BY r.world_rank ASC
LIMIT 10

Person with most competition results:
SELECT person_name, person_id, COUNT(*) as result_count
FROM results
GROUP BY person_id, person_name
ORDER BY result_count DESC
LIMIT 10`

var (
	contextOnce sync.Once
	contextText string
)

// Context returns the rendered schema description used to ground SQL
// generation. The text is assembled once and reused for every request.
func Context() string {
	contextOnce.Do(func() {
		var sb strings.Builder
		sb.WriteString("The World Cube Association (WCA) database contains the following tables:\n\n")
		for _, table := range tables {
			sb.WriteString(tableToText(table))
			sb.WriteString("\n")
		}
		sb.WriteString("Common event IDs:\n")
		for _, ev := range eventIDs {
			sb.WriteString(fmt.Sprintf("- '%s' = %s\n", ev[0], ev[1]))
		}
		sb.WriteString("\n")
		sb.WriteString(notes)
		sb.WriteString("\n\n")
		sb.WriteString(exampleQueries)
		contextText = sb.String()
	})
	return contextText
}

// Tables returns the table catalog, for callers that need structure
// rather than prompt text.
func Tables() []Table {
	out := make([]Table, len(tables))
	copy(out, tables)
	return out
}

// HasTable reports whether name is a table of the WCA export.
func HasTable(name string) bool {
	lower := strings.ToLower(name)
	for _, t := range tables {
		if t.Name == lower {
			return true
		}
	}
	return false
}

func tableToText(t Table) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("TABLE: %s", t.Name))
	if t.Comment != "" {
		sb.WriteString(fmt.Sprintf(" // %s", t.Comment))
	}
	sb.WriteString("\n")
	for _, col := range t.Columns {
		sb.WriteString(fmt.Sprintf("  - %s: %s", col.Name, col.Type))
		if col.Comment != "" {
			sb.WriteString(fmt.Sprintf(" // %s", col.Comment))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

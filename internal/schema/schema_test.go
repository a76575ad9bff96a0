package schema

import (
	"strings"
	"testing"
)

func TestContextListsAllTables(t *testing.T) {
	text := Context()
	for _, name := range []string{
		"ranks_single", "ranks_average", "results", "persons",
		"competitions", "events", "countries",
	} {
		if !strings.Contains(text, "TABLE: "+name) {
			t.Errorf("Context() missing table %q", name)
		}
	}
	if !strings.Contains(text, "centiseconds") {
		t.Error("Context() should explain the centisecond storage unit")
	}
	if !strings.Contains(text, "'333' = 3x3x3 Cube") {
		t.Error("Context() should list common event IDs")
	}
	if !strings.Contains(text, "EXAMPLE QUERIES:") {
		t.Error("Context() should include example queries")
	}
}

func TestContextIsStable(t *testing.T) {
	if Context() != Context() {
		t.Fatal("Context() should return the same text on every call")
	}
}

func TestHasTable(t *testing.T) {
	if !HasTable("persons") {
		t.Error("HasTable(persons) = false")
	}
	if !HasTable("RANKS_SINGLE") {
		t.Error("HasTable should be case-insensitive")
	}
	if HasTable("weather") {
		t.Error("HasTable(weather) = true")
	}
}

package metrics

import (
	"testing"
)

func TestFilterApply(t *testing.T) {
	table := sampleTable()

	if got := (Filter{}).Apply(table); len(got) != len(table) {
		t.Errorf("zero filter: got %d records, want %d", len(got), len(table))
	}

	got := Filter{Devices: []string{"Desktop"}}.Apply(table)
	if len(got) != 2 {
		t.Errorf("device filter: got %d, want 2", len(got))
	}

	got = Filter{Devices: []string{"Desktop"}, Priorities: []string{"High"}}.Apply(table)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("combined filter: got %v", got)
	}

	// A multi-country record matches when any member country is selected.
	got = Filter{Countries: []string{"LV"}}.Apply(table)
	if len(got) != 2 {
		t.Errorf("country filter: got %d, want 2", len(got))
	}

	got = Filter{Devices: []string{"Tablet"}}.Apply(table)
	if len(got) != 0 {
		t.Errorf("no-match filter: got %d, want 0", len(got))
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	table := sampleTable()
	before := len(table)
	Filter{Devices: []string{"Desktop"}}.Apply(table)
	if len(table) != before {
		t.Errorf("input table changed: %d -> %d", before, len(table))
	}
}

func TestFilterKey(t *testing.T) {
	a := Filter{Devices: []string{"Mobile", "Desktop"}, Countries: []string{"LT"}}
	b := Filter{Devices: []string{"Desktop", "Mobile"}, Countries: []string{"LT"}}
	if a.Key() != b.Key() {
		t.Errorf("selection order should not change the key: %q vs %q", a.Key(), b.Key())
	}

	if got := (Filter{}).Key(); got != "*|*|*" {
		t.Errorf("zero key: got %q", got)
	}
	if got := a.Key(); got != "Desktop,Mobile|LT|*" {
		t.Errorf("key form: got %q", got)
	}
}

func TestFilterIsZero(t *testing.T) {
	if !(Filter{}).IsZero() {
		t.Error("empty filter should be zero")
	}
	if (Filter{Priorities: []string{"High"}}).IsZero() {
		t.Error("constrained filter should not be zero")
	}
}

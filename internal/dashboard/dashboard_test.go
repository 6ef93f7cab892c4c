package dashboard

import (
	"strings"
	"testing"

	"github.com/Alcatecable/Procedure/internal/store"
)

func proc(id, title, description, source, status, date string) store.Procedure {
	d, err := store.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return store.Procedure{
		ProcedureID:   id,
		Title:         title,
		Description:   description,
		Source:        source,
		Status:        status,
		EffectiveDate: d,
	}
}

func sampleProcedures() []store.Procedure {
	return []store.Procedure{
		proc("prc_1", "New EFT Process", "wire transfers", "Teams", "active", "2024-01-15"),
		proc("prc_2", "Badge Policy", "door access", "Slack", "archived", "2024-02-01"),
		proc("prc_3", "Expense Reports", "submit by friday", "Email", "active", "2023-12-01"),
		proc("prc_4", "Old EFT Process", "superseded", "Teams", "replaced", "2023-06-10"),
	}
}

func TestRecomputeDefaultsToActiveFilter(t *testing.T) {
	got := Recompute(sampleProcedures(), ViewState{})
	if len(got) != 2 {
		t.Fatalf("expected 2 active procedures, got %d", len(got))
	}
	for _, p := range got {
		if p.Status != "active" {
			t.Fatalf("expected only active procedures, got status %q", p.Status)
		}
	}
}

func TestRecomputeStatusFilterIsExact(t *testing.T) {
	for _, status := range []string{"active", "archived", "replaced"} {
		got := Recompute(sampleProcedures(), ViewState{Status: status, Sort: SortDateDesc})
		for _, p := range got {
			if p.Status != status {
				t.Fatalf("filter %q returned status %q", status, p.Status)
			}
		}
	}
}

func TestRecomputeAllFilterKeepsEverything(t *testing.T) {
	got := Recompute(sampleProcedures(), ViewState{Status: FilterAll})
	if len(got) != 4 {
		t.Fatalf("expected all 4 procedures, got %d", len(got))
	}
}

func TestRecomputeSearchIsSubsetOfMatches(t *testing.T) {
	query := "eft"
	got := Recompute(sampleProcedures(), ViewState{Status: FilterAll, Search: query})
	if len(got) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", query, len(got))
	}
	for _, p := range got {
		hay := strings.ToLower(p.Title + " " + p.Description + " " + p.Source)
		if !strings.Contains(hay, query) {
			t.Fatalf("result %q does not match query %q", p.ProcedureID, query)
		}
	}
}

func TestRecomputeSearchMatchesAnyField(t *testing.T) {
	procs := sampleProcedures()
	byDescription := Recompute(procs, ViewState{Status: FilterAll, Search: "door"})
	if len(byDescription) != 1 || byDescription[0].ProcedureID != "prc_2" {
		t.Fatalf("expected description match for prc_2, got %v", byDescription)
	}
	bySource := Recompute(procs, ViewState{Status: FilterAll, Search: "slack"})
	if len(bySource) != 1 || bySource[0].ProcedureID != "prc_2" {
		t.Fatalf("expected source match for prc_2, got %v", bySource)
	}
}

func TestRecomputeSortDateDescDefault(t *testing.T) {
	got := Recompute(sampleProcedures(), ViewState{Status: FilterAll})
	want := []string{"prc_2", "prc_1", "prc_3", "prc_4"}
	for i, id := range want {
		if got[i].ProcedureID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ProcedureID)
		}
	}
}

func TestRecomputeSortDateAscReversesDescForDistinctDates(t *testing.T) {
	desc := Recompute(sampleProcedures(), ViewState{Status: FilterAll, Sort: SortDateDesc})
	asc := Recompute(sampleProcedures(), ViewState{Status: FilterAll, Sort: SortDateAsc})
	if len(desc) != len(asc) {
		t.Fatalf("length mismatch: %d vs %d", len(desc), len(asc))
	}
	for i := range desc {
		if desc[i].ProcedureID != asc[len(asc)-1-i].ProcedureID {
			t.Fatalf("asc is not the reverse of desc at position %d", i)
		}
	}
}

func TestRecomputeSortByTitle(t *testing.T) {
	got := Recompute(sampleProcedures(), ViewState{Status: FilterAll, Sort: SortTitle})
	want := []string{"prc_2", "prc_3", "prc_1", "prc_4"}
	for i, id := range want {
		if got[i].ProcedureID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ProcedureID)
		}
	}
}

func TestRecomputeSortIsIdempotent(t *testing.T) {
	first := Recompute(sampleProcedures(), ViewState{Status: FilterAll, Sort: SortTitle})
	second := Recompute(first, ViewState{Status: FilterAll, Sort: SortTitle})
	for i := range first {
		if first[i].ProcedureID != second[i].ProcedureID {
			t.Fatalf("sorting twice changed order at position %d", i)
		}
	}
}

func TestRecomputeDoesNotMutateInput(t *testing.T) {
	procs := sampleProcedures()
	original := make([]string, len(procs))
	for i, p := range procs {
		original[i] = p.ProcedureID
	}
	_ = Recompute(procs, ViewState{Status: FilterAll, Sort: SortTitle})
	for i, p := range procs {
		if p.ProcedureID != original[i] {
			t.Fatalf("input slice mutated at position %d", i)
		}
	}
}

func TestCompletionPercent(t *testing.T) {
	if got := CompletionPercent(0, 0); got != 0 {
		t.Fatalf("expected 0%% with no profiles, got %d", got)
	}
	if got := CompletionPercent(5, 0); got != 0 {
		t.Fatalf("expected divide-by-zero guard, got %d", got)
	}
	if got := CompletionPercent(1, 3); got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
	if got := CompletionPercent(2, 3); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
	if got := CompletionPercent(3, 3); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	for acked := 0; acked <= 10; acked++ {
		got := CompletionPercent(acked, 10)
		if got < 0 || got > 100 {
			t.Fatalf("percentage out of range: %d", got)
		}
	}
}

func TestEmptyMessageVariants(t *testing.T) {
	if got := EmptyMessage("eft", true); got != "Try adjusting your search or filters" {
		t.Fatalf("unexpected search copy: %q", got)
	}
	if got := EmptyMessage("", true); got != "Get started by adding your first procedure" {
		t.Fatalf("unexpected admin copy: %q", got)
	}
	if got := EmptyMessage("", false); got != "No procedures have been added yet" {
		t.Fatalf("unexpected staff copy: %q", got)
	}
}

func TestValidFilterAndSort(t *testing.T) {
	for _, v := range []string{"all", "active", "archived", "replaced"} {
		if !ValidFilter(v) {
			t.Fatalf("expected %q to be a valid filter", v)
		}
	}
	if ValidFilter("deleted") {
		t.Fatal("expected unknown filter to be rejected")
	}
	for _, v := range []string{"date-desc", "date-asc", "title"} {
		if !ValidSort(v) {
			t.Fatalf("expected %q to be a valid sort", v)
		}
	}
	if ValidSort("created") {
		t.Fatal("expected unknown sort to be rejected")
	}
}

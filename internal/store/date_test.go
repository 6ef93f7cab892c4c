package store

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-01-15" {
		t.Fatalf("unexpected date: %s", d)
	}

	if _, err := ParseDate("15/01/2024"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
	if _, err := ParseDate(""); err == nil {
		t.Fatal("expected error for empty date")
	}
}

func TestDateOfDropsTimeOfDay(t *testing.T) {
	d := DateOf(time.Date(2024, 3, 9, 23, 45, 12, 0, time.UTC))
	if d.String() != "2024-03-09" {
		t.Fatalf("unexpected date: %s", d)
	}
}

func TestDateOrdering(t *testing.T) {
	a, _ := ParseDate("2023-06-10")
	b, _ := ParseDate("2024-01-15")
	if !a.Before(b) {
		t.Fatal("expected earlier date to sort first")
	}
	if b.Before(a) {
		t.Fatal("expected later date not to be before earlier")
	}
	if !a.Equal(a) {
		t.Fatal("expected date to equal itself")
	}
}

func TestDateJSONShape(t *testing.T) {
	d, _ := ParseDate("2024-01-15")
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `"2024-01-15"` {
		t.Fatalf("unexpected JSON: %s", b)
	}

	var parsed Date
	if err := json.Unmarshal([]byte(`"2024-02-01"`), &parsed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.String() != "2024-02-01" {
		t.Fatalf("unexpected date: %s", parsed)
	}
	if err := json.Unmarshal([]byte(`"soon"`), &parsed); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-01-15" {
		t.Fatalf("unexpected date: %s", d)
	}
	if err := d.Scan(42); err == nil {
		t.Fatal("expected error scanning unsupported type")
	}
}

func TestValidRoleAndStatus(t *testing.T) {
	if !ValidRole("admin") || !ValidRole("staff") {
		t.Fatal("expected admin and staff to be valid roles")
	}
	if ValidRole("owner") {
		t.Fatal("expected unknown role to be rejected")
	}
	if !ValidStatus("active") || !ValidStatus("archived") || !ValidStatus("replaced") {
		t.Fatal("expected lifecycle statuses to be valid")
	}
	if ValidStatus("draft") {
		t.Fatal("expected unknown status to be rejected")
	}
}

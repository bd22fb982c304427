package grouping

import (
	"reflect"
	"testing"

	"github.com/giygas/prescriptions-api/recordsparser/entities"
)

func rec(id, doctorID int, status, issuedAt string) entities.Prescription {
	return entities.Prescription{
		ID:                id,
		DoctorID:          doctorID,
		DoctorName:        "Doctor",
		PatientIdentifier: "199012345678",
		Status:            entities.ParseStatus(status),
		IssuedAt:          issuedAt,
	}
}

func ids(records []entities.Prescription) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestGroupEmptyInput(t *testing.T) {
	groups := Group(nil)
	if groups == nil {
		t.Fatal("Expected non-nil empty slice")
	}
	if len(groups) != 0 {
		t.Errorf("Expected 0 groups, got %d", len(groups))
	}
}

func TestGroupWorkedExample(t *testing.T) {
	records := []entities.Prescription{
		rec(1, 10, "Active", "2024-01-01"),
		rec(2, 10, "completed", "2024-03-01"),
		rec(3, 20, "active", "2024-02-01"),
	}

	groups := Group(records)
	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}

	first, second := groups[0], groups[1]
	if first.DoctorID != 10 {
		t.Errorf("Expected doctor 10 first, got %d", first.DoctorID)
	}
	if first.Latest.ID != 2 || first.TotalCount != 2 || first.ActiveCount != 1 {
		t.Errorf("Unexpected doctor 10 summary: latest=%d total=%d active=%d",
			first.Latest.ID, first.TotalCount, first.ActiveCount)
	}
	if second.DoctorID != 20 {
		t.Errorf("Expected doctor 20 second, got %d", second.DoctorID)
	}
	if second.Latest.ID != 3 || second.TotalCount != 1 || second.ActiveCount != 1 {
		t.Errorf("Unexpected doctor 20 summary: latest=%d total=%d active=%d",
			second.Latest.ID, second.TotalCount, second.ActiveCount)
	}
	if !reflect.DeepEqual(ids(first.Records), []int{2, 1}) {
		t.Errorf("Expected records [2 1], got %v", ids(first.Records))
	}
}

func TestGroupPermutationInvariant(t *testing.T) {
	base := []entities.Prescription{
		rec(1, 10, "active", "2024-01-01T08:00:00Z"),
		rec(2, 10, "completed", "2024-03-01T08:00:00Z"),
		rec(3, 20, "active", "2024-02-01T08:00:00Z"),
		rec(4, 30, "cancelled", "2024-02-01T08:00:00Z"),
		rec(5, 20, "ACTIVE", "2023-12-24"),
	}
	expected := Group(base)

	var permute func(k int, items []entities.Prescription)
	permute = func(k int, items []entities.Prescription) {
		if k == len(items) {
			got := Group(items)
			if !reflect.DeepEqual(got, expected) {
				t.Fatalf("Grouping differs for permutation %v", ids(items))
			}
			return
		}
		for i := k; i < len(items); i++ {
			items[k], items[i] = items[i], items[k]
			permute(k+1, items)
			items[k], items[i] = items[i], items[k]
		}
	}
	permute(0, append([]entities.Prescription(nil), base...))

	// Equal latest timestamps fall back to doctor ID ascending.
	if expected[1].DoctorID != 20 || expected[2].DoctorID != 30 {
		t.Errorf("Expected tie broken by doctor ID, got %d then %d", expected[1].DoctorID, expected[2].DoctorID)
	}
}

func TestGroupStableForEqualTimestamps(t *testing.T) {
	records := []entities.Prescription{
		rec(7, 10, "active", "2024-05-01"),
		rec(3, 10, "active", "2024-05-01"),
		rec(9, 10, "active", "2024-05-01"),
	}

	groups := Group(records)
	if got := ids(groups[0].Records); !reflect.DeepEqual(got, []int{7, 3, 9}) {
		t.Errorf("Expected input order preserved [7 3 9], got %v", got)
	}
	if groups[0].Latest.ID != 7 {
		t.Errorf("Expected latest 7, got %d", groups[0].Latest.ID)
	}
}

func TestGroupUnparsableTimestampSortsLast(t *testing.T) {
	records := []entities.Prescription{
		rec(1, 10, "active", "not a date"),
		rec(2, 10, "active", "1970-01-01"),
		rec(3, 20, "active", ""),
		rec(4, 30, "active", "2020-06-01"),
	}

	groups := Group(records)
	if got := ids(groups[1].Records); groups[1].DoctorID != 10 || !reflect.DeepEqual(got, []int{2, 1}) {
		t.Errorf("Expected doctor 10 records [2 1], got doctor %d %v", groups[1].DoctorID, got)
	}
	if groups[0].DoctorID != 30 {
		t.Errorf("Expected doctor 30 first, got %d", groups[0].DoctorID)
	}
	if groups[2].DoctorID != 20 {
		t.Errorf("Expected doctor with only unparsable dates last, got %d", groups[2].DoctorID)
	}
}

func TestGroupDoesNotMutateInput(t *testing.T) {
	records := []entities.Prescription{
		rec(1, 10, "active", "2024-01-01"),
		rec(2, 10, "active", "2024-03-01"),
		rec(3, 10, "active", "2024-02-01"),
	}
	before := append([]entities.Prescription(nil), records...)

	_ = Group(records)

	if !reflect.DeepEqual(records, before) {
		t.Errorf("Input was reordered: %v", ids(records))
	}
}

func TestGroupDoctorNameFromLatestRecord(t *testing.T) {
	older := rec(1, 10, "active", "2024-01-01")
	older.DoctorName = "Perera"
	newer := rec(2, 10, "active", "2024-04-01")
	newer.DoctorName = "Perera-Silva"
	oldest := rec(3, 10, "active", "2023-01-01")
	oldest.DoctorName = "Old Name"

	groups := Group([]entities.Prescription{older, newer, oldest})
	if groups[0].DoctorName != "Perera-Silva" {
		t.Errorf("Expected name from latest record, got %q", groups[0].DoctorName)
	}
}

func TestForPatient(t *testing.T) {
	a := rec(1, 10, "active", "2024-01-01")
	b := rec(2, 10, "active", "2024-01-02")
	b.PatientIdentifier = "other"

	filtered := ForPatient([]entities.Prescription{a, b}, "199012345678")
	if len(filtered) != 1 || filtered[0].ID != 1 {
		t.Errorf("Expected only record 1, got %v", ids(filtered))
	}

	if got := ForPatient(nil, "x"); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", got)
	}
}

func TestFind(t *testing.T) {
	groups := Group([]entities.Prescription{rec(1, 10, "active", "2024-01-01")})

	if _, ok := Find(groups, 10); !ok {
		t.Error("Expected to find doctor 10")
	}
	if _, ok := Find(groups, 99); ok {
		t.Error("Did not expect to find doctor 99")
	}
}

func TestNewestFirst(t *testing.T) {
	records := []entities.Prescription{
		{ID: 1, IssuedAt: "2024-01-01"},
		{ID: 2, IssuedAt: "bogus"},
		{ID: 3, IssuedAt: "2024-03-01"},
		{ID: 4, IssuedAt: "2024-01-01"},
	}

	got := NewestFirst(records)

	want := []int{3, 1, 4, 2}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("NewestFirst order = %v, want %v", ids(got), want)
		}
	}
	if records[0].ID != 1 || records[2].ID != 3 {
		t.Error("NewestFirst must not reorder the input")
	}
	if out := NewestFirst(nil); out == nil || len(out) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", out)
	}
}

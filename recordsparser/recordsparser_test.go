package recordsparser

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giygas/prescriptions-api/recordsparser/entities"
)

const header = "id\tdrug\tdosage\tfrequency\tduration\tinstructions\tnotes\tdoctor_id\tdoctor_name\tpatient\tissued_at\tstatus"

func row(fields ...string) string {
	return strings.Join(fields, "\t")
}

func sampleExport() string {
	return strings.Join([]string{
		header,
		row("1", "Amoxicillin", "500mg", "3x/day", "7 days", "After meals", "", "10", "Dr. Perera", "901234567V", "2024-03-01T10:00:00Z", "Active"),
		row("2", "Paracetamol", "1g", "as needed", "", "", "Max 4/day", "20", "Dr. Silva", "901234567V", "2024-02-01", "COMPLETED"),
		"",
		row("3", "too", "few", "columns"),
		row("x", "Bad", "", "", "", "", "", "10", "Dr. Perera", "P", "2024-01-01", "active"),
		row("4", "Bad doctor", "", "", "", "", "", "ten", "Dr. Perera", "P", "2024-01-01", "active"),
		row("5", "Ibuprofen", "200mg", "", "", "", "", "10", "Dr. Perera", "P2", "2024-01-01", "on hold"),
	}, "\n")
}

func TestParseRecords(t *testing.T) {
	records, stats, err := parseRecords(strings.NewReader(sampleExport()))
	if err != nil {
		t.Fatalf("parseRecords: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d: %+v", len(records), records)
	}
	if stats.EmptyLines != 1 || stats.MissingColumns != 1 || stats.FormatErrors != 2 {
		t.Errorf("Unexpected skip stats: %+v", stats)
	}

	first := records[0]
	if first.ID != 1 || first.DrugName != "Amoxicillin" || first.DoctorID != 10 ||
		first.PatientIdentifier != "901234567V" || first.Status != entities.StatusActive {
		t.Errorf("Unexpected first record: %+v", first)
	}
	if records[1].Notes != "Max 4/day" || records[1].Status != entities.StatusCompleted {
		t.Errorf("Unexpected second record: %+v", records[1])
	}
	if records[2].Status != entities.StatusOther {
		t.Errorf("Unknown status should normalise to other, got %q", records[2].Status)
	}
}

func TestParseRecordsWithoutHeader(t *testing.T) {
	input := row("7", "Drug", "", "", "", "", "", "1", "Dr", "P", "2024-01-01", "active") + "\r\n"
	records, _, err := parseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID != 7 || records[0].Status != entities.StatusActive {
		t.Errorf("Unexpected records: %+v", records)
	}
}

func TestParseRecordsEmpty(t *testing.T) {
	records, _, err := parseRecords(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", records)
	}
}

func TestDecodeWindows1252(t *testing.T) {
	body := []byte("Dr. Ren\xe9")
	got, err := io.ReadAll(decode(body))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Dr. René" {
		t.Errorf("Expected Windows-1252 decoding, got %q", got)
	}

	utf := []byte("Dr. René")
	got, _ = io.ReadAll(decode(utf))
	if string(got) != "Dr. René" {
		t.Errorf("UTF-8 input should pass through, got %q", got)
	}
}

func TestLoadRecordsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.tsv")
	if err := os.WriteFile(path, []byte(sampleExport()), 0600); err != nil {
		t.Fatal(err)
	}

	records, err := NewRecordsParser(path).LoadRecords(context.Background())
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("Expected 3 records, got %d", len(records))
	}
}

func TestLoadRecordsFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/export.tsv" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, sampleExport())
	}))
	defer srv.Close()

	records, err := NewRecordsParser(srv.URL + "/export.tsv").LoadRecords(context.Background())
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("Expected 3 records, got %d", len(records))
	}

	if _, err := NewRecordsParser(srv.URL + "/missing").LoadRecords(context.Background()); err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestLoadRecordsErrors(t *testing.T) {
	if _, err := NewRecordsParser("").LoadRecords(context.Background()); err == nil {
		t.Error("Expected error for empty location")
	}
	if _, err := NewRecordsParser(filepath.Join(t.TempDir(), "nope.tsv")).LoadRecords(context.Background()); err == nil {
		t.Error("Expected error for missing file")
	}
}

package entities

import (
	"encoding/json"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected Status
	}{
		{"active", StatusActive},
		{"Active", StatusActive},
		{"  COMPLETED ", StatusCompleted},
		{"cancelled", StatusCancelled},
		{"canceled", StatusOther},
		{"on-hold", StatusOther},
		{"", StatusOther},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseStatus(tt.raw); got != tt.expected {
				t.Errorf("ParseStatus(%q) = %q, expected %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestIsKnownStatus(t *testing.T) {
	if !IsKnownStatus("Other") {
		t.Error("Expected 'Other' to be known")
	}
	if IsKnownStatus("paused") {
		t.Error("Expected 'paused' to be unknown")
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusCancelled.Label(); got != "Cancelled" {
		t.Errorf("Expected Cancelled, got %s", got)
	}
	if got := Status("").Label(); got != "" {
		t.Errorf("Expected empty label, got %q", got)
	}
}

func TestStatusUnmarshalJSON(t *testing.T) {
	var p Prescription
	if err := json.Unmarshal([]byte(`{"id":4,"status":"ACTIVE"}`), &p); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.Status != StatusActive {
		t.Errorf("Expected active, got %q", p.Status)
	}

	if err := json.Unmarshal([]byte(`{"status":"weird"}`), &p); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.Status != StatusOther {
		t.Errorf("Expected other, got %q", p.Status)
	}
}

func TestIssuedTime(t *testing.T) {
	tests := []struct {
		raw    string
		wantOK bool
		year   int
	}{
		{"2024-03-01", true, 2024},
		{"2024-03-01T10:15:00Z", true, 2024},
		{"2024-03-01T10:15:00.123+05:30", true, 2024},
		{"2024-03-01 10:15:00", true, 2024},
		{"2024-03-01T10:15:00", true, 2024},
		{"01/03/2024", false, 0},
		{"", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Prescription{IssuedAt: tt.raw}.IssuedTime()
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && got.Year() != tt.year {
				t.Errorf("Expected year %d, got %d", tt.year, got.Year())
			}
		})
	}
}

func TestStyleForStatusIsTotal(t *testing.T) {
	if got := StyleForStatus(StatusActive); got.Background != "bg-green-100" {
		t.Errorf("Unexpected active style: %+v", got)
	}
	unknown := StyleForStatus(Status("paused"))
	if unknown != StyleForStatus(StatusOther) {
		t.Errorf("Expected unknown status to use the other style, got %+v", unknown)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := map[string]Severity{
		"":        SeverityDanger,
		"danger":  SeverityDanger,
		"Warning": SeverityWarning,
		"info":    SeverityInfo,
		"loud":    SeverityInfo,
	}
	for raw, expected := range tests {
		if got := ParseSeverity(raw); got != expected {
			t.Errorf("ParseSeverity(%q) = %q, expected %q", raw, got, expected)
		}
	}

	if StyleForSeverity(Severity("nope")) != StyleForSeverity(SeverityInfo) {
		t.Error("Expected unknown severity to fall back to info style")
	}
	if StyleForSeverity(SeverityDanger).Icon != "🚨" {
		t.Error("Expected danger icon")
	}
}

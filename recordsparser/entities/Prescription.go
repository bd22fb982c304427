package entities

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the normalised lifecycle state of a prescription.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusOther     Status = "other"
)

// ParseStatus maps an upstream status string onto the closed Status set.
// Matching is case-insensitive; anything unrecognised becomes StatusOther.
func ParseStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusActive:
		return StatusActive
	case StatusCompleted:
		return StatusCompleted
	case StatusCancelled:
		return StatusCancelled
	default:
		return StatusOther
	}
}

// IsKnownStatus reports whether raw names one of the recognised statuses.
func IsKnownStatus(raw string) bool {
	return ParseStatus(raw) != StatusOther || strings.EqualFold(strings.TrimSpace(raw), string(StatusOther))
}

// Label returns the capitalised form shown on status badges.
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// UnmarshalJSON normalises the incoming status.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseStatus(raw)
	return nil
}

// issuedAtLayouts are tried in order when reading IssuedAt.
var issuedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Prescription is a single prescription as delivered by the records source.
type Prescription struct {
	ID                int    `json:"id"`
	DrugName          string `json:"drugName"`
	Dosage            string `json:"dosage"`
	Frequency         string `json:"frequency"`
	Duration          string `json:"duration"`
	Instructions      string `json:"instructions"`
	Notes             string `json:"notes,omitempty"`
	DoctorID          int    `json:"doctorId"`
	DoctorName        string `json:"doctorName"`
	PatientIdentifier string `json:"patientIdentifier"`
	IssuedAt          string `json:"issuedAt"`
	Status            Status `json:"status"`
}

// IssuedTime parses IssuedAt. ok is false when the value cannot be parsed.
func (p Prescription) IssuedTime() (t time.Time, ok bool) {
	raw := strings.TrimSpace(p.IssuedAt)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range issuedAtLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

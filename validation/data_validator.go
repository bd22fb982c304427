// Package validation checks loaded prescription records and the identifiers
// clients send to the API.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/recordsparser/entities"
)

// Compiled once at package initialization
var (
	patientIdentifierRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-]{0,31}$`)
	viewerIDRegex          = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,64}$`)

	// strings.Contains is faster than regex for plain substrings
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
	}
)

const (
	maxInputLength   = 64
	maxDrugNameLen   = 200
	maxFreeTextLen   = 1000
	maxIDDigits      = 10
	reportSampleSize = 10
)

// DataValidatorImpl implements interfaces.RecordValidator
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.RecordValidator {
	return &DataValidatorImpl{}
}

// ValidateRecord checks a single prescription. Timestamps and statuses are
// normalised elsewhere and never make a record invalid.
func (v *DataValidatorImpl) ValidateRecord(p *entities.Prescription) error {
	if p == nil {
		return fmt.Errorf("prescription is nil")
	}

	if p.ID <= 0 {
		return fmt.Errorf("invalid prescription id: %d", p.ID)
	}

	if p.DoctorID <= 0 {
		return fmt.Errorf("invalid doctor id %d for prescription %d", p.DoctorID, p.ID)
	}

	if strings.TrimSpace(p.DrugName) == "" {
		return fmt.Errorf("empty drug name for prescription %d", p.ID)
	}

	if len(p.DrugName) > maxDrugNameLen {
		return fmt.Errorf("drug name too long for prescription %d: %d characters", p.ID, len(p.DrugName))
	}

	for name, text := range map[string]string{"instructions": p.Instructions, "notes": p.Notes} {
		if len(text) > maxFreeTextLen {
			return fmt.Errorf("%s too long for prescription %d: %d characters", name, p.ID, len(text))
		}
	}

	return nil
}

// ReportDataQuality summarises anomalies in a freshly loaded record set.
func (v *DataValidatorImpl) ReportDataQuality(records []entities.Prescription) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateIDs:           []int{},
		UnparsableIssuedAtIDs:  []int{},
		UnknownStatusIDs:       []int{},
		ConflictingDoctorNames: []int{},
	}

	// Check 1: duplicate IDs, each reported once
	seen := make(map[int]int, len(records))
	for _, rec := range records {
		seen[rec.ID]++
		if seen[rec.ID] == 2 {
			report.DuplicateIDs = append(report.DuplicateIDs, rec.ID)
		}
	}

	// Check 2: unparsable timestamps (store first 10 IDs)
	for _, rec := range records {
		if _, ok := rec.IssuedTime(); !ok {
			report.UnparsableIssuedAt++
			if len(report.UnparsableIssuedAtIDs) < reportSampleSize {
				report.UnparsableIssuedAtIDs = append(report.UnparsableIssuedAtIDs, rec.ID)
			}
		}
	}

	// Check 3: statuses that normalised to other (store first 10 IDs)
	for _, rec := range records {
		if rec.Status == entities.StatusOther {
			report.UnknownStatuses++
			if len(report.UnknownStatusIDs) < reportSampleSize {
				report.UnknownStatusIDs = append(report.UnknownStatusIDs, rec.ID)
			}
		}
	}

	// Check 4: doctors seen under more than one name
	names := make(map[int]string)
	conflicting := make(map[int]bool)
	for _, rec := range records {
		name, ok := names[rec.DoctorID]
		if !ok {
			names[rec.DoctorID] = rec.DoctorName
			continue
		}
		if name != rec.DoctorName && !conflicting[rec.DoctorID] {
			conflicting[rec.DoctorID] = true
			report.ConflictingDoctorNames = append(report.ConflictingDoctorNames, rec.DoctorID)
		}
	}

	// Check 5: records nobody can see
	for _, rec := range records {
		if strings.TrimSpace(rec.PatientIdentifier) == "" {
			report.MissingPatientIdentifier++
		}
	}

	if len(report.DuplicateIDs) > 0 {
		logging.Error("Duplicate prescription ids detected",
			"count", len(report.DuplicateIDs),
			"duplicates", report.DuplicateIDs,
		)
	}

	return report
}

// ValidateTypedPhrase checks a confirmation phrase as typed. Only length and
// control characters are checked. Empty input is allowed.
func (v *DataValidatorImpl) ValidateTypedPhrase(input string) error {
	if len(input) > maxInputLength {
		return fmt.Errorf("input too long: maximum %d characters", maxInputLength)
	}

	for _, r := range input {
		if unicode.IsControl(r) {
			return fmt.Errorf("input contains control characters")
		}
	}
	return nil
}

// ValidateInput checks free text typed by a user that is stored or echoed.
// Empty input is allowed.
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if err := v.ValidateTypedPhrase(input); err != nil {
		return err
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateRecordID parses a prescription id path parameter.
func (v *DataValidatorImpl) ValidateRecordID(input string) (int, error) {
	return v.positiveID("prescription id", input)
}

// ValidateDoctorID parses a doctor id path parameter.
func (v *DataValidatorImpl) ValidateDoctorID(input string) (int, error) {
	return v.positiveID("doctor id", input)
}

// ValidatePatientIdentifier accepts national identity style values:
// letters, digits and hyphens, at most 32 characters.
func (v *DataValidatorImpl) ValidatePatientIdentifier(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("patient identifier cannot be empty")
	}
	if !patientIdentifierRegex.MatchString(input) {
		return fmt.Errorf("patient identifier contains invalid characters")
	}
	return nil
}

// ValidateViewerID accepts opaque client generated session keys.
func (v *DataValidatorImpl) ValidateViewerID(input string) error {
	if input == "" {
		return fmt.Errorf("viewer id cannot be empty")
	}
	if !viewerIDRegex.MatchString(input) {
		return fmt.Errorf("viewer id must be 1-64 letters, digits, underscores or hyphens")
	}
	return nil
}

// No regex used - strconv.Atoi() validates numeric format
func (v *DataValidatorImpl) positiveID(name, input string) (int, error) {
	trimmedInput := strings.TrimSpace(input)
	if trimmedInput == "" {
		return -1, fmt.Errorf("%s cannot be empty", name)
	}

	// Reject if original input contained whitespace
	if len(input) != len(trimmedInput) {
		return -1, fmt.Errorf("%s contains invalid characters. Only numeric characters are allowed", name)
	}

	if len(trimmedInput) > maxIDDigits {
		return -1, fmt.Errorf("%s too long: maximum %d digits", name, maxIDDigits)
	}

	for _, r := range trimmedInput {
		if r < '0' || r > '9' {
			return -1, fmt.Errorf("%s contains invalid characters. Only numeric characters are allowed", name)
		}
	}

	id, err := strconv.Atoi(trimmedInput)
	if err != nil {
		return -1, fmt.Errorf("%s contains invalid characters. Only numeric characters are allowed", name)
	}
	if id <= 0 {
		return -1, fmt.Errorf("%s must be positive", name)
	}

	return id, nil
}

// hasExcessiveRepetition checks for the same character repeated more than 10 times consecutively
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}

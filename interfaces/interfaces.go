// Package interfaces defines the core abstractions of the prescriptions API
// so stores, sources and handlers can be swapped and mocked in tests.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/prescriptions-api/recordsparser/entities"
)

// DataQualityReport summarises problems found in a records snapshot.
// None of them prevent the snapshot from being served.
type DataQualityReport struct {
	DuplicateIDs             []int
	UnparsableIssuedAt       int
	UnparsableIssuedAtIDs    []int // First 10 only
	UnknownStatuses          int
	UnknownStatusIDs         []int // First 10 only
	ConflictingDoctorNames   []int // Doctor IDs seen with more than one name
	MissingPatientIdentifier int
}

// RecordStore gives thread-safe access to the current prescriptions snapshot.
type RecordStore interface {
	GetRecords() []entities.Prescription
	RecordsForPatient(patientIdentifier string) []entities.Prescription
	RecordByID(id int) (entities.Prescription, bool)
	RemoveRecord(id int) error
	GetDataQualityReport() *DataQualityReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateData(records []entities.Prescription, report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// RecordSource fetches the upstream prescriptions export.
type RecordSource interface {
	LoadRecords(ctx context.Context) ([]entities.Prescription, error)
}

// Scheduler manages the periodic refresh and housekeeping jobs.
type Scheduler interface {
	Start() error
	Stop()
}

// SessionSweeper drops abandoned confirmation sessions.
type SessionSweeper interface {
	Sweep(maxAge time.Duration) int
}

// HTTPHandler is the contract for the HTTP endpoints.
type HTTPHandler interface {
	ListPrescriptions(w http.ResponseWriter, r *http.Request)
	ListPrescriptionGroups(w http.ResponseWriter, r *http.Request)
	ToggleGroup(w http.ResponseWriter, r *http.Request)
	ViewPrescription(w http.ResponseWriter, r *http.Request)
	ViewAllInGroup(w http.ResponseWriter, r *http.Request)
	OpenRemoval(w http.ResponseWriter, r *http.Request)
	UpdateRemovalInput(w http.ResponseWriter, r *http.Request)
	ConfirmRemoval(w http.ResponseWriter, r *http.Request)
	CloseRemoval(w http.ResponseWriter, r *http.Request)
	ReportViolation(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports service health.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
	CalculateNextUpdate() time.Time
}

// RecordValidator checks records and user supplied identifiers.
type RecordValidator interface {
	ValidateRecord(p *entities.Prescription) error
	ReportDataQuality(records []entities.Prescription) *DataQualityReport
	ValidateInput(input string) error
	ValidateTypedPhrase(input string) error
	ValidateRecordID(input string) (int, error)
	ValidateDoctorID(input string) (int, error)
	ValidatePatientIdentifier(input string) error
	ValidateViewerID(input string) error
}

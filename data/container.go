// Package data provides the thread-safe prescriptions snapshot used by the API.
// Snapshots are swapped atomically so readers never see a partial refresh,
// and removals replace the snapshot copy-on-write.
package data

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/metrics"
	"github.com/giygas/prescriptions-api/recordsparser/entities"
)

// ErrRecordNotFound is returned when removing a prescription that is not in the snapshot.
var ErrRecordNotFound = errors.New("prescription not found")

// Compile-time check to ensure RecordContainer implements RecordStore
var _ interfaces.RecordStore = (*RecordContainer)(nil)

// snapshot is immutable once stored.
type snapshot struct {
	records []entities.Prescription
	byID    map[int]int // record ID -> index in records
}

func newSnapshot(records []entities.Prescription) *snapshot {
	byID := make(map[int]int, len(records))
	for i, rec := range records {
		if _, dup := byID[rec.ID]; !dup {
			byID[rec.ID] = i
		}
	}
	return &snapshot{records: records, byID: byID}
}

// RecordContainer holds the current prescriptions snapshot.
type RecordContainer struct {
	current         atomic.Pointer[snapshot]
	report          atomic.Pointer[interfaces.DataQualityReport]
	lastUpdated     atomic.Value // time.Time
	serverStartTime atomic.Value // time.Time
	updating        atomic.Bool

	// writeMu serialises writers (refresh and removal); readers never take it.
	writeMu sync.Mutex
	// removed holds the IDs dropped by RemoveRecord. Guarded by writeMu.
	removed map[int]struct{}
}

// NewRecordContainer creates an empty container.
func NewRecordContainer() *RecordContainer {
	rc := &RecordContainer{removed: make(map[int]struct{})}
	rc.current.Store(newSnapshot(make([]entities.Prescription, 0)))
	rc.report.Store(&interfaces.DataQualityReport{})
	rc.lastUpdated.Store(time.Time{})
	rc.serverStartTime.Store(time.Time{})
	return rc
}

// GetRecords returns every prescription in the snapshot. Callers must not modify it.
func (rc *RecordContainer) GetRecords() []entities.Prescription {
	if s := rc.current.Load(); s != nil {
		return s.records
	}
	logging.Warn("Records snapshot is empty or invalid")
	return []entities.Prescription{}
}

// RecordsForPatient returns the prescriptions issued to one patient, in snapshot order.
func (rc *RecordContainer) RecordsForPatient(patientIdentifier string) []entities.Prescription {
	out := make([]entities.Prescription, 0)
	for _, rec := range rc.GetRecords() {
		if rec.PatientIdentifier == patientIdentifier {
			out = append(out, rec)
		}
	}
	return out
}

// RecordByID looks a prescription up by ID.
func (rc *RecordContainer) RecordByID(id int) (entities.Prescription, bool) {
	s := rc.current.Load()
	if s == nil {
		return entities.Prescription{}, false
	}
	idx, ok := s.byID[id]
	if !ok {
		return entities.Prescription{}, false
	}
	return s.records[idx], true
}

// RemoveRecord drops one prescription from the snapshot. Every record
// carrying the ID is removed so a duplicated upstream row cannot linger, and
// the ID stays excluded from later refreshes.
func (rc *RecordContainer) RemoveRecord(id int) error {
	rc.writeMu.Lock()
	defer rc.writeMu.Unlock()

	s := rc.current.Load()
	if _, ok := s.byID[id]; !ok {
		return ErrRecordNotFound
	}

	next := make([]entities.Prescription, 0, len(s.records)-1)
	for _, rec := range s.records {
		if rec.ID != id {
			next = append(next, rec)
		}
	}

	rc.removed[id] = struct{}{}
	rc.current.Store(newSnapshot(next))
	metrics.RecordsLoaded.Set(float64(len(next)))
	logging.Info("Prescription removed", "prescription_id", id, "remaining", len(next))
	return nil
}

// GetDataQualityReport returns the report computed for the current snapshot.
func (rc *RecordContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	if r := rc.report.Load(); r != nil {
		return r
	}
	return &interfaces.DataQualityReport{}
}

// GetLastUpdated returns the timestamp of the last refresh.
func (rc *RecordContainer) GetLastUpdated() time.Time {
	if v, ok := rc.lastUpdated.Load().(time.Time); ok {
		return v
	}
	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true while a refresh is in progress.
func (rc *RecordContainer) IsUpdating() bool {
	return rc.updating.Load()
}

// SetServerStartTime sets the server start time
func (rc *RecordContainer) SetServerStartTime(startTime time.Time) {
	rc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (rc *RecordContainer) GetServerStartTime() time.Time {
	if v, ok := rc.serverStartTime.Load().(time.Time); ok {
		return v
	}
	return time.Time{}
}

// UpdateData replaces the snapshot atomically. Previously removed
// prescriptions are filtered out of records.
func (rc *RecordContainer) UpdateData(records []entities.Prescription, report *interfaces.DataQualityReport) {
	if report == nil {
		report = &interfaces.DataQualityReport{}
	}

	rc.writeMu.Lock()
	records = rc.withoutRemoved(records)
	rc.current.Store(newSnapshot(records))
	rc.report.Store(report)
	rc.lastUpdated.Store(time.Now())
	rc.writeMu.Unlock()

	metrics.RecordsLoaded.Set(float64(len(records)))
}

// withoutRemoved returns records minus removed IDs. Caller holds writeMu.
func (rc *RecordContainer) withoutRemoved(records []entities.Prescription) []entities.Prescription {
	kept := make([]entities.Prescription, 0, len(records))
	dropped := 0
	for _, rec := range records {
		if _, gone := rc.removed[rec.ID]; gone {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}
	if dropped > 0 {
		logging.Info("Removed prescriptions filtered from refresh", "count", dropped)
	}
	return kept
}

// BeginUpdate returns false when another refresh is already running.
func (rc *RecordContainer) BeginUpdate() bool {
	return rc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a refresh.
func (rc *RecordContainer) EndUpdate() {
	rc.updating.Store(false)
}

// Package grouping turns a flat list of prescriptions into per-doctor groups
// with summary statistics and a deterministic ordering.
package grouping

import (
	"cmp"
	"slices"
	"time"

	"github.com/giygas/prescriptions-api/recordsparser/entities"
)

// issueKey is a parsed IssuedAt. Unparsable timestamps sort after every parsable one.
type issueKey struct {
	at time.Time
	ok bool
}

func keyOf(p entities.Prescription) issueKey {
	t, ok := p.IssuedTime()
	return issueKey{at: t, ok: ok}
}

// newerFirst orders a before b when a was issued later.
func newerFirst(a, b issueKey) int {
	switch {
	case a.ok && !b.ok:
		return -1
	case !a.ok && b.ok:
		return 1
	case !a.ok && !b.ok:
		return 0
	}
	return b.at.Compare(a.at)
}

// Group partitions records by doctor. Inside a group records are sorted newest
// first, keeping input order for equal timestamps; groups are ordered by their
// latest record, newest first, then by doctor ID. The input slice is left untouched.
func Group(records []entities.Prescription) []entities.PrescriptionGroup {
	if len(records) == 0 {
		return []entities.PrescriptionGroup{}
	}

	type partition struct {
		records []entities.Prescription
		keys    []issueKey
	}

	partitions := make(map[int]*partition)
	order := make([]int, 0)
	for _, rec := range records {
		part, exists := partitions[rec.DoctorID]
		if !exists {
			part = &partition{}
			partitions[rec.DoctorID] = part
			order = append(order, rec.DoctorID)
		}
		part.records = append(part.records, rec)
		part.keys = append(part.keys, keyOf(rec))
	}

	groups := make([]entities.PrescriptionGroup, 0, len(order))
	latestKeys := make(map[int]issueKey, len(order))

	for _, doctorID := range order {
		part := partitions[doctorID]

		idx := make([]int, len(part.records))
		for i := range idx {
			idx[i] = i
		}
		slices.SortStableFunc(idx, func(a, b int) int {
			return newerFirst(part.keys[a], part.keys[b])
		})

		sorted := make([]entities.Prescription, len(idx))
		active := 0
		for i, j := range idx {
			sorted[i] = part.records[j]
			if sorted[i].Status == entities.StatusActive {
				active++
			}
		}

		latest := sorted[0]
		latestKeys[doctorID] = part.keys[idx[0]]

		groups = append(groups, entities.PrescriptionGroup{
			DoctorID:    doctorID,
			DoctorName:  latest.DoctorName,
			Records:     sorted,
			Latest:      latest,
			ActiveCount: active,
			TotalCount:  len(sorted),
		})
	}

	slices.SortFunc(groups, func(a, b entities.PrescriptionGroup) int {
		if c := newerFirst(latestKeys[a.DoctorID], latestKeys[b.DoctorID]); c != 0 {
			return c
		}
		return cmp.Compare(a.DoctorID, b.DoctorID)
	})

	return groups
}

// ForPatient keeps only the records issued to patientIdentifier, in input order.
func ForPatient(records []entities.Prescription, patientIdentifier string) []entities.Prescription {
	filtered := make([]entities.Prescription, 0)
	for _, rec := range records {
		if rec.PatientIdentifier == patientIdentifier {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// Find returns the group for doctorID.
func Find(groups []entities.PrescriptionGroup, doctorID int) (entities.PrescriptionGroup, bool) {
	for _, g := range groups {
		if g.DoctorID == doctorID {
			return g, true
		}
	}
	return entities.PrescriptionGroup{}, false
}

// NewestFirst returns a copy of records sorted by issue time, newest first,
// with the same tie and unparsable-timestamp rules as Group.
func NewestFirst(records []entities.Prescription) []entities.Prescription {
	keys := make([]issueKey, len(records))
	idx := make([]int, len(records))
	for i, rec := range records {
		keys[i] = keyOf(rec)
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return newerFirst(keys[a], keys[b])
	})

	sorted := make([]entities.Prescription, len(idx))
	for i, j := range idx {
		sorted[i] = records[j]
	}
	return sorted
}

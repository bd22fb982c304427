// Package secureview decides which prescriptions are visible for a group and
// routes every view through a Viewer so records are only ever displayed in
// the protected viewer.
package secureview

import "github.com/giygas/prescriptions-api/recordsparser/entities"

// Expansion maps a group key (DoctorID) to its expanded flag. Missing keys
// are collapsed. Values are never mutated in place.
type Expansion map[int]bool

// IsExpanded defaults to false for unknown keys.
func (e Expansion) IsExpanded(key int) bool {
	return e[key]
}

// Toggle returns a copy of e with exactly key flipped.
func (e Expansion) Toggle(key int) Expansion {
	next := make(Expansion, len(e)+1)
	for k, v := range e {
		next[k] = v
	}
	next[key] = !e[key]
	return next
}

// VisibleRecords returns all records of an expanded group, otherwise only the latest one.
func VisibleRecords(group entities.PrescriptionGroup, expanded bool) []entities.Prescription {
	if expanded {
		return append([]entities.Prescription(nil), group.Records...)
	}
	return []entities.Prescription{group.Latest}
}

package secureview

import (
	"context"
	"sync"
	"time"

	"github.com/giygas/prescriptions-api/recordsparser/entities"
)

// Viewer displays a record in the protected viewer. Calls are fire and forget.
type Viewer interface {
	ViewRecord(ctx context.Context, record entities.Prescription)
}

// ViolationReporter records blocked extraction attempts.
type ViolationReporter interface {
	ReportViolation(ctx context.Context, v Violation)
}

// Gate holds the expansion state of each viewer and forwards view intents.
type Gate struct {
	viewer   Viewer
	reporter ViolationReporter

	mu         sync.Mutex
	expansions map[string]Expansion
}

// NewGate wires a Gate to its collaborators.
func NewGate(viewer Viewer, reporter ViolationReporter) *Gate {
	return &Gate{
		viewer:     viewer,
		reporter:   reporter,
		expansions: make(map[string]Expansion),
	}
}

// Expansion returns the current state for viewerID. The result must not be modified.
func (g *Gate) Expansion(viewerID string) Expansion {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.expansions[viewerID]; ok {
		return e
	}
	return Expansion{}
}

// Toggle flips one group for viewerID and returns the new flag.
func (g *Gate) Toggle(viewerID string, key int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := g.expansions[viewerID].Toggle(key)
	g.expansions[viewerID] = next
	return next[key]
}

// Forget drops the state of viewerID.
func (g *Gate) Forget(viewerID string) {
	g.mu.Lock()
	delete(g.expansions, viewerID)
	g.mu.Unlock()
}

// View routes a view intent to the viewer, whatever the expansion state.
func (g *Gate) View(ctx context.Context, record entities.Prescription) {
	g.viewer.ViewRecord(ctx, record)
}

// ViewAllAvailable reports whether the view-all action is offered for group.
func ViewAllAvailable(group entities.PrescriptionGroup) bool {
	return group.TotalCount > 1
}

// ViewAll emits one view intent per record, newest first. It returns false
// without viewing anything when the group has a single record.
func (g *Gate) ViewAll(ctx context.Context, group entities.PrescriptionGroup) bool {
	if !ViewAllAvailable(group) {
		return false
	}
	ctx = WithMode(ctx, ModeAll)
	for _, rec := range group.Records {
		g.viewer.ViewRecord(ctx, rec)
	}
	return true
}

// ReportViolation normalises v and forwards it.
func (g *Gate) ReportViolation(ctx context.Context, v Violation) {
	v.Type = ParseViolationType(string(v.Type))
	if v.OccurredAt.IsZero() {
		v.OccurredAt = time.Now().UTC()
	}
	g.reporter.ReportViolation(ctx, v)
}

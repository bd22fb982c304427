package secureview

import (
	"context"

	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/metrics"
	"github.com/giygas/prescriptions-api/recordsparser/entities"
	"github.com/go-chi/chi/v5/middleware"
)

// AuditLog is the Viewer and ViolationReporter used by the service. It writes
// an audit line per event and counts it.
type AuditLog struct{}

func (AuditLog) ViewRecord(ctx context.Context, record entities.Prescription) {
	mode, _ := ctx.Value(viewModeKey{}).(string)
	if mode == "" {
		mode = ModeSingle
	}
	metrics.SecureViews.WithLabelValues(mode).Inc()
	logging.Info("Secure view",
		"request_id", middleware.GetReqID(ctx),
		"mode", mode,
		"prescription_id", record.ID,
		"doctor_id", record.DoctorID,
		"patient", record.PatientIdentifier,
	)
}

func (AuditLog) ReportViolation(ctx context.Context, v Violation) {
	metrics.SecurityViolations.WithLabelValues(string(v.Type)).Inc()
	logging.Warn("Security violation",
		"request_id", middleware.GetReqID(ctx),
		"type", v.Type,
		"patient", v.PatientIdentifier,
		"occurred_at", v.OccurredAt,
		"user_agent", v.UserAgent,
		"remote_addr", v.RemoteAddr,
	)
}

// View modes used as the secure view metric label.
const (
	ModeSingle = "single"
	ModeAll    = "all"
)

type viewModeKey struct{}

// WithMode tags ctx so the audit line records how the view was requested.
func WithMode(ctx context.Context, mode string) context.Context {
	return context.WithValue(ctx, viewModeKey{}, mode)
}

package confirm

import (
	"context"

	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/metrics"
)

// LogReporter logs failed actions and counts them.
type LogReporter struct{}

func (LogReporter) ReportActionError(ctx context.Context, session Snapshot, err error) {
	metrics.ConfirmationActionFailures.Inc()
	logging.Error("Confirmed action failed",
		"session_id", session.ID,
		"title", session.Title,
		"severity", session.Severity,
		"error", err,
	)
}

// Package health reports whether the service holds fresh prescription data.
package health

import (
	"math"
	"net/http"
	"slices"
	"time"

	"github.com/giygas/prescriptions-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store            interfaces.RecordStore
	refreshTimes     []string
	sourceConfigured bool
	now              func() time.Time
}

// NewHealthChecker creates a new health checker. Without a configured source
// the record set is expected to be empty and freshness is not checked.
func NewHealthChecker(store interfaces.RecordStore, refreshTimes []string, sourceConfigured bool) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		store:            store,
		refreshTimes:     refreshTimes,
		sourceConfigured: sourceConfigured,
		now:              time.Now,
	}
}

// HealthCheck returns the status, details for the /health body and the HTTP code
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	records := h.store.GetRecords()
	lastUpdate := h.store.GetLastUpdated()
	isUpdating := h.store.IsUpdating()

	dataAge := h.now().Sub(lastUpdate)

	switch {
	case !h.sourceConfigured:
		status = "healthy"
		httpStatus = http.StatusOK

	case len(records) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > 6*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"records":           len(records),
		"is_updating":       isUpdating,
		"source_configured": h.sourceConfigured,
	}
	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
		data["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
	}
	if h.sourceConfigured {
		data["next_update"] = h.CalculateNextUpdate().Format(time.RFC3339)
	}
	if start := h.store.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = int64(h.now().Sub(start).Seconds())
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next configured refresh time. Malformed
// entries are ignored; with none left it falls back to 06:00 and 18:00.
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := h.now()

	var minutes []int
	for _, raw := range h.refreshTimes {
		t, err := time.Parse("15:04", raw)
		if err != nil {
			continue
		}
		minutes = append(minutes, t.Hour()*60+t.Minute())
	}
	if len(minutes) == 0 {
		minutes = []int{6 * 60, 18 * 60}
	}
	slices.Sort(minutes)

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, m := range minutes {
		candidate := midnight.Add(time.Duration(m) * time.Minute)
		if now.Before(candidate) {
			return candidate
		}
	}

	first := midnight.AddDate(0, 0, 1)
	return first.Add(time.Duration(minutes[0]) * time.Minute)
}

package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/giygas/prescriptions-api/confirm"
	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/giygas/prescriptions-api/secureview"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// RemovalOptions configures the confirmation dialog opened for a removal.
type RemovalOptions struct {
	ConfirmPhrase string
	RequireTyping bool
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	store     interfaces.RecordStore
	validator interfaces.RecordValidator
	health    interfaces.HealthChecker
	gate      *secureview.Gate
	confirmer *confirm.Confirmer
	sessions  *confirm.Registry
	removal   RemovalOptions
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	store interfaces.RecordStore,
	validator interfaces.RecordValidator,
	health interfaces.HealthChecker,
	gate *secureview.Gate,
	confirmer *confirm.Confirmer,
	sessions *confirm.Registry,
	removal RemovalOptions,
) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		store:     store,
		validator: validator,
		health:    health,
		gate:      gate,
		confirmer: confirmer,
		sessions:  sessions,
		removal:   removal,
	}
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Uptime string         `json:"uptime"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.health.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	details["sessions_open"] = h.sessions.Len()

	var uptime time.Duration
	if start := h.store.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	response := HealthResponse{
		Status: status,
		Uptime: formatUptimeHuman(uptime),
		Data:   details,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	}

	RespondWithJSON(w, httpStatus, response)
}

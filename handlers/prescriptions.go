package handlers

import (
	"net/http"

	"github.com/giygas/prescriptions-api/grouping"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/recordsparser/entities"
	"github.com/giygas/prescriptions-api/secureview"
	"github.com/go-chi/chi/v5"
)

// recordView is a prescription with its status badge.
type recordView struct {
	entities.Prescription
	Style entities.StatusStyle `json:"style"`
}

func toRecordViews(records []entities.Prescription) []recordView {
	views := make([]recordView, len(records))
	for i, rec := range records {
		views[i] = recordView{Prescription: rec, Style: entities.StyleForStatus(rec.Status)}
	}
	return views
}

// groupView is one doctor group as rendered for a viewer.
type groupView struct {
	DoctorID         int          `json:"doctorId"`
	DoctorName       string       `json:"doctorName"`
	ActiveCount      int          `json:"activeCount"`
	TotalCount       int          `json:"totalCount"`
	Expanded         bool         `json:"expanded"`
	ViewAllAvailable bool         `json:"viewAllAvailable"`
	Latest           recordView   `json:"latest"`
	Records          []recordView `json:"records"`
}

// ListPrescriptions returns a patient's prescriptions, newest first
func (h *HTTPHandlerImpl) ListPrescriptions(w http.ResponseWriter, r *http.Request) {
	patient := chi.URLParam(r, "patient")
	if err := h.validator.ValidatePatientIdentifier(patient); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	records := grouping.NewestFirst(h.store.RecordsForPatient(patient))

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"data":       toRecordViews(records),
		"totalItems": len(records),
	})
}

// ListPrescriptionGroups returns a patient's prescriptions grouped by doctor,
// with the records visible under the viewer's expansion state
func (h *HTTPHandlerImpl) ListPrescriptionGroups(w http.ResponseWriter, r *http.Request) {
	patient := chi.URLParam(r, "patient")
	if err := h.validator.ValidatePatientIdentifier(patient); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	viewer := r.URL.Query().Get("viewer")
	if err := h.validator.ValidateViewerID(viewer); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	groups := grouping.Group(h.store.RecordsForPatient(patient))
	expansion := h.gate.Expansion(viewer)

	views := make([]groupView, len(groups))
	for i, g := range groups {
		expanded := expansion.IsExpanded(g.DoctorID)
		views[i] = groupView{
			DoctorID:         g.DoctorID,
			DoctorName:       g.DoctorName,
			ActiveCount:      g.ActiveCount,
			TotalCount:       g.TotalCount,
			Expanded:         expanded,
			ViewAllAvailable: secureview.ViewAllAvailable(g),
			Latest:           recordView{Prescription: g.Latest, Style: entities.StyleForStatus(g.Latest.Status)},
			Records:          toRecordViews(secureview.VisibleRecords(g, expanded)),
		}
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"data":        views,
		"totalGroups": len(views),
	})
}

// ToggleGroup flips the expansion of one doctor group for a viewer
func (h *HTTPHandlerImpl) ToggleGroup(w http.ResponseWriter, r *http.Request) {
	viewer := chi.URLParam(r, "viewer")
	if err := h.validator.ValidateViewerID(viewer); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	doctorID, err := h.validator.ValidateDoctorID(chi.URLParam(r, "doctorId"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	expanded := h.gate.Toggle(viewer, doctorID)

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"doctorId": doctorID,
		"expanded": expanded,
	})
}

// ViewPrescription opens one prescription in the secure viewer
func (h *HTTPHandlerImpl) ViewPrescription(w http.ResponseWriter, r *http.Request) {
	id, err := h.validator.ValidateRecordID(chi.URLParam(r, "id"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	viewer := r.URL.Query().Get("viewer")
	if err := h.validator.ValidateViewerID(viewer); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	patient := r.URL.Query().Get("patient")
	if err := h.validator.ValidatePatientIdentifier(patient); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, ok := h.store.RecordByID(id)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Prescription not found")
		return
	}

	// Another patient's record is reported as missing
	if patient != rec.PatientIdentifier {
		logging.Warn("Prescription requested for another patient", "prescription_id", id, "viewer", viewer)
		RespondWithError(w, http.StatusNotFound, "Prescription not found")
		return
	}

	h.gate.View(secureview.WithMode(r.Context(), secureview.ModeSingle), rec)

	noStore(w)
	RespondWithJSON(w, http.StatusOK, recordView{Prescription: rec, Style: entities.StyleForStatus(rec.Status)})
}

// ViewAllInGroup opens every prescription of a doctor group in the secure viewer
func (h *HTTPHandlerImpl) ViewAllInGroup(w http.ResponseWriter, r *http.Request) {
	viewer := chi.URLParam(r, "viewer")
	if err := h.validator.ValidateViewerID(viewer); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	doctorID, err := h.validator.ValidateDoctorID(chi.URLParam(r, "doctorId"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	patient := r.URL.Query().Get("patient")
	if err := h.validator.ValidatePatientIdentifier(patient); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	group, ok := grouping.Find(grouping.Group(h.store.RecordsForPatient(patient)), doctorID)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Prescription group not found")
		return
	}

	if !h.gate.ViewAll(r.Context(), group) {
		RespondWithError(w, http.StatusConflict, "View all is only available for groups with more than one prescription")
		return
	}

	noStore(w)
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"doctorId": doctorID,
		"viewed":   group.TotalCount,
		"data":     toRecordViews(group.Records),
	})
}

type violationRequest struct {
	Type              string `json:"type"`
	PatientIdentifier string `json:"patientIdentifier"`
	Timestamp         string `json:"timestamp"`
	UserAgent         string `json:"userAgent"`
}

// ReportViolation records a blocked extraction attempt reported by the secure viewer
func (h *HTTPHandlerImpl) ReportViolation(w http.ResponseWriter, r *http.Request) {
	var req violationRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validator.ValidateInput(req.Type); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.PatientIdentifier != "" {
		if err := h.validator.ValidatePatientIdentifier(req.PatientIdentifier); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	v := secureview.Violation{
		Type:              secureview.ViolationType(req.Type),
		PatientIdentifier: req.PatientIdentifier,
		UserAgent:         userAgent,
		RemoteAddr:        r.RemoteAddr,
	}
	if ts, err := parseClientTime(req.Timestamp); err == nil {
		v.OccurredAt = ts
	}

	h.gate.ReportViolation(r.Context(), v)

	RespondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Security violation logged"})
}

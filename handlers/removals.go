package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/giygas/prescriptions-api/confirm"
	"github.com/giygas/prescriptions-api/data"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/metrics"
	"github.com/giygas/prescriptions-api/recordsparser/entities"
	"github.com/go-chi/chi/v5"
)

var outcomeStatus = map[confirm.Outcome]int{
	confirm.OutcomeConfirmed:        http.StatusOK,
	confirm.OutcomeValidationFailed: http.StatusUnprocessableEntity,
	confirm.OutcomeActionFailed:     http.StatusBadGateway,
	confirm.OutcomeIgnored:          http.StatusConflict,
}

type confirmResponse struct {
	Outcome confirm.Outcome  `json:"outcome"`
	Message string           `json:"message,omitempty"`
	Session confirm.Snapshot `json:"session"`
}

// removalWarnings lists what is lost when rec is removed.
func removalWarnings(rec entities.Prescription) []string {
	items := []string{
		fmt.Sprintf("Prescription #%d: %s %s", rec.ID, rec.DrugName, rec.Dosage),
		"Dosage, frequency and instructions",
	}
	if rec.Notes != "" {
		items = append(items, "Doctor notes")
	}
	if rec.Status == entities.StatusActive {
		items = append(items, "An active prescription the patient may still rely on")
	}
	return items
}

func (h *HTTPHandlerImpl) removeAction(id int) confirm.Action {
	return func(ctx context.Context) error {
		if err := h.store.RemoveRecord(id); err != nil {
			return fmt.Errorf("remove prescription %d: %w", id, err)
		}
		metrics.PrescriptionsRemoved.Inc()
		return nil
	}
}

// OpenRemoval opens a confirmation session for removing a prescription
func (h *HTTPHandlerImpl) OpenRemoval(w http.ResponseWriter, r *http.Request) {
	id, err := h.validator.ValidateRecordID(chi.URLParam(r, "id"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, ok := h.store.RecordByID(id)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Prescription not found")
		return
	}

	session := h.confirmer.Open(confirm.Config{
		Title:         "Remove prescription",
		Message:       fmt.Sprintf("This permanently removes %s prescribed by %s. This cannot be undone.", rec.DrugName, rec.DoctorName),
		WarningItems:  removalWarnings(rec),
		ConfirmPhrase: h.removal.ConfirmPhrase,
		RequireTyping: h.removal.RequireTyping,
		Severity:      entities.SeverityDanger,
		Action:        h.removeAction(id),
	})
	h.sessions.Add(session)

	logging.Info("Removal session opened", "session_id", session.ID(), "prescription_id", id)

	w.Header().Set("Location", "/removals/"+session.ID())
	RespondWithJSON(w, http.StatusCreated, session.Snapshot())
}

type inputRequest struct {
	Input string `json:"input"`
}

// UpdateRemovalInput stores the phrase typed so far
func (h *HTTPHandlerImpl) UpdateRemovalInput(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req inputRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validator.ValidateTypedPhrase(req.Input); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.confirmer.UpdateInput(session, req.Input); err != nil {
		RespondWithError(w, http.StatusConflict, err.Error())
		return
	}

	RespondWithJSON(w, http.StatusOK, session.Snapshot())
}

// ConfirmRemoval attempts the confirmed removal
func (h *HTTPHandlerImpl) ConfirmRemoval(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	// A client disconnect must not abort the removal halfway
	ctx := context.WithoutCancel(r.Context())
	result := h.confirmer.AttemptConfirm(ctx, session)

	code, known := outcomeStatus[result.Outcome]
	if !known {
		code = http.StatusInternalServerError
	}

	switch {
	case result.Outcome == confirm.OutcomeConfirmed:
		h.sessions.Remove(session.ID())
	case errors.Is(result.Err, data.ErrRecordNotFound):
		// Removed through another session: nothing is left to retry
		if err := h.confirmer.Close(session); err != nil {
			logging.Warn("Failed to close stale removal session", "session_id", session.ID(), "error", err)
		}
		h.sessions.Remove(session.ID())
		code = http.StatusGone
	}

	response := confirmResponse{
		Outcome: result.Outcome,
		Session: session.Snapshot(),
	}
	if result.Err != nil {
		response.Message = result.Err.Error()
	}

	RespondWithJSON(w, code, response)
}

// CloseRemoval cancels a removal session
func (h *HTTPHandlerImpl) CloseRemoval(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	if err := h.confirmer.Close(session); err != nil {
		RespondWithError(w, http.StatusConflict, err.Error())
		return
	}
	h.sessions.Remove(session.ID())

	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandlerImpl) lookupSession(w http.ResponseWriter, r *http.Request) (*confirm.Session, bool) {
	session, err := h.sessions.Get(chi.URLParam(r, "session"))
	if errors.Is(err, confirm.ErrSessionNotFound) {
		RespondWithError(w, http.StatusNotFound, "Removal session not found")
		return nil, false
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return session, true
}

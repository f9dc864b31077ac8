package transport

import (
	"net/http"

	"tailorshop-be/internal/email"
	"tailorshop-be/internal/material"
	"tailorshop-be/internal/utils"
)

func (h *Handler) listEmails(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Emails.List(r.Context(), utils.QueryInt32(r, "limit"), utils.QueryInt32(r, "page"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, logs)
}

// sendEmail answers 201 with the log entry even when delivery failed; the
// entry's status says what happened.
func (h *Handler) sendEmail(w http.ResponseWriter, r *http.Request) {
	var msg email.Message
	if !decode(w, r, &msg) {
		return
	}
	entry, err := h.Emails.SendAsAdmin(r.Context(), msg)
	if entry == nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) verifySMTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Emails.Verify(r.Context()); err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			// The reason is the point of this endpoint.
			utils.WriteJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) listMaterials(w http.ResponseWriter, r *http.Request) {
	list, err := h.Materials.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) createMaterial(w http.ResponseWriter, r *http.Request) {
	var in material.CreateInput
	if !decode(w, r, &in) {
		return
	}
	m, err := h.Materials.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) decideMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status material.Status `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	m, err := h.Materials.Decide(r.Context(), id, body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, m)
}

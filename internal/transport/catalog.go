package transport

import (
	"net/http"

	"tailorshop-be/internal/utils"
)

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Catalog.List(r.Context(), r.PathValue("collection"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	d, err := h.Catalog.Get(r.Context(), r.PathValue("collection"), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) createDocument(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if !decode(w, r, &data) {
		return
	}
	d, err := h.Catalog.Create(r.Context(), r.PathValue("collection"), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) replaceDocument(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if !decode(w, r, &data) {
		return
	}
	d, err := h.Catalog.Replace(r.Context(), r.PathValue("collection"), r.PathValue("id"), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) patchDocument(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if !decode(w, r, &patch) {
		return
	}
	d, err := h.Catalog.Patch(r.Context(), r.PathValue("collection"), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Delete(r.Context(), r.PathValue("collection"), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

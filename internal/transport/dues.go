package transport

import (
	"net/http"

	"tailorshop-be/internal/due"
	"tailorshop-be/internal/notification"
	"tailorshop-be/internal/utils"
)

func (h *Handler) listDues(w http.ResponseWriter, r *http.Request) {
	var status *due.Status
	if v := r.URL.Query().Get("status"); v != "" {
		s := due.Status(v)
		status = &s
	}
	list, err := h.Dues.List(r.Context(), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) listMyDues(w http.ResponseWriter, r *http.Request) {
	list, err := h.Dues.ListMine(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) settleDue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.Dues.Settle(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.Notifications.ListMine(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []notification.Notification{}
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Notifications.MarkRead(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Notifications.MarkAllRead(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

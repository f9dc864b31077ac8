package webhook

import (
	"encoding/json"
	"net/http"
	"strings"

	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/payment"

	"go.uber.org/zap"
)

// Handler receives customers returning from a payment provider and sends
// them back to the storefront.
type Handler struct {
	svc payment.Service
}

func NewHandler(svc payment.Service) *Handler {
	return &Handler{svc: svc}
}

// BkashExecute handles GET /api/bkash/execute?paymentID=..&status=..
func (h *Handler) BkashExecute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	payload, _ := json.Marshal(q)

	target := h.svc.HandleCallback(r.Context(), payment.ProviderBkash, payment.Callback{
		PaymentID: q.Get("paymentID"),
		Outcome:   payment.ParseOutcome(q.Get("status")),
		Payload:   payload,
	})
	http.Redirect(w, r, target, http.StatusFound)
}

// OnlineCallback handles the hosted page's form post to
// /api/payment/callback/{outcome}.
func (h *Handler) OnlineCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	outcome := payment.ParseOutcome(r.PathValue("outcome"))
	status := strings.ToUpper(r.Form.Get("status"))
	if outcome == payment.OutcomeSuccess && status != "VALID" && status != "VALIDATED" {
		logger.FromCtx(r.Context()).Warn("success return without a valid status",
			zap.String("tran_id", r.Form.Get("tran_id")),
			zap.String("status", status),
		)
		outcome = payment.OutcomeFailure
	}

	payload, _ := json.Marshal(r.Form)
	target := h.svc.HandleCallback(r.Context(), payment.ProviderOnline, payment.Callback{
		PaymentID: r.Form.Get("tran_id"),
		Outcome:   outcome,
		TrxID:     r.Form.Get("val_id"),
		Payload:   payload,
	})
	http.Redirect(w, r, target, http.StatusSeeOther)
}

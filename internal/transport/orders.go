package transport

import (
	"errors"
	"net/http"
	"strings"

	"tailorshop-be/internal/order"
	"tailorshop-be/internal/utils"

	"github.com/google/uuid"
)

const IdempotencyHeader = "Idempotency-Key"

type checkoutResponse struct {
	*order.CheckoutResult
	// PaymentError is set when the order was placed but the provider page
	// could not be opened. The client retries through /api/payment/init.
	PaymentError string `json:"paymentError,omitempty"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var in order.CheckoutInput
	if !decode(w, r, &in) {
		return
	}

	res, err := h.Orders.Checkout(r.Context(), in, r.Header.Get(IdempotencyHeader))
	if err != nil && !(errors.Is(err, order.ErrPaymentStart) && res != nil) {
		writeError(w, r, err)
		return
	}

	resp := checkoutResponse{CheckoutResult: res}
	if err != nil {
		resp.PaymentError = err.Error()
	}
	code := http.StatusCreated
	if res.Replayed {
		code = http.StatusOK
	}
	utils.WriteJSON(w, code, resp)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := order.Filter{
		CustomerEmail: strings.TrimSpace(q.Get("email")),
		Limit:         utils.QueryInt32(r, "limit"),
		Page:          utils.QueryInt32(r, "page"),
	}
	if v := q.Get("status"); v != "" {
		s := order.Status(v)
		f.Status = &s
	}
	if v := q.Get("step"); v != "" {
		s := order.ProductionStep(v)
		f.Step = &s
	}

	page, err := h.Orders.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	o, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status order.Status `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	o, err := h.Orders.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) updateStep(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Step order.ProductionStep `json:"step"`
	}
	if !decode(w, r, &body) {
		return
	}
	o, err := h.Orders.UpdateProductionStep(r.Context(), id, body.Step)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Orders.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// startPayment serves both /api/payment/init and /api/bkash/create; the
// provider follows from the order's payment method.
func (h *Handler) startPayment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID uuid.UUID `json:"orderId"`
	}
	if !decode(w, r, &body) {
		return
	}
	url, err := h.Orders.StartPayment(r.Context(), body.OrderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"redirectUrl": url})
}

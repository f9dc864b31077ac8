package transport

import (
	"net/http"

	"tailorshop-be/internal/coupon"
	"tailorshop-be/internal/utils"

	"github.com/shopspring/decimal"
)

type validateCouponRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type validateCouponResponse struct {
	Code     string          `json:"code"`
	Percent  decimal.Decimal `json:"percent"`
	Discount decimal.Decimal `json:"discount"`
}

// validateCoupon previews a code against a cart subtotal. The code is not
// redeemed until checkout.
func (h *Handler) validateCoupon(w http.ResponseWriter, r *http.Request) {
	var in validateCouponRequest
	if !decode(w, r, &in) {
		return
	}
	a, err := h.Coupons.Validate(r.Context(), in.Code)
	if err != nil {
		if reason := coupon.RejectionReason(err); reason != "" && h.Recorder != nil {
			h.Recorder.CouponRejection(reason)
		}
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, validateCouponResponse{
		Code:     a.Code,
		Percent:  a.Percent,
		Discount: a.Discount(in.Subtotal),
	})
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	list, err := h.Coupons.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var in coupon.CouponInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.Coupons.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in coupon.CouponInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.Coupons.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Coupons.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package transport

import (
	"encoding/json"
	"net/http"

	"tailorshop-be/internal/catalog"
	"tailorshop-be/internal/coupon"
	"tailorshop-be/internal/due"
	"tailorshop-be/internal/email"
	"tailorshop-be/internal/material"
	"tailorshop-be/internal/notification"
	"tailorshop-be/internal/order"
	"tailorshop-be/internal/payment/webhook"
	"tailorshop-be/internal/user"

	"github.com/google/uuid"
)

const maxBody = 1 << 20

// CouponRecorder is told why a coupon was turned down.
type CouponRecorder interface {
	CouponRejection(reason string)
}

// Handler serves the REST collection API.
type Handler struct {
	Users         user.Service
	Orders        order.Service
	Coupons       coupon.Service
	Dues          due.Service
	Notifications notification.Service
	Emails        email.Service
	Materials     material.Service
	Catalog       catalog.Service
	Callbacks     *webhook.Handler
	Recorder      CouponRecorder

	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/logout", h.logout)
	mux.HandleFunc("GET /api/auth/me", h.me)

	mux.HandleFunc("GET /api/users", h.listUsers)
	mux.HandleFunc("POST /api/users", h.createUser)
	mux.HandleFunc("GET /api/users/{id}", h.getUser)
	mux.HandleFunc("PUT /api/users/{id}", h.updateUser)
	mux.HandleFunc("PATCH /api/users/{id}", h.updateUser)
	mux.HandleFunc("DELETE /api/users/{id}", h.deleteUser)

	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("POST /api/orders", h.checkout)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.updateStatus)
	mux.HandleFunc("PUT /api/orders/{id}/step", h.updateStep)
	mux.HandleFunc("DELETE /api/orders/{id}", h.deleteOrder)

	mux.HandleFunc("POST /api/payment/init", h.startPayment)
	mux.HandleFunc("POST /api/bkash/create", h.startPayment)
	if h.Callbacks != nil {
		mux.HandleFunc("GET /api/bkash/execute", h.Callbacks.BkashExecute)
		mux.HandleFunc("POST /api/payment/callback/{outcome}", h.Callbacks.OnlineCallback)
	}

	mux.HandleFunc("GET /api/coupons", h.listCoupons)
	mux.HandleFunc("POST /api/coupons", h.createCoupon)
	mux.HandleFunc("POST /api/coupons/validate", h.validateCoupon)
	mux.HandleFunc("PUT /api/coupons/{id}", h.updateCoupon)
	mux.HandleFunc("DELETE /api/coupons/{id}", h.deleteCoupon)

	mux.HandleFunc("GET /api/dues", h.listDues)
	mux.HandleFunc("GET /api/dues/mine", h.listMyDues)
	mux.HandleFunc("POST /api/dues/{id}/settle", h.settleDue)

	mux.HandleFunc("GET /api/notifications", h.listNotifications)
	mux.HandleFunc("POST /api/notifications/read-all", h.markAllRead)
	mux.HandleFunc("POST /api/notifications/{id}/read", h.markRead)

	mux.HandleFunc("GET /api/emails", h.listEmails)
	mux.HandleFunc("POST /api/emails", h.sendEmail)
	mux.HandleFunc("GET /api/verify-smtp", h.verifySMTP)
	mux.HandleFunc("POST /api/verify-smtp", h.verifySMTP)

	mux.HandleFunc("GET /api/material-requests", h.listMaterials)
	mux.HandleFunc("POST /api/material-requests", h.createMaterial)
	mux.HandleFunc("PATCH /api/material-requests/{id}", h.decideMaterial)

	mux.HandleFunc("GET /api/{collection}", h.listDocuments)
	mux.HandleFunc("POST /api/{collection}", h.createDocument)
	mux.HandleFunc("GET /api/{collection}/{id}", h.getDocument)
	mux.HandleFunc("PUT /api/{collection}/{id}", h.replaceDocument)
	mux.HandleFunc("PATCH /api/{collection}/{id}", h.patchDocument)
	mux.HandleFunc("DELETE /api/{collection}/{id}", h.deleteDocument)
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, errBadRequest)
		return false
	}
	return true
}

// pathID parses the {id} wildcard, answering 400 itself on failure.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, errBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

package transport

import (
	"net/http"

	"tailorshop-be/internal/auth"
	"tailorshop-be/internal/user"
	"tailorshop-be/internal/utils"
)

type sessionResponse struct {
	Token string     `json:"token"`
	Role  user.Role  `json:"role"`
	User  *user.User `json:"user"`
}

func (h *Handler) respondSession(w http.ResponseWriter, code int, token string, s user.Session) {
	http.SetCookie(w, auth.AccessTokenCookie(token, h.SecureCookies))
	utils.WriteJSON(w, code, sessionResponse{Token: token, Role: s.Role(), User: s.Current()})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in user.RegisterInput
	if !decode(w, r, &in) {
		return
	}
	token, s, err := h.Users.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondSession(w, http.StatusCreated, token, s)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in user.LoginInput
	if !decode(w, r, &in) {
		return
	}
	token, s, err := h.Users.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondSession(w, http.StatusOK, token, s)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	c := auth.AccessTokenCookie("", h.SecureCookies)
	c.MaxAge = -1
	http.SetCookie(w, c)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, user.ErrUnauthenticated)
		return
	}
	u, err := h.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	var role *user.Role
	if v := r.URL.Query().Get("role"); v != "" {
		rl := user.Role(v)
		role = &rl
	}
	users, err := h.Users.List(r.Context(), role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in user.CreateUserInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.Users.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, err := h.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in user.UpdateUserInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.Users.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Users.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

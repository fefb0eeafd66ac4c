// internal/api/handlers/auth.go
package handlers

import (
	"net/http"
	"time"

	"github.com/baharkarakas/blog-backend/internal/api/httpx"
	"github.com/baharkarakas/blog-backend/internal/services"
)

const maxAuthBody = 64 << 10

type AuthHandler struct {
	svc *services.AuthService
}

func NewAuthHandler(svc *services.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type authResp struct {
	Token     string    `json:"token"`
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toAuthResp(res services.AuthResult) authResp {
	return authResp{
		Token:     res.Token,
		ID:        res.User.ID,
		Username:  res.User.Username,
		Email:     res.User.Email,
		Role:      string(res.User.Role),
		ExpiresAt: res.ExpiresAt,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthBody)
	var req services.SignupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	res, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAuthResp(res))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthBody)
	var req services.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAuthResp(res))
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/baharkarakas/blog-backend/internal/api/httpx"
	"github.com/baharkarakas/blog-backend/internal/apperr"
	"github.com/baharkarakas/blog-backend/internal/middleware"
)

type ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeAck(w http.ResponseWriter, msg string) {
	httpx.WriteJSON(w, http.StatusOK, ack{Success: true, Message: msg})
}

// currentUser is only reached behind Protect; a missing user is a wiring bug.
func currentUser(w http.ResponseWriter, r *http.Request) (middleware.UserCtx, bool) {
	u, ok := middleware.CurrentUser(r.Context())
	if !ok {
		httpx.WriteAppError(w, apperr.Unauthorized(middleware.MsgMissingToken))
	}
	return u, ok
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

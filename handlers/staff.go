package handlers

import (
	"net/http"

	"github.com/ray-remotestate/tableside/utils"
)

// Login exchanges a staff or manager password for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.auth.Secret == "" {
		utils.RespondError(w, http.StatusNotFound, "staff authentication is disabled")
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if !h.decode(w, r, &body) {
		return
	}

	role, err := utils.MatchStaffPassword(h.auth.ManagerHash, h.auth.StaffHash, body.Password)
	if err != nil {
		h.log.WithField("remote", r.RemoteAddr).Warn("failed staff login")
		utils.RespondError(w, http.StatusUnauthorized, "Incorrect password")
		return
	}

	token, err := utils.GenerateAccessToken([]byte(h.auth.Secret), role, h.auth.TokenTTL)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, map[string]any{
		"access_token": token,
		"role":         role,
	})
}

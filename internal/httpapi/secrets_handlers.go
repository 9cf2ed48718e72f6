package httpapi

import (
	"database/sql"
	"net/http"
	"sync/atomic"

	"sfcars-engine/internal/config"
	"sfcars-engine/internal/secrets"
	"sfcars-engine/internal/store"
)

// SecretsHandler manages the token signing key in the OS keychain.
// Admin only. A replaced key takes effect on the next engine start.
type SecretsHandler struct {
	DB     *sql.DB
	CfgVal *atomic.Value // stores config.Config
}

type setSigningKeyReq struct {
	Secret string `json:"secret"`
}

func (h SecretsHandler) SigningKey(w http.ResponseWriter, r *http.Request) {
	u, err := store.GetUser(r.Context(), h.DB, UserIDFrom(r.Context()))
	if err != nil || !u.IsAdmin {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	switch r.Method {
	case http.MethodPut:
		var req setSigningKeyReq
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid json")
			return
		}
		if err := secrets.SetJWTSecret(cfg.Auth.KeyringAccount, req.Secret); err != nil {
			WriteError(w, r, http.StatusBadRequest, "keyring_error", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := secrets.DeleteJWTSecret(cfg.Auth.KeyringAccount); err != nil {
			WriteError(w, r, http.StatusBadRequest, "keyring_error", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hushkeep/hushkeep/internal/errs"
	"github.com/hushkeep/hushkeep/internal/service"
)

// PublicKeyHandler serves the encryption-key registry endpoints.
type PublicKeyHandler struct {
	svc service.PublicKeyService
	log *zap.Logger
}

// NewPublicKeyHandler constructs a PublicKeyHandler.
func NewPublicKeyHandler(svc service.PublicKeyService, log *zap.Logger) *PublicKeyHandler {
	return &PublicKeyHandler{svc: svc, log: log}
}

type publicKeyResponse struct {
	PublicKey *string `json:"publicKey"` // null when none registered
}

type setPublicKeyRequest struct {
	PublicKey string `json:"publicKey"`
}

// Get handles GET /api/publickey. Absent key is publicKey: null, not 404;
// the client uses it to decide whether to encrypt before upload.
func (h *PublicKeyHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	key, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		h.log.Error("get public key", zap.Error(err))
		writeError(w, err)
		return
	}
	var resp publicKeyResponse
	if key != "" {
		resp.PublicKey = &key
	}
	writeJSON(w, http.StatusOK, resp)
}

// Set handles POST /api/publickey: validate-then-upsert.
func (h *PublicKeyHandler) Set(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var req setPublicKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", errs.ErrValidation))
		return
	}
	if req.PublicKey == "" {
		writeError(w, fmt.Errorf("%w: public key is required", errs.ErrValidation))
		return
	}
	if err := h.svc.Set(r.Context(), userID, req.PublicKey); err != nil {
		if !isClientError(err) {
			h.log.Error("set public key", zap.Error(err))
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "public key saved"})
}

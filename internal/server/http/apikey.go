package httpserver

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hushkeep/hushkeep/internal/service"
)

// APIKeyHandler serves the session-authenticated key lifecycle endpoints.
type APIKeyHandler struct {
	svc service.APIKeyService
	log *zap.Logger
}

// NewAPIKeyHandler constructs an APIKeyHandler.
func NewAPIKeyHandler(svc service.APIKeyService, log *zap.Logger) *APIKeyHandler {
	return &APIKeyHandler{svc: svc, log: log}
}

type apiKeyResponse struct {
	APIKey string `json:"apiKey"`
}

// Get handles GET /api/apikey: return the active key, issuing the first one
// on demand. 201 only when a key was just created.
func (h *APIKeyHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	key, created, err := h.svc.GetOrCreate(r.Context(), userID)
	if err != nil {
		h.log.Error("get or create api key", zap.Error(err))
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, apiKeyResponse{APIKey: key})
}

// Regenerate handles POST /api/apikey: rotate to a fresh key. The old key
// stops authenticating; requests in flight with it fail from here on.
func (h *APIKeyHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	key, err := h.svc.Regenerate(r.Context(), userID)
	if err != nil {
		h.log.Error("regenerate api key", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, apiKeyResponse{APIKey: key})
}

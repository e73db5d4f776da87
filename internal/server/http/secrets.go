package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/hushkeep/hushkeep/internal/errs"
	"github.com/hushkeep/hushkeep/internal/model"
	"github.com/hushkeep/hushkeep/internal/service"
)

// SecretsHandler serves the session-authenticated secret endpoints.
type SecretsHandler struct {
	svc service.SecretService
	log *zap.Logger
}

// NewSecretsHandler constructs a SecretsHandler.
func NewSecretsHandler(svc service.SecretService, log *zap.Logger) *SecretsHandler {
	return &SecretsHandler{svc: svc, log: log}
}

type secretDTO struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

func toSecretDTO(s model.SecretRecord) secretDTO {
	return secretDTO{ID: s.ID.String(), Key: s.Key, Value: s.Value, CreatedAt: s.CreatedAt}
}

type createSecretRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// List handles GET /api/secrets. Values are masked on this surface; the raw
// retrieval path is the API-key one.
func (h *SecretsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	recs, err := h.svc.ListMasked(r.Context(), userID)
	if err != nil {
		h.log.Error("list secrets", zap.Error(err))
		writeError(w, err)
		return
	}
	out := make([]secretDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, secretDTO{ID: rec.ID.String(), Key: rec.Key, Value: rec.Value, CreatedAt: rec.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"secrets": out})
}

// Create handles POST /api/secrets. The value is stored exactly as sent
// (ciphertext if the client encrypted) and echoed back once.
func (h *SecretsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var req createSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", errs.ErrValidation))
		return
	}
	rec, err := h.svc.Create(r.Context(), userID, req.Key, req.Value)
	if err != nil {
		if !isClientError(err) {
			h.log.Error("create secret", zap.Error(err))
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"secret": toSecretDTO(*rec)})
}

// Delete handles DELETE /api/secrets?id=. Deleting a missing or foreign
// record still reports success so record existence is never leaked.
func (h *SecretsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	rawID := r.URL.Query().Get("id")
	if rawID == "" {
		writeError(w, fmt.Errorf("%w: secret id is required", errs.ErrValidation))
		return
	}
	id, err := uuid.FromString(rawID)
	if err != nil {
		writeError(w, fmt.Errorf("%w: malformed secret id", errs.ErrValidation))
		return
	}
	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		h.log.Error("delete secret", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "secret deleted"})
}

// isClientError reports whether the failure was the caller's fault and
// needs no server-side error logging.
func isClientError(err error) bool {
	return errors.Is(err, errs.ErrValidation) || errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrUnauthorized)
}

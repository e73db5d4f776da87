package httpserver

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hushkeep/hushkeep/internal/errs"
	"github.com/hushkeep/hushkeep/internal/service"
)

// V1Handler serves the API-key-authenticated programmatic surface. This is
// the raw retrieval path: values come back exactly as stored, because the
// consumer holds the decryption key out-of-band.
type V1Handler struct {
	svc service.SecretService
	log *zap.Logger
}

// NewV1Handler constructs a V1Handler.
func NewV1Handler(svc service.SecretService, log *zap.Logger) *V1Handler {
	return &V1Handler{svc: svc, log: log}
}

type rawSecretDTO struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Secrets handles GET /api/v1/secrets. Without a query it lists everything;
// with ?key=<name> it returns that one secret or 404. ?name= is accepted as
// an alias.
func (h *V1Handler) Secrets(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())

	name := r.URL.Query().Get("key")
	if name == "" {
		name = r.URL.Query().Get("name")
	}

	if name != "" {
		rec, err := h.svc.GetRaw(r.Context(), userID, name)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, errorBody{Error: "secret not found"})
				return
			}
			h.log.Error("get secret", zap.Error(err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"secret": rawSecretDTO{Key: rec.Key, Value: rec.Value}})
		return
	}

	recs, err := h.svc.ListRaw(r.Context(), userID)
	if err != nil {
		h.log.Error("list secrets", zap.Error(err))
		writeError(w, err)
		return
	}
	out := make([]rawSecretDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rawSecretDTO{Key: rec.Key, Value: rec.Value})
	}
	writeJSON(w, http.StatusOK, map[string]any{"secrets": out})
}

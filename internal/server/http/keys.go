package httpserver

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hushkeep/hushkeep/internal/crypto/clientcipher"
)

// KeygenHandler serves key-pair generation for clients that cannot generate
// locally. The private half is returned once and never stored.
type KeygenHandler struct {
	log *zap.Logger
}

// NewKeygenHandler constructs a KeygenHandler.
func NewKeygenHandler(log *zap.Logger) *KeygenHandler {
	return &KeygenHandler{log: log}
}

type keyPairResponse struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// Generate handles POST /api/generate-keys.
func (h *KeygenHandler) Generate(w http.ResponseWriter, r *http.Request) {
	pair, err := clientcipher.GenerateKeyPair()
	if err != nil {
		h.log.Error("generate key pair", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keyPairResponse{PublicKey: pair.Public, PrivateKey: pair.Private})
}

// Whoami handles GET /api/auth/user: echoes the verified identity so
// clients can check a stored session token.
func Whoami(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"id": userID}})
}

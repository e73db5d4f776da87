package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hushkeep/hushkeep/internal/service"
)

// Deps collects everything the router wires together.
type Deps struct {
	Verifier   service.CredentialVerifier
	APIKeys    service.APIKeyService
	PublicKeys service.PublicKeyService
	Secrets    service.SecretService
	Health     *HealthHandler
	Logger     *zap.Logger
}

// NewRouter builds the chi router. Session endpoints live under /api with
// bearer auth; the programmatic surface lives under /api/v1 with X-API-Key
// auth. The two credential paths are never combined for one request.
func NewRouter(d Deps) *chi.Mux {
	apiKeyH := NewAPIKeyHandler(d.APIKeys, d.Logger)
	publicKeyH := NewPublicKeyHandler(d.PublicKeys, d.Logger)
	secretsH := NewSecretsHandler(d.Secrets, d.Logger)
	v1H := NewV1Handler(d.Secrets, d.Logger)
	keygenH := NewKeygenHandler(d.Logger)

	r := chi.NewRouter()
	r.Use(Logging(d.Logger))
	r.Use(Recover(d.Logger))

	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)

	r.Route("/api", func(r chi.Router) {
		// programmatic surface: API-key credential
		r.Route("/v1", func(r chi.Router) {
			r.Use(APIKeyAuth(d.Verifier, d.Logger))
			r.Get("/secrets", v1H.Secrets)
		})

		// session surface: bearer credential
		r.Group(func(r chi.Router) {
			r.Use(SessionAuth(d.Verifier, d.Logger))

			r.Get("/apikey", apiKeyH.Get)
			r.Post("/apikey", apiKeyH.Regenerate)

			r.Get("/publickey", publicKeyH.Get)
			r.Post("/publickey", publicKeyH.Set)

			r.Get("/secrets", secretsH.List)
			r.Post("/secrets", secretsH.Create)
			r.Delete("/secrets", secretsH.Delete)

			r.Post("/generate-keys", keygenH.Generate)
			r.Get("/auth/user", Whoami)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	return r
}

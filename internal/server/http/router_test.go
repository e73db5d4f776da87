package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/hushkeep/hushkeep/internal/errs"
	"github.com/hushkeep/hushkeep/internal/identity"
	"github.com/hushkeep/hushkeep/internal/model"
	"github.com/hushkeep/hushkeep/internal/repository"
	"github.com/hushkeep/hushkeep/internal/service"
)

// In-memory backends so the router tests exercise the real services and
// middleware end to end.

type memAPIKeyRepo struct {
	rows []model.APIKey
}

var _ repository.APIKeyRepository = (*memAPIKeyRepo)(nil)

func (m *memAPIKeyRepo) GetActive(_ context.Context, userID string) (*model.APIKey, error) {
	for i := range m.rows {
		if m.rows[i].UserID == userID && m.rows[i].Active {
			cp := m.rows[i]
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memAPIKeyRepo) FindActiveByKey(_ context.Context, key string) (*model.APIKey, error) {
	for i := range m.rows {
		if m.rows[i].Key == key && m.rows[i].Active {
			cp := m.rows[i]
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memAPIKeyRepo) Create(_ context.Context, k *model.APIKey) error {
	for i := range m.rows {
		if m.rows[i].UserID == k.UserID && m.rows[i].Active {
			return errs.ErrAlreadyExists
		}
	}
	m.rows = append(m.rows, *k)
	return nil
}

func (m *memAPIKeyRepo) Rotate(_ context.Context, userID string, newKey *model.APIKey) error {
	for i := range m.rows {
		if m.rows[i].UserID == userID {
			m.rows[i].Active = false
		}
	}
	m.rows = append(m.rows, *newKey)
	return nil
}

type memSecretRepo struct {
	rows []model.SecretRecord
}

var _ repository.SecretRepository = (*memSecretRepo)(nil)

func (m *memSecretRepo) List(_ context.Context, userID string) ([]model.SecretRecord, error) {
	var out []model.SecretRecord
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memSecretRepo) FindByName(_ context.Context, userID, name string) ([]model.SecretRecord, error) {
	var out []model.SecretRecord
	for _, r := range m.rows {
		if r.UserID == userID && r.Key == name {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memSecretRepo) Create(_ context.Context, s *model.SecretRecord) error {
	m.rows = append(m.rows, *s)
	return nil
}

func (m *memSecretRepo) Delete(_ context.Context, userID string, id uuid.UUID) error {
	for i, r := range m.rows {
		if r.UserID == userID && r.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

type memPublicKeyRepo struct {
	keys map[string]string
}

var _ repository.PublicKeyRepository = (*memPublicKeyRepo)(nil)

func (m *memPublicKeyRepo) Get(_ context.Context, userID string) (*model.PublicKeyRecord, error) {
	k, ok := m.keys[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &model.PublicKeyRecord{UserID: userID, Key: k}, nil
}

func (m *memPublicKeyRepo) Upsert(_ context.Context, userID, key string) error {
	m.keys[userID] = key
	return nil
}

type staticTokens map[string]string

var _ identity.TokenVerifier = staticTokens(nil)

func (s staticTokens) Verify(_ context.Context, token string) (string, error) {
	uid, ok := s[token]
	if !ok {
		return "", identity.ErrInvalidToken
	}
	return uid, nil
}

type testEnv struct {
	router  http.Handler
	secrets *memSecretRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	keys := &memAPIKeyRepo{}
	secrets := &memSecretRepo{}
	pubkeys := &memPublicKeyRepo{keys: make(map[string]string)}
	tokens := staticTokens{"tok-alice": "alice", "tok-bob": "bob"}
	log := zap.NewNop()

	router := NewRouter(Deps{
		Verifier:   service.NewVerifier(tokens, keys, nil),
		APIKeys:    service.NewAPIKeyService(keys, nil),
		PublicKeys: service.NewPublicKeyService(pubkeys),
		Secrets:    service.NewSecretService(secrets),
		Health:     NewHealthHandler(),
		Logger:     log,
	})
	return &testEnv{router: router, secrets: secrets}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func sessionHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func (e *testEnv) fetchAPIKey(t *testing.T, token string) string {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/api/apikey", nil, sessionHeaders(token))
	if rec.Code != http.StatusOK && rec.Code != http.StatusCreated {
		t.Fatalf("GET /api/apikey: status %d", rec.Code)
	}
	key, _ := decodeBody(t, rec)["apiKey"].(string)
	if key == "" {
		t.Fatal("empty apiKey in response")
	}
	return key
}

func TestRouter_RejectsMissingCredentials(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	cases := []struct {
		method, target string
	}{
		{http.MethodGet, "/api/secrets"},
		{http.MethodPost, "/api/secrets"},
		{http.MethodDelete, "/api/secrets?id=x"},
		{http.MethodGet, "/api/apikey"},
		{http.MethodPost, "/api/apikey"},
		{http.MethodGet, "/api/publickey"},
		{http.MethodPost, "/api/publickey"},
		{http.MethodGet, "/api/v1/secrets"},
		{http.MethodGet, "/api/auth/user"},
	}
	for _, c := range cases {
		rec := env.do(t, c.method, c.target, nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without credentials: status %d, want 401", c.method, c.target, rec.Code)
		}
	}
}

func TestRouter_CredentialPathsAreSeparate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	apiKey := env.fetchAPIKey(t, "tok-alice")

	// bearer token on the programmatic surface
	rec := env.do(t, http.MethodGet, "/api/v1/secrets", nil, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bearer on /api/v1: status %d, want 401", rec.Code)
	}

	// API key on the session surface
	rec = env.do(t, http.MethodGet, "/api/secrets", nil, map[string]string{"X-API-Key": apiKey})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("api key on /api/secrets: status %d, want 401", rec.Code)
	}
}

func TestRouter_MaskedListAndRawRead(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	stored := "dmVyeS1zZWNyZXQtY2lwaGVydGV4dA=="

	rec := env.do(t, http.MethodPost, "/api/secrets",
		map[string]string{"key": "db-password", "value": stored}, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body)
	}

	// session list: value masked
	rec = env.do(t, http.MethodGet, "/api/secrets", nil, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), stored) {
		t.Fatal("masked listing contains the stored value")
	}
	if !strings.Contains(rec.Body.String(), stored[len(stored)-4:]) {
		t.Fatal("masked listing missing the trailing hint")
	}

	// API-key read: exact bytes back
	apiKey := env.fetchAPIKey(t, "tok-alice")
	rec = env.do(t, http.MethodGet, "/api/v1/secrets?key=db-password", nil, map[string]string{"X-API-Key": apiKey})
	if rec.Code != http.StatusOK {
		t.Fatalf("raw read: status %d", rec.Code)
	}
	secret, _ := decodeBody(t, rec)["secret"].(map[string]any)
	if secret["value"] != stored {
		t.Fatalf("raw value %v, want stored %q", secret["value"], stored)
	}
}

func TestRouter_V1NamedReadNotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	apiKey := env.fetchAPIKey(t, "tok-alice")

	rec := env.do(t, http.MethodGet, "/api/v1/secrets?key=absent", nil, map[string]string{"X-API-Key": apiKey})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "secret not found" {
		t.Fatalf("error=%v", got)
	}
}

func TestRouter_V1ListIsUserScoped(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/secrets",
		map[string]string{"key": "alice-only", "value": "va"}, sessionHeaders("tok-alice"))
	env.do(t, http.MethodPost, "/api/secrets",
		map[string]string{"key": "bob-only", "value": "vb"}, sessionHeaders("tok-bob"))

	bobKey := env.fetchAPIKey(t, "tok-bob")
	rec := env.do(t, http.MethodGet, "/api/v1/secrets", nil, map[string]string{"X-API-Key": bobKey})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "alice-only") {
		t.Fatal("bob's listing leaked alice's secret")
	}
	if !strings.Contains(body, "bob-only") {
		t.Fatal("bob's own secret missing")
	}
}

func TestRouter_DeleteForeignRecordIsSilentNoop(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/secrets",
		map[string]string{"key": "k", "value": "v"}, sessionHeaders("tok-alice"))
	secret, _ := decodeBody(t, rec)["secret"].(map[string]any)
	id, _ := secret["id"].(string)
	if id == "" {
		t.Fatal("no id in create response")
	}

	// bob deletes alice's record: 200, record untouched
	rec = env.do(t, http.MethodDelete, "/api/secrets?id="+id, nil, sessionHeaders("tok-bob"))
	if rec.Code != http.StatusOK {
		t.Fatalf("foreign delete: status %d, want 200", rec.Code)
	}
	if len(env.secrets.rows) != 1 {
		t.Fatal("foreign delete removed the record")
	}

	// owner deletes: gone
	rec = env.do(t, http.MethodDelete, "/api/secrets?id="+id, nil, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("owner delete: status %d", rec.Code)
	}
	if len(env.secrets.rows) != 0 {
		t.Fatal("record survived owner delete")
	}
}

func TestRouter_DeleteValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodDelete, "/api/secrets", nil, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing id: status %d, want 400", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/api/secrets?id=not-a-uuid", nil, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed id: status %d, want 400", rec.Code)
	}
}

func TestRouter_CreateSecretValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for name, body := range map[string]map[string]string{
		"empty key":   {"key": "", "value": "v"},
		"empty value": {"key": "k", "value": ""},
	} {
		rec := env.do(t, http.MethodPost, "/api/secrets", body, sessionHeaders("tok-alice"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", name, rec.Code)
		}
	}
}

func TestRouter_APIKeyLifecycle(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	// first GET issues a key
	rec := env.do(t, http.MethodGet, "/api/apikey", nil, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first GET: status %d, want 201", rec.Code)
	}
	first, _ := decodeBody(t, rec)["apiKey"].(string)

	// second GET returns the same key, 200
	rec = env.do(t, http.MethodGet, "/api/apikey", nil, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("second GET: status %d, want 200", rec.Code)
	}
	if got, _ := decodeBody(t, rec)["apiKey"].(string); got != first {
		t.Fatalf("key changed between GETs: %q != %q", got, first)
	}

	// rotation invalidates the old key
	rec = env.do(t, http.MethodPost, "/api/apikey", nil, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("rotate: status %d, want 201", rec.Code)
	}
	fresh, _ := decodeBody(t, rec)["apiKey"].(string)
	if fresh == first {
		t.Fatal("rotation returned the old key")
	}

	rec = env.do(t, http.MethodGet, "/api/v1/secrets", nil, map[string]string{"X-API-Key": first})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("old key after rotation: status %d, want 401", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/v1/secrets", nil, map[string]string{"X-API-Key": fresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("fresh key: status %d, want 200", rec.Code)
	}
}

func TestRouter_PublicKeyRegistry(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	// nothing registered: publicKey is null
	rec := env.do(t, http.MethodGet, "/api/publickey", nil, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if v, ok := decodeBody(t, rec)["publicKey"]; !ok || v != nil {
		t.Fatalf("publicKey=%v, want explicit null", v)
	}

	// non-PEM rejected
	rec = env.do(t, http.MethodPost, "/api/publickey",
		map[string]string{"publicKey": "not a pem"}, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed key: status %d, want 400", rec.Code)
	}

	// generated pair round-trips through the registry
	rec = env.do(t, http.MethodPost, "/api/generate-keys", nil, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("generate-keys: status %d", rec.Code)
	}
	pub, _ := decodeBody(t, rec)["publicKey"].(string)

	rec = env.do(t, http.MethodPost, "/api/publickey",
		map[string]string{"publicKey": pub}, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("register: status %d, body %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodGet, "/api/publickey", nil, sessionHeaders("tok-alice"))
	if got, _ := decodeBody(t, rec)["publicKey"].(string); got != pub {
		t.Fatal("registered key did not round-trip")
	}
}

func TestRouter_Whoami(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/auth/user", nil, sessionHeaders("tok-alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	user, _ := decodeBody(t, rec)["user"].(map[string]any)
	if user["id"] != "alice" {
		t.Fatalf("user=%v", user)
	}
}

func TestRouter_Probes(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, target := range []string{"/healthz", "/readyz"} {
		rec := env.do(t, http.MethodGet, target, nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", target, rec.Code)
		}
	}
}

func TestRouter_UnknownRouteIsJSON(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type=%q", ct)
	}
}

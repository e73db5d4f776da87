package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// RemoteVerifier asks the identity provider's userinfo endpoint whether a
// token is valid. The provider answers {"id": "<user id>"} for live tokens
// and a 4xx for everything else.
type RemoteVerifier struct {
	userURL string
	client  *http.Client
}

// NewRemoteVerifier constructs a verifier against the provider base URL.
func NewRemoteVerifier(issuerURL string) *RemoteVerifier {
	return &RemoteVerifier{
		userURL: strings.TrimRight(issuerURL, "/") + "/auth/v1/user",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify calls the userinfo endpoint with the bearer token.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", ErrInvalidToken
	default:
		return "", &ProviderError{Status: resp.StatusCode}
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.ID == "" {
		return "", ErrInvalidToken
	}
	return body.ID, nil
}

// ProviderError reports an identity-provider outage (5xx), which must not be
// masked as an invalid credential.
type ProviderError struct{ Status int }

func (e *ProviderError) Error() string { return "identity provider error" }

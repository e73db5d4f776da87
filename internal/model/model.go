// Package model defines domain entities used by services and repositories.
package model

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// APIKey is a long-lived programmatic credential. At most one record per
// user has Active=true; superseded keys are kept with Active=false.
type APIKey struct {
	ID        uuid.UUID // PK
	UserID    string    // opaque identity-provider user id
	Key       string    // "hk_" + 64 hex chars, stored as issued
	Active    bool
	CreatedAt time.Time
}

// PublicKeyRecord holds the client-registered encryption public key.
// One record per user, updated in place.
type PublicKeyRecord struct {
	UserID    string // PK
	Key       string // PEM-armored RSA public key (SPKI)
	UpdatedAt time.Time
}

// SecretRecord is a user-owned name/value pair. Value is stored exactly as
// the client sent it (ciphertext if the client encrypted). Names are not
// unique per user; records are addressed by (UserID, ID).
type SecretRecord struct {
	ID        uuid.UUID
	UserID    string
	Key       string // name, 1-255 chars
	Value     string // plaintext or ciphertext, opaque to the server
	CreatedAt time.Time
}

// MaskedSecret is the session-surface projection of a SecretRecord: the
// stored value never appears, only its masked form.
type MaskedSecret struct {
	ID        uuid.UUID
	Key       string
	Value     string // masked
	CreatedAt time.Time
}

// Masked projects the record for the session-authenticated list.
func (s SecretRecord) Masked() MaskedSecret {
	return MaskedSecret{ID: s.ID, Key: s.Key, Value: s.MaskedValue(), CreatedAt: s.CreatedAt}
}

// maskKeep is how many trailing characters a masked value reveals.
const maskKeep = 4

// MaskedValue redacts the stored value for the session-authenticated list,
// keeping only the last four characters. Values that short are fully masked.
// Counts runes, not bytes, so a multi-byte tail stays valid UTF-8.
func (s SecretRecord) MaskedValue() string {
	r := []rune(s.Value)
	if len(r) <= maskKeep {
		return strings.Repeat("*", 8)
	}
	return "****..." + string(r[len(r)-maskKeep:])
}

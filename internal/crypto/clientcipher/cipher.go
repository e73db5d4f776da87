// Package clientcipher contains the client-side encryption primitives.
// Secrets are encrypted before upload and decrypted after download; the
// server only ever sees the output of this package.
//
// The scheme is asymmetric throughout: RSA-2048 key pairs in SPKI/PKCS8 PEM
// encoding, RSA-OAEP(SHA-256) for short values and an RSA-wrapped
// XChaCha20-Poly1305 envelope for values over the OAEP ceiling.
package clientcipher

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

const (
	keyBits = 2048

	pemPublicBegin = "-----BEGIN PUBLIC KEY-----"
	pemPublicEnd   = "-----END PUBLIC KEY-----"
)

// Sentinels for cipher failures.
var (
	ErrEncrypt = errors.New("encrypt failed")
	ErrDecrypt = errors.New("decrypt failed")
)

// KeyPair holds PEM-encoded key material. Private never leaves the client.
type KeyPair struct {
	Public  string
	Private string
}

// GenerateKeyPair creates a 2048-bit RSA pair, public half SPKI PEM,
// private half PKCS8 PEM.
func GenerateKeyPair() (KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return KeyPair{}, err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return KeyPair{}, err
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{
		Public:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
		Private: string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})),
	}, nil
}

// Encrypt encrypts plaintext with RSA-OAEP(SHA-256) under the PEM public key
// and returns base64. Fails with ErrEncrypt on malformed key material or
// plaintext over the OAEP ceiling (190 bytes for 2048-bit keys); longer
// values go through Seal.
func Encrypt(plaintext, publicKeyPEM string) (string, error) {
	pub, err := parsePublicKey(publicKeyPEM)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncrypt, err)
	}
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, []byte(plaintext), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncrypt, err)
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt reverses Encrypt using the PEM private key.
func Decrypt(ciphertext, privateKeyPEM string) (string, error) {
	priv, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	ct, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: bad base64", ErrDecrypt)
	}
	pt, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ct, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(pt), nil
}

// MaxEncryptLen returns the OAEP plaintext ceiling for the given public key.
func MaxEncryptLen(publicKeyPEM string) (int, error) {
	pub, err := parsePublicKey(publicKeyPEM)
	if err != nil {
		return 0, err
	}
	return pub.Size() - 2*sha256.Size - 2, nil
}

// IsValidPublicKey is a structural check: PEM armor with the public-key
// begin/end markers and a parseable RSA SPKI body.
func IsValidPublicKey(candidate string) bool {
	s := strings.TrimSpace(candidate)
	if s == "" || !strings.HasPrefix(s, pemPublicBegin) || !strings.HasSuffix(s, pemPublicEnd) {
		return false
	}
	_, err := parsePublicKey(s)
	return err == nil
}

func parsePublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, errors.New("not a PEM public key")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA key")
	}
	return pub, nil
}

func parsePrivateKey(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("not a PEM private key")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an RSA key")
	}
	return priv, nil
}

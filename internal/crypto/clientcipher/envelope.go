package clientcipher

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// envelopePrefix tags Seal output so Open can tell envelopes from plain
// OAEP ciphertexts.
const envelopePrefix = "hkenv:"

const contentKeyLen = chacha20poly1305.KeySize

// Seal envelope-encrypts plaintexts of any length: a random content key
// encrypts the body with XChaCha20-Poly1305, RSA-OAEP wraps the content key.
// Layout inside the base64 blob: 2-byte wrapped-key length, wrapped key,
// nonce, AEAD body.
func Seal(plaintext, publicKeyPEM string) (string, error) {
	pub, err := parsePublicKey(publicKeyPEM)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncrypt, err)
	}
	key := make([]byte, contentKeyLen)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncrypt, err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncrypt, err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncrypt, err)
	}
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncrypt, err)
	}

	out := make([]byte, 0, 2+len(wrapped)+len(nonce)+len(plaintext)+aead.Overhead())
	var wl [2]byte
	binary.BigEndian.PutUint16(wl[:], uint16(len(wrapped)))
	out = append(out, wl[:]...)
	out = append(out, wrapped...)
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, []byte(plaintext), nil)...)
	return envelopePrefix + base64.StdEncoding.EncodeToString(out), nil
}

// IsEnvelope reports whether the ciphertext was produced by Seal.
func IsEnvelope(ciphertext string) bool {
	return strings.HasPrefix(ciphertext, envelopePrefix)
}

// Open reverses Seal using the PEM private key.
func Open(ciphertext, privateKeyPEM string) (string, error) {
	if !IsEnvelope(ciphertext) {
		return "", fmt.Errorf("%w: not an envelope", ErrDecrypt)
	}
	priv, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext[len(envelopePrefix):])
	if err != nil {
		return "", fmt.Errorf("%w: bad base64", ErrDecrypt)
	}
	if len(raw) < 2 {
		return "", fmt.Errorf("%w: blob too short", ErrDecrypt)
	}
	wl := int(binary.BigEndian.Uint16(raw[:2]))
	rest := raw[2:]
	if len(rest) < wl+chacha20poly1305.NonceSizeX {
		return "", fmt.Errorf("%w: blob too short", ErrDecrypt)
	}
	wrapped := rest[:wl]
	nonce := rest[wl : wl+chacha20poly1305.NonceSizeX]
	body := rest[wl+chacha20poly1305.NonceSizeX:]

	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	pt, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(pt), nil
}

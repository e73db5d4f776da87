package identity

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier verifies HS256 session tokens locally. The subject claim
// carries the user id.
type JWTVerifier struct {
	signKey []byte
	parser  *jwt.Parser
}

// NewJWTVerifier constructs a verifier for the shared HS256 signing key.
// Expiry is checked with 30s leeway for clock skew.
func NewJWTVerifier(signKey []byte) *JWTVerifier {
	return &JWTVerifier{
		signKey: signKey,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

// Verify parses and validates the token, returning its subject.
func (v *JWTVerifier) Verify(_ context.Context, token string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := v.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.signKey, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

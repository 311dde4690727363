// Package identity verifies bearer tokens issued by the external identity
// provider and extracts the verified email address.
//
// A Verifier is built once at start-up and injected into the services that
// need it; nothing in this package holds global state.
package identity

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"foodloop/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNoEmail      = errors.New("no email in token")
)

// Identity is what the provider vouches for.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
}

type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type tokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

type JWTVerifier struct {
	parser  *jwt.Parser
	keyFunc jwt.Keyfunc
}

// New builds a verifier from config. An RSA public key file (RS256, the
// provider's signing key) takes precedence over a shared HS256 secret.
func New(cfg config.Auth) (*JWTVerifier, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired(), jwt.WithLeeway(30 * time.Second)}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	switch {
	case cfg.PublicKeyFile != "":
		pem, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read auth public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("parse auth public key: %w", err)
		}
		return NewRSA(key, opts...), nil
	case cfg.JWTSecret != "":
		return NewHMAC([]byte(cfg.JWTSecret), opts...), nil
	}
	return nil, errors.New("identity: set AUTH_JWT_PUBLIC_KEY_FILE or AUTH_JWT_SECRET")
}

func NewRSA(key *rsa.PublicKey, opts ...jwt.ParserOption) *JWTVerifier {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	return &JWTVerifier{
		parser:  jwt.NewParser(opts...),
		keyFunc: func(*jwt.Token) (any, error) { return key, nil },
	}
}

func NewHMAC(secret []byte, opts ...jwt.ParserOption) *JWTVerifier {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return &JWTVerifier{
		parser:  jwt.NewParser(opts...),
		keyFunc: func(*jwt.Token) (any, error) { return secret, nil },
	}
}

func (v *JWTVerifier) Verify(ctx context.Context, raw string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrInvalidToken
	}
	var claims tokenClaims
	if _, err := v.parser.ParseWithClaims(raw, &claims, v.keyFunc); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return Identity{}, ErrNoEmail
	}
	return Identity{Subject: claims.Subject, Email: email, EmailVerified: claims.EmailVerified}, nil
}

// Package auth validates bearer tokens for the gateway's HTTP surface.
// Tokens are HMAC-signed JWTs issued by the deployment's own tooling.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/relayforge/llm-fallback-gateway/middleware"
)

var (
	// ErrInvalidToken is returned when a token fails validation
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnexpectedSigningMethod is returned for non-HMAC tokens
	ErrUnexpectedSigningMethod = errors.New("unexpected signing method")
)

// JWTValidator implements middleware.TokenValidator using an HMAC secret
type JWTValidator struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTValidator creates a validator for tokens signed with secret.
// Issuer and audience checks are applied only when non-empty.
func NewJWTValidator(secret []byte, issuer, audience string) *JWTValidator {
	return &JWTValidator{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
	}
}

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ValidateToken parses and validates a JWT, returning its claims
func (v *JWTValidator) ValidateToken(ctx context.Context, tokenString string) (*middleware.Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedSigningMethod, t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	return &middleware.Claims{
		Sub:  claims.Subject,
		Role: claims.Role,
	}, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// SessionTokenExpiry is the lifetime of an issued session token.
const SessionTokenExpiry = 7 * 24 * time.Hour

// Claims is the payload of a session token.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenIssuer creates and verifies session tokens.
type TokenIssuer interface {
	// Issue signs a token for the user.
	Issue(userID string) (string, error)

	// Verify parses a token and returns its claims. Fails with
	// CodeInvalidToken on bad signature, malformed input or expiry.
	Verify(token string) (*Claims, error)
}

// JWTIssuer signs HS256 session tokens with a shared secret.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// JWTOption configures a JWTIssuer.
type JWTOption func(*JWTIssuer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) JWTOption {
	return func(i *JWTIssuer) { i.now = now }
}

// WithTTL overrides SessionTokenExpiry.
func WithTTL(ttl time.Duration) JWTOption {
	return func(i *JWTIssuer) { i.ttl = ttl }
}

// NewJWTIssuer creates a JWTIssuer. The secret is required.
func NewJWTIssuer(secret string, opts ...JWTOption) (*JWTIssuer, error) {
	if secret == "" {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("jwt secret is required")
	}
	i := &JWTIssuer{
		secret: []byte(secret),
		ttl:    SessionTokenExpiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a session token for userID.
func (i *JWTIssuer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").Errorf("user id is required")
	}

	now := i.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").With("user_id", userID).Wrap(err)
	}
	return signed, nil
}

// Verify parses and validates a session token.
func (i *JWTIssuer) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, oops.Code(CodeMissingToken).Errorf("token is required")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, oops.Code(CodeInvalidToken).Wrapf(err, "invalid token")
	}
	if claims.UserID == "" {
		return nil, oops.Code(CodeInvalidToken).Errorf("token has no user id")
	}
	return claims, nil
}

var _ TokenIssuer = (*JWTIssuer)(nil)

// Package authn provides signup/login, bearer-token issuance and
// verification, password reset, and the Google OAuth flow.
package authn

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the bearer token lifetime.
const TokenTTL = 7 * 24 * time.Hour

var (
	// ErrBadToken is returned for missing, malformed, expired or
	// wrongly-signed bearer tokens.
	ErrBadToken = errors.New("authn: invalid token")

	// ErrInvalidCredentials is returned for a failed login. The message
	// is identical for unknown email and wrong password.
	ErrInvalidCredentials = errors.New("authn: invalid email or password")
)

// Claims are the signed bearer token contents.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies bearer tokens. The clock is injectable
// so expiry is testable without sleeping.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer with the standard 7-day lifetime.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: TokenTTL, now: time.Now}
}

// Issue signs a token identifying the user.
func (ti *TokenIssuer) Issue(userID, name, email string) (string, error) {
	now := ti.now()
	claims := Claims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a bearer token and returns its claims.
func (ti *TokenIssuer) Verify(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return ti.now() }))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrBadToken
	}
	return &claims, nil
}

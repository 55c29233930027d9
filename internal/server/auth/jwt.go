// Package auth verifies bearer tokens and guards owner-only resources.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the registered claim set plus the userId claim every accepted
// token must carry.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Verifier checks HS256 tokens against a shared secret and the configured
// issuer and subject. It is safe for concurrent use.
type Verifier struct {
	secret   []byte
	issuer   string
	subject  string
	validity time.Duration
	now      func() time.Time
}

type Option func(*Verifier)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

func NewVerifier(secret, issuer, subject string, validity time.Duration, opts ...Option) *Verifier {
	v := &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		subject:  subject,
		validity: validity,
		now:      time.Now,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify returns the userId claim of a valid token.
// Expired tokens yield common.ErrTokenExpired; any other defect yields
// common.ErrInvalidToken.
func (v *Verifier) Verify(tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithSubject(v.subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}

// Issue signs a token for userID that Verify accepts until the configured
// validity elapses.
func (v *Verifier) Issue(userID string) (string, error) {
	now := v.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   v.subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.validity)),
		},
		UserID: userID,
	})

	return token.SignedString(v.secret)
}

// Validity is the configured access-token lifetime.
func (v *Verifier) Validity() time.Duration {
	return v.validity
}

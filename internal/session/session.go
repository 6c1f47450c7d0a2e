// Package session signs and verifies the HMAC tokens that identify a platform user.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Audiences keep a token minted for one purpose from being replayed for another
const (
	AudienceSession    = "mailsync-session"
	AudienceOAuthState = "mailsync-oauth-state"
)

// OAuthStateTTL bounds how long a consent round trip may take
const OAuthStateTTL = 10 * time.Minute

// ErrInvalidToken is returned for any token that fails verification
var ErrInvalidToken = errors.New("invalid token")

// Issuer signs and verifies tokens with one shared secret
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an Issuer over an HMAC secret
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// Sign mints a token for userID valid for ttl
func (i *Issuer) Sign(userID, audience string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("sign token: %w", ErrInvalidToken)
	}
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks signature, expiry and audience, and returns the user id
func (i *Issuer) Verify(token, audience string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	issuer := NewIssuer("secret")

	token, err := issuer.Sign("user-1", AudienceSession, time.Hour)
	require.NoError(t, err)

	userID, err := issuer.Verify(token, AudienceSession)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerify_Rejects(t *testing.T) {
	issuer := NewIssuer("secret")
	valid, err := issuer.Sign("user-1", AudienceSession, time.Hour)
	require.NoError(t, err)

	expired, err := issuer.Sign("user-1", AudienceSession, -time.Minute)
	require.NoError(t, err)

	otherKey, err := NewIssuer("other").Sign("user-1", AudienceSession, time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "user-1",
		Audience: jwt.ClaimStrings{AudienceSession},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		Audience:  jwt.ClaimStrings{AudienceSession},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]struct {
		token    string
		audience string
	}{
		"wrong audience": {valid, AudienceOAuthState},
		"expired":        {expired, AudienceSession},
		"wrong key":      {otherKey, AudienceSession},
		"no expiry":      {noExpiry, AudienceSession},
		"none alg":       {noneAlg, AudienceSession},
		"garbage":        {"not-a-token", AudienceSession},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token, tt.audience)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestSign_RequiresUser(t *testing.T) {
	_, err := NewIssuer("secret").Sign("", AudienceSession, time.Hour)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

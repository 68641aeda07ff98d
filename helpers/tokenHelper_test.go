package helpers

import (
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-physiobackend/models"
)

func therapistIdentity() *models.Identity {
	return &models.Identity{
		Role:  models.RoleTherapist,
		ID:    "123456",
		Name:  "Ana Torres",
		Email: "t@x.com",
		State: models.StateInactive,
	}
}

func TestTokenRoundTripCarriesClaims(t *testing.T) {
	maker, err := NewTokenMaker("secret", "HS256", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, maker.TTL())

	token, expiresAt, err := maker.GenerateToken(therapistIdentity())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := maker.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "123456", claims.UserID)
	assert.Equal(t, "t@x.com", claims.Email)
	assert.Equal(t, "t@x.com", claims.Subject)
	assert.Equal(t, models.RoleTherapist, claims.Role)
	assert.Equal(t, models.StateInactive, claims.State)
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	maker, err := NewTokenMaker("secret", "HS256", time.Minute)
	require.NoError(t, err)
	maker.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := maker.GenerateToken(therapistIdentity())
	require.NoError(t, err)

	maker.now = time.Now
	_, err = maker.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_RejectsOtherSecret(t *testing.T) {
	issuer, err := NewTokenMaker("secret-a", "HS256", time.Minute)
	require.NoError(t, err)
	verifier, err := NewTokenMaker("secret-b", "HS256", time.Minute)
	require.NoError(t, err)

	token, _, err := issuer.GenerateToken(therapistIdentity())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_RejectsOtherAlgorithm(t *testing.T) {
	hs512, err := NewTokenMaker("secret", "HS512", time.Minute)
	require.NoError(t, err)
	hs256, err := NewTokenMaker("secret", "HS256", time.Minute)
	require.NoError(t, err)

	token, _, err := hs512.GenerateToken(therapistIdentity())
	require.NoError(t, err)

	_, err = hs256.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_RejectsUnsignedToken(t *testing.T) {
	maker, err := NewTokenMaker("secret", "HS256", time.Minute)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &SignedDetails{UserID: "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = maker.ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestNewTokenMaker_Errors(t *testing.T) {
	_, err := NewTokenMaker("", "HS256", time.Minute)
	assert.Error(t, err)

	_, err = NewTokenMaker("secret", "RS256", time.Minute)
	assert.Error(t, err)

	_, err = NewTokenMaker("secret", "bogus", time.Minute)
	assert.Error(t, err)
}

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/anoixa/dicom-portal/database/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewJWTService_SecretTooShort(t *testing.T) {
	_, err := NewJWTService("short", time.Hour)
	assert.Error(t, err)

	svc, err := NewJWTService(testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultTokenTTL, svc.expiresIn)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	user := &models.User{ID: "u-1", Email: "doc@example.com", Role: models.RoleDoctor}
	token, expiry, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	claims, err := svc.ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleDoctor, claims.Role)
	assert.Equal(t, "doc@example.com", claims.Email)
	assert.Equal(t, accessTokenType, claims.Type)
	assert.Equal(t, expiry.Unix(), claims.Exp)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc, err := NewJWTService(testSecret, time.Minute)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := svc.GenerateAccessToken(&models.User{ID: "u-1", Role: models.RolePatient})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ExtractClaims(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsForeignSecret(t *testing.T) {
	issuer, err := NewJWTService(strings.Repeat("x", 32), time.Hour)
	require.NoError(t, err)
	verifier, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	token, _, err := issuer.GenerateAccessToken(&models.User{ID: "u-1", Role: models.RolePatient})
	require.NoError(t, err)

	_, err = verifier.ExtractClaims(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsUnknownRole(t *testing.T) {
	svc, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-1",
		"role":    "admin",
		"type":    accessTokenType,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	token, err := raw.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ExtractClaims(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	svc, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	raw := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": "u-1",
		"role":    "hospital",
		"type":    accessTokenType,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	token, err := raw.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

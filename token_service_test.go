package hireqa_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	hireqa "github.com/ms-hireqa/hireqa-backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticIdentity struct {
	id, username, email, role string
}

func (s staticIdentity) ID() string       { return s.id }
func (s staticIdentity) Username() string { return s.username }
func (s staticIdentity) Email() string    { return s.email }
func (s staticIdentity) Role() string     { return s.role }

var testIdentity = staticIdentity{
	id:       "8c2f0a44-7a3a-4a86-9f11-2f14f36a4c01",
	username: "meeras",
	email:    "meera@example.com",
	role:     hireqa.RoleJobseeker,
}

func newTestTokenService() hireqa.TokenService {
	return hireqa.NewTokenService(
		[]byte("test-signing-key"),
		30,
		"hireqa",
		jwt.ClaimStrings{"hireqa-web"},
		testLogger{},
	)
}

func TestTokenServiceGenerateAndValidate(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.Generate(testIdentity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)

	// subject carries the email, not the id
	assert.Equal(t, "meera@example.com", claims.Subject())
	assert.Equal(t, testIdentity.id, claims.UserID())
	assert.Equal(t, hireqa.RoleJobseeker, claims.Role())
}

func TestTokenServiceExpiryIsThirtyMinutes(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	impl := hireqa.NewTokenService(
		[]byte("test-signing-key"), 30, "hireqa", nil, testLogger{},
	).(*hireqa.TokenServiceImpl).WithClock(fixedClock{now: now})

	token, err := impl.Generate(testIdentity)
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, &hireqa.JWTClaims{})
	require.NoError(t, err)

	claims := parsed.Claims.(*hireqa.JWTClaims)
	assert.Equal(t, now.Add(30*time.Minute).Unix(), claims.Expires().Unix())
	assert.Equal(t, now.Unix(), claims.IssuedAt().Unix())
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)

	impl := hireqa.NewTokenService(
		[]byte("test-signing-key"), 30, "hireqa", nil, testLogger{},
	).(*hireqa.TokenServiceImpl).WithClock(fixedClock{now: past})

	token, err := impl.Generate(testIdentity)
	require.NoError(t, err)

	_, err = impl.Validate(token)
	require.Error(t, err)
	assert.True(t, hireqa.HasTextCode(err, hireqa.TextCodeSessionExpired))
}

func TestTokenServiceRejectsWrongKey(t *testing.T) {
	svc := newTestTokenService()
	token, err := svc.Generate(testIdentity)
	require.NoError(t, err)

	other := hireqa.NewTokenService(
		[]byte("a-different-key"), 30, "hireqa", jwt.ClaimStrings{"hireqa-web"}, testLogger{},
	)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc := newTestTokenService()

	tests := []string{
		"",
		"not-a-jwt",
		"aaaa.bbbb.cccc",
	}

	for _, token := range tests {
		_, err := svc.Validate(token)
		assert.Error(t, err)
	}
}

func TestTokenServiceIssuerMismatch(t *testing.T) {
	issued := hireqa.NewTokenService(
		[]byte("test-signing-key"), 30, "someone-else", nil, testLogger{},
	)
	token, err := issued.Generate(testIdentity)
	require.NoError(t, err)

	svc := newTestTokenService()
	_, err = svc.Validate(token)
	assert.Error(t, err)
}

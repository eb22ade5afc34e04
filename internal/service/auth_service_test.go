package service

import (
	"testing"
	"time"

	"buddyboard/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testAuthConfig() config.APIAuthConfig {
	return config.APIAuthConfig{
		Username:    "admin",
		Password:    "admin",
		TokenSecret: "0123456789abcdef0123",
		TokenTTL:    3600,
		Issuer:      "buddyboard",
	}
}

func TestAuthService_AuthenticateAndValidate(t *testing.T) {
	svc := NewAuthService(testAuthConfig(), nil)

	token, err := svc.Authenticate("admin", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	subject, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
}

func TestAuthService_InvalidCredentials(t *testing.T) {
	svc := NewAuthService(testAuthConfig(), nil)

	cases := []struct {
		name, user, pass string
	}{
		{"WrongPassword", "admin", "nope"},
		{"WrongUser", "root", "admin"},
		{"Empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := svc.Authenticate(tc.user, tc.pass)
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.Empty(t, token)
		})
	}
}

func TestAuthService_PasswordHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testAuthConfig()
	cfg.Password = ""
	cfg.PasswordHash = string(hash)
	svc := NewAuthService(cfg, nil)

	_, err = svc.Authenticate("admin", "s3cret")
	assert.NoError(t, err)
	_, err = svc.Authenticate("admin", "admin")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_ValidateRejects(t *testing.T) {
	svc := NewAuthService(testAuthConfig(), nil)

	t.Run("Garbage", func(t *testing.T) {
		_, err := svc.Validate("admin-token")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("Expired", func(t *testing.T) {
		issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return issued }
		token, err := svc.Authenticate("admin", "admin")
		require.NoError(t, err)

		svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrUnauthorized)
		svc.now = time.Now
	})

	t.Run("OtherSecret", func(t *testing.T) {
		cfg := testAuthConfig()
		cfg.TokenSecret = "another-secret-value-123"
		token, err := NewAuthService(cfg, nil).Authenticate("admin", "admin")
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("OtherIssuer", func(t *testing.T) {
		cfg := testAuthConfig()
		cfg.Issuer = "someone-else"
		token, err := NewAuthService(cfg, nil).Authenticate("admin", "admin")
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("NoneAlgorithm", func(t *testing.T) {
		claims := jwt.RegisteredClaims{Subject: "admin", Issuer: "buddyboard"}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

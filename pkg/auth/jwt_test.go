package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "bib-test",
		Expiration: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, []string{RoleAdmin, RoleOperator})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, []string{RoleAdmin, RoleOperator}, claims.Roles)
	assert.Equal(t, "bib-test", claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestValidateToken_Rejections(t *testing.T) {
	valid := newTestJWTService(t)

	expired, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "bib-test", Expiration: -time.Hour})
	require.NoError(t, err)
	otherKey, err := NewJWTService(JWTConfig{Secret: "another-secret", Issuer: "bib-test", Expiration: time.Hour})
	require.NoError(t, err)
	otherIssuer, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "someone-else", Expiration: time.Hour})
	require.NoError(t, err)

	tests := []struct {
		name   string
		issuer *JWTService
	}{
		{name: "expired", issuer: expired},
		{name: "wrong signature", issuer: otherKey},
		{name: "wrong issuer", issuer: otherIssuer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.issuer.GenerateToken(uuid.New(), []string{RoleAdmin})
			require.NoError(t, err)

			_, err = valid.ValidateToken(token)
			assert.Error(t, err)
		})
	}

	t.Run("garbage", func(t *testing.T) {
		_, err := valid.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestRSA_ValidationOnly(t *testing.T) {
	privPEM, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	issuer, err := NewJWTService(JWTConfig{PrivateKeyPEM: string(privPEM), Issuer: "bib-identity", Expiration: time.Hour})
	require.NoError(t, err)
	validator, err := NewJWTService(JWTConfig{PublicKeyPEM: string(pubPEM), Issuer: "bib-identity"})
	require.NoError(t, err)

	token, err := issuer.GenerateToken(uuid.New(), []string{RoleOperator})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(RoleOperator))

	_, err = validator.GenerateToken(uuid.New(), nil)
	assert.ErrorContains(t, err, "validation-only")

	hmac := newTestJWTService(t)
	hmacToken, err := hmac.GenerateToken(uuid.New(), nil)
	require.NoError(t, err)
	_, err = validator.ValidateToken(hmacToken)
	assert.ErrorContains(t, err, "unexpected signing method")
}

func TestNewJWTService_NoKey(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	assert.ErrorIs(t, err, ErrNoVerificationKey)
}

func TestValidationConfig(t *testing.T) {
	_, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)
	keyFile := filepath.Join(t.TempDir(), "jwt.pub")
	require.NoError(t, os.WriteFile(keyFile, pubPEM, 0o600))

	t.Run("inline key wins", func(t *testing.T) {
		cfg, err := ValidationConfig(KeySources{PublicKey: "inline", PublicKeyFile: keyFile, Secret: "s", Issuer: "i"})
		require.NoError(t, err)
		assert.Equal(t, "inline", cfg.PublicKeyPEM)
		assert.Empty(t, cfg.Secret)
		assert.Equal(t, "i", cfg.Issuer)
	})

	t.Run("file before secret", func(t *testing.T) {
		cfg, err := ValidationConfig(KeySources{PublicKeyFile: keyFile, Secret: "s"})
		require.NoError(t, err)
		assert.Equal(t, string(pubPEM), cfg.PublicKeyPEM)
	})

	t.Run("secret fallback", func(t *testing.T) {
		cfg, err := ValidationConfig(KeySources{Secret: "s"})
		require.NoError(t, err)
		assert.Equal(t, "s", cfg.Secret)
	})

	t.Run("unreadable file", func(t *testing.T) {
		_, err := ValidationConfig(KeySources{PublicKeyFile: filepath.Join(t.TempDir(), "missing")})
		assert.ErrorContains(t, err, "failed to read key file")
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := ValidationConfig(KeySources{})
		assert.ErrorIs(t, err, ErrNoVerificationKey)
	})
}

func TestHasAnyRole(t *testing.T) {
	c := Claims{Roles: []string{RoleAuditor, RoleOperator}}

	assert.True(t, c.HasRole(RoleOperator))
	assert.False(t, c.HasRole(RoleAdmin))
	assert.True(t, c.HasAnyRole(RoleAdmin, RoleOperator))
	assert.False(t, c.HasAnyRole(RoleAdmin))
	assert.False(t, Claims{}.HasAnyRole(RoleAdmin))
}

func TestClaimsFromContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	want := &Claims{Roles: []string{RoleAdmin}}
	got, ok := ClaimsFromContext(ContextWithClaims(context.Background(), want))
	require.True(t, ok)
	assert.Same(t, want, got)
}

package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/yoga-escrow-api/internal/models"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
)

const testWallet = "0x52908400098527886E0F7030069857D2E4169EE7"

func newTestAuthService() *AuthService {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "yoga-escrow-api"})
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestIssueAndValidateToken(t *testing.T) {
	svc := newTestAuthService()

	token, expires, err := svc.IssueToken(TokenRequest{Wallet: testWallet, Handle: "teacherX", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(time.Hour), expires)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, teacherX, claims.Handle)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "0x52908400098527886e0f7030069857d2e4169ee7", claims.Wallet)
	assert.Equal(t, claims.Wallet, claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestIssueTokenValidation(t *testing.T) {
	svc := newTestAuthService()

	_, _, err := svc.IssueToken(TokenRequest{Wallet: "not-a-wallet", Role: models.RoleStudent})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, _, err = svc.IssueToken(TokenRequest{Wallet: testWallet, Role: models.RoleTeacher})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, _, err = svc.IssueToken(TokenRequest{Wallet: testWallet, Role: "owner"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, _, err = svc.IssueToken(TokenRequest{Wallet: testWallet, Handle: "two words", Role: models.RoleTeacher})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidHandle))

	_, _, err = svc.IssueToken(TokenRequest{Wallet: testWallet, Role: models.RoleAdmin})
	assert.NoError(t, err)
}

func TestValidateTokenRejections(t *testing.T) {
	svc := newTestAuthService()
	token, _, err := svc.IssueToken(TokenRequest{Wallet: testWallet, Role: models.RoleStudent})
	require.NoError(t, err)

	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Issuer: "yoga-escrow-api"})
	other.now = svc.now
	_, err = other.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	svc.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		Wallet: "0xabc",
		Role:   models.RoleTeacher,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "yoga-escrow-api",
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
	})
	signed, err := forged.SignedString([]byte("secret"))
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow }
	_, err = svc.ValidateToken(signed)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
